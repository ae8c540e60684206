// HCL job files
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package job loads HCL job files. A job names a machine configuration
// and lists operations, each with inline path and tab blocks or a YAML
// paths file. Attribute expressions may refer to var.<name>, set by
// variable blocks and overridden from the command line.
package job

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"wirecam/pkg/cam"
	"wirecam/pkg/errors"
	"wirecam/pkg/log"
	"wirecam/pkg/operation"
)

var logger = log.GetLogger("job")

// DefaultStepOver applies when an operation does not set step_over.
const DefaultStepOver = 40

// Entry is one operation with its geometry.
type Entry struct {
	Operation operation.Operation
	Geometry  operation.StaticGeometry
}

// Job is a decoded job file.
type Job struct {
	File       string
	Dir        string // empty when the job did not come from disk
	Machine    string // machine config path, resolved against Dir
	Operations []Entry
}

// Find returns the entry for the named operation.
func (j *Job) Find(name string) (Entry, bool) {
	for _, e := range j.Operations {
		if e.Operation.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// ParseVars turns name=value pairs into a variable map.
func ParseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.New(errors.ErrJobParse, fmt.Sprintf("variable %q is not name=value", p))
		}
		vars[name] = strings.TrimSpace(value)
	}
	return vars, nil
}

// varValue converts a command line value to the closest cty type.
func varValue(s string) cty.Value {
	switch s {
	case "true":
		return cty.True
	case "false":
		return cty.False
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return cty.NumberFloatVal(f)
	}
	return cty.StringVal(s)
}

// Load reads a job file from disk. Relative machine and paths_file
// references resolve against the job file's directory.
func Load(path string, vars map[string]string) (*Job, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.JobParseError(path, err)
	}
	return parse(src, path, filepath.Dir(path), vars)
}

// Parse decodes job source that has no directory. Such jobs may not use
// paths_file.
func Parse(src []byte, filename string, vars map[string]string) (*Job, error) {
	return parse(src, filename, "", vars)
}

func parse(src []byte, filename, dir string, vars map[string]string) (*Job, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.JobParseError(filename, diags)
	}

	var vf variableFile
	if diags := gohcl.DecodeBody(file.Body, nil, &vf); diags.HasErrors() {
		return nil, errors.JobDecodeError(filename, "variable", diags)
	}
	ctx, err := evalContext(filename, vf.Variables, vars)
	if err != nil {
		return nil, err
	}

	var jf jobFile
	if diags := gohcl.DecodeBody(vf.Remain, ctx, &jf); diags.HasErrors() {
		return nil, errors.JobDecodeError(filename, "operation", diags)
	}

	j := &Job{File: filename, Dir: dir, Machine: jf.Machine}
	if j.Machine != "" && dir != "" && !filepath.IsAbs(j.Machine) {
		j.Machine = filepath.Join(dir, j.Machine)
	}
	seen := make(map[string]bool)
	for _, ob := range jf.Operations {
		if seen[ob.Name] {
			return nil, errors.JobDecodeError(filename, "operation "+ob.Name, fmt.Errorf("duplicate operation name"))
		}
		seen[ob.Name] = true
		e, err := j.entry(ob)
		if err != nil {
			return nil, err
		}
		j.Operations = append(j.Operations, e)
	}
	logger.WithFields(log.Fields{"file": filename, "operations": len(j.Operations)}).Debug("job loaded")
	return j, nil
}

// evalContext exposes var.<name>: declared defaults first, then the
// supplied values. A declared variable with neither is an error.
func evalContext(filename string, decls []*variableBlock, vars map[string]string) (*hcl.EvalContext, error) {
	values := make(map[string]cty.Value)
	for _, v := range decls {
		if v.Default != nil {
			values[v.Name] = *v.Default
		}
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values[name] = varValue(vars[name])
	}
	for _, v := range decls {
		if _, ok := values[v.Name]; !ok {
			return nil, errors.JobDecodeError(filename, "variable "+v.Name, fmt.Errorf("no value given and no default"))
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(values)},
	}, nil
}

func (j *Job) entry(ob *operationBlock) (Entry, error) {
	kind, err := operation.ParseKind(ob.Type)
	if err != nil {
		return Entry{}, errors.JobDecodeError(j.File, "operation "+ob.Name, err)
	}
	dir, err := operation.ParseDirection(ob.Direction)
	if err != nil {
		return Entry{}, errors.JobDecodeError(j.File, "operation "+ob.Name, err)
	}
	stepOver := float64(DefaultStepOver)
	if ob.StepOver != nil {
		stepOver = *ob.StepOver
	}

	op := operation.Operation{
		Name:         ob.Name,
		Type:         kind,
		Direction:    dir,
		RapidZ:       ob.RapidZ,
		StartZ:       ob.StartZ,
		EndZ:         ob.EndZ,
		PassDepth:    ob.PassDepth,
		TabDepth:     ob.TabDepth,
		PlungeRate:   ob.PlungeRate,
		CutRate:      ob.CutRate,
		WearRatio:    ob.WearRatio,
		ToolSpeed:    ob.ToolSpeed,
		Ramp:         ob.Ramp,
		ToolDiameter: ob.ToolDiameter,
		StepOver:     stepOver,
		ToolAngle:    ob.ToolAngle,
		Margin:       ob.Margin,
		CutWidth:     ob.CutWidth,
		HookStart:    ob.HookStart,
		HookEnd:      ob.HookEnd,
	}

	var geo operation.StaticGeometry
	if ob.PathsFile != "" {
		if j.Dir == "" {
			return Entry{}, errors.JobGeometryError(j.File, fmt.Sprintf("operation %q: paths_file is not allowed here", ob.Name))
		}
		path := ob.PathsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(j.Dir, path)
		}
		if geo, err = LoadGeometry(path); err != nil {
			return Entry{}, err
		}
	}
	for i, pb := range ob.Paths {
		pts, err := toPoints(j.File, fmt.Sprintf("operation %q path %d", ob.Name, i), pb.Points)
		if err != nil {
			return Entry{}, err
		}
		geo.Paths = append(geo.Paths, cam.CamPath{Points: pts, SafeToClose: pb.SafeToClose})
	}
	for i, tb := range ob.Tabs {
		tab, err := toTab(j.File, i, tb.Points)
		if err != nil {
			return Entry{}, err
		}
		geo.Tabs = append(geo.Tabs, tab)
	}
	if len(geo.Paths) == 0 {
		return Entry{}, errors.JobGeometryError(j.File, fmt.Sprintf("operation %q has no paths", ob.Name))
	}
	return Entry{Operation: op, Geometry: geo}, nil
}
