// Operation compile pipeline
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package operation

import (
	"context"
	"time"

	"wirecam/pkg/cam"
	"wirecam/pkg/config"
	"wirecam/pkg/errors"
	"wirecam/pkg/gcode"
	"wirecam/pkg/log"
	"wirecam/pkg/metrics"
	"wirecam/pkg/validate"
	"wirecam/pkg/wear"
)

// SnapGrid is the spacing path points are rounded to before compiling.
const SnapGrid = 0.001

// Stage names a pipeline step for progress reporting.
type Stage string

const (
	StageCheck      Stage = "check"
	StageGeometry   Stage = "geometry"
	StageCompile    Stage = "compile"
	StageCompensate Stage = "compensate"
	StageValidate   Stage = "validate"
	StageDone       Stage = "done"
)

// Stages in the order Run reports them.
var Stages = []Stage{StageCheck, StageGeometry, StageCompile, StageCompensate, StageValidate, StageDone}

// Settings are the per-run inputs that do not belong to the operation.
type Settings struct {
	Index    int // operation number shown in the header
	Machine  *config.MachineConfig
	Metrics  *metrics.WireMetrics
	Progress func(Stage)
}

// Result is a finished program with its diagnostics.
type Result struct {
	Operation string
	Type      Kind
	Program   gcode.Program
	Text      string
	Paths     int
	Wear      *wear.Result
	Report    validate.Report
	Duration  time.Duration
}

// Run produces the program for op. Parameter failures are returned as
// *errors.ParamErrors before any program text is built. ctx is checked
// between stages.
func Run(ctx context.Context, op Operation, geo Geometry, s Settings) (*Result, error) {
	machine := s.Machine
	if machine == nil {
		machine = config.DefaultMachine()
	}
	m := s.Metrics
	if m == nil {
		m = metrics.Global()
	}
	labels := metrics.Labels{"type": string(op.Type)}
	m.ActiveRuns.Inc(nil)
	defer m.ActiveRuns.Dec(nil)
	started := time.Now()

	entry := logger.WithFields(log.Fields{"operation": op.Name, "type": string(op.Type)})
	res, err := run(ctx, op, geo, s, machine)
	if err != nil {
		m.CompileFailures.Inc(labels)
		entry.WithError(err).Warn("run failed")
		return nil, err
	}
	res.Duration = time.Since(started)
	m.RunDuration.Observe(labels, res.Duration.Seconds())
	m.ProgramsCompiled.Inc(labels)
	m.ProgramLines.Add(labels, uint64(len(res.Program)))
	m.CutBlocks.Add(labels, uint64(res.Wear.CutBlocks))
	m.PlungeBlocks.Add(labels, uint64(res.Wear.PlungeBlocks))
	m.SubdivisionPoints.Add(labels, uint64(res.Wear.Inserted))
	m.DepthViolations.Add(labels, uint64(res.Report.Count))

	entry.WithFields(log.Fields{
		"paths":      res.Paths,
		"lines":      len(res.Program),
		"violations": res.Report.Count,
		"duration":   res.Duration.String(),
	}).Info("program compiled")
	return res, nil
}

func run(ctx context.Context, op Operation, geo Geometry, s Settings, machine *config.MachineConfig) (*Result, error) {
	stage := func(st Stage) error {
		if err := ctx.Err(); err != nil {
			return errors.RuntimeCanceled(string(st), err)
		}
		if s.Progress != nil {
			s.Progress(st)
		}
		return nil
	}

	if err := stage(StageCheck); err != nil {
		return nil, err
	}
	if err := Check(op).Err(op.Name); err != nil {
		return nil, err
	}

	if err := stage(StageGeometry); err != nil {
		return nil, err
	}
	if geo == nil {
		return nil, errors.RuntimeError("no geometry for operation").SetSection(op.Name)
	}
	paths, tabs, err := geo.CamPaths(op)
	if err != nil {
		return nil, err
	}
	cam.SnapPaths(paths, SnapGrid)

	if err := stage(StageCompile); err != nil {
		return nil, err
	}
	scale := machine.Feed.FeedScale()
	params := cam.Params{
		Ramp:        op.Ramp,
		LengthScale: 1,
		UseZ:        op.UsesZ(),
		Decimal:     machine.Output.DecimalPlaces,
		TopZ:        op.StartZ,
		BotZ:        op.EndZ,
		SafeZ:       op.RapidZ,
		PassDepth:   op.PassDepth,
		PlungeFeed:  op.PlungeRate * scale,
		CutFeed:     op.CutRate * scale,
		TabZ:        -op.TabDepth,
		ToolSpeed:   op.ToolSpeed,
	}
	if !op.UsesZ() {
		params.Tabs = tabs
	}
	body, err := cam.Compile(paths, params)
	if err != nil {
		return nil, err
	}

	prog := Header(s.Index, op, len(paths), machine.Feed.Units)
	prog = append(prog, hook(op.HookStart)...)
	prog = append(prog, body...)
	prog = append(prog, hook(op.HookEnd)...)

	if err := stage(StageCompensate); err != nil {
		return nil, err
	}
	compensated, err := wear.Process(prog, wear.Params{
		WearRatio:   op.WearRatio,
		PlungeFeed:  op.PlungeRate * scale,
		TravelFeed:  machine.Wear.TravelFeed,
		RetractFeed: machine.Wear.RetractFeed,
		StartZ:      op.StartZ,
		RapidZ:      op.RapidZ,
		PassDepth:   op.PassDepth,
		Threshold:   machine.Wear.SubdivideThreshold,
		CarryWear:   machine.Wear.CarryWear,
	})
	if err != nil {
		return nil, err
	}

	if err := stage(StageValidate); err != nil {
		return nil, err
	}
	report := validate.Check(compensated.Program)

	format := gcode.Format{Decimals: machine.Output.DecimalPlaces, EOL: machine.Output.LineTerminator()}
	res := &Result{
		Operation: op.Name,
		Type:      op.Type,
		Program:   compensated.Program,
		Text:      format.Program(compensated.Program),
		Paths:     len(paths),
		Wear:      compensated,
		Report:    report,
	}
	if err := stage(StageDone); err != nil {
		return nil, err
	}
	return res, nil
}
