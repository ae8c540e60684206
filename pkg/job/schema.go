// HCL job file schema
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package job

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// variableFile is the first decoding pass: variable blocks only.
type variableFile struct {
	Variables []*variableBlock `hcl:"variable,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type variableBlock struct {
	Name        string     `hcl:"name,label"`
	Description string     `hcl:"description,optional"`
	Default     *cty.Value `hcl:"default,optional"`
}

// jobFile is the second pass, evaluated with var.* in scope.
type jobFile struct {
	Machine    string            `hcl:"machine,optional"`
	Operations []*operationBlock `hcl:"operation,block"`
}

type operationBlock struct {
	Name      string `hcl:"name,label"`
	Type      string `hcl:"type"`
	Direction string `hcl:"direction,optional"`

	RapidZ    float64 `hcl:"rapid_z"`
	StartZ    float64 `hcl:"start_z,optional"`
	EndZ      float64 `hcl:"end_z"`
	PassDepth float64 `hcl:"pass_depth"`
	TabDepth  float64 `hcl:"tab_depth,optional"`

	PlungeRate float64 `hcl:"plunge_rate"`
	CutRate    float64 `hcl:"cut_rate"`
	WearRatio  float64 `hcl:"wear_ratio"`
	ToolSpeed  float64 `hcl:"tool_speed,optional"`
	Ramp       bool    `hcl:"ramp,optional"`

	ToolDiameter float64  `hcl:"tool_diameter,optional"`
	StepOver     *float64 `hcl:"step_over,optional"`
	ToolAngle    float64  `hcl:"tool_angle,optional"`
	Margin       float64  `hcl:"margin,optional"`
	CutWidth     float64  `hcl:"cut_width,optional"`

	HookStart string `hcl:"hook_start,optional"`
	HookEnd   string `hcl:"hook_end,optional"`

	PathsFile string       `hcl:"paths_file,optional"`
	Paths     []*pathBlock `hcl:"path,block"`
	Tabs      []*tabBlock  `hcl:"tab,block"`
}

type pathBlock struct {
	Points      [][]float64 `hcl:"points"`
	SafeToClose bool        `hcl:"safe_to_close,optional"`
}

type tabBlock struct {
	Points [][]float64 `hcl:"points"`
}

// geometryFile is the YAML paths file layout.
type geometryFile struct {
	Paths []struct {
		SafeToClose bool        `yaml:"safe_to_close"`
		Points      [][]float64 `yaml:"points"`
	} `yaml:"paths"`
	Tabs [][][]float64 `yaml:"tabs"`
}
