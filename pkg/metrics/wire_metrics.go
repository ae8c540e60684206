// Pipeline metrics definitions
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import "sync"

// WireMetrics holds the counters recorded by one compile pipeline run.
type WireMetrics struct {
	Registry *Registry

	ProgramsCompiled  *Counter
	CompileFailures   *Counter
	CutBlocks         *Counter
	PlungeBlocks      *Counter
	SubdivisionPoints *Counter
	DepthViolations   *Counter
	ProgramLines      *Counter
	RunDuration       *Histogram
	ActiveRuns        *Gauge
}

// NewWireMetrics creates and registers the pipeline metrics in a fresh registry.
func NewWireMetrics() *WireMetrics {
	m := &WireMetrics{
		Registry:          NewRegistry(),
		ProgramsCompiled:  NewCounter("wirecam_programs_compiled_total", "Programs produced by the compile pipeline"),
		CompileFailures:   NewCounter("wirecam_compile_failures_total", "Compile runs rejected or aborted"),
		CutBlocks:         NewCounter("wirecam_cut_blocks_total", "Cut blocks wear-compensated"),
		PlungeBlocks:      NewCounter("wirecam_plunge_blocks_total", "Plunge blocks re-fed"),
		SubdivisionPoints: NewCounter("wirecam_subdivision_points_total", "Intermediate points inserted by cut subdivision"),
		DepthViolations:   NewCounter("wirecam_depth_violations_total", "Depth increases found by the validator"),
		ProgramLines:      NewCounter("wirecam_program_lines_total", "Lines emitted in final programs"),
		RunDuration:       NewHistogram("wirecam_run_duration_seconds", "Wall time of a full compile run", ExponentialBuckets(0.001, 4, 8)),
		ActiveRuns:        NewGauge("wirecam_active_runs", "Compile runs in progress"),
	}
	for _, metric := range []Metric{
		m.ProgramsCompiled, m.CompileFailures, m.CutBlocks, m.PlungeBlocks,
		m.SubdivisionPoints, m.DepthViolations, m.ProgramLines, m.RunDuration, m.ActiveRuns,
	} {
		m.Registry.MustRegister(metric)
	}
	return m
}

var (
	globalMetrics     *WireMetrics
	globalMetricsOnce sync.Once
)

// Global returns the process wide pipeline metrics.
func Global() *WireMetrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = NewWireMetrics()
	})
	return globalMetrics
}
