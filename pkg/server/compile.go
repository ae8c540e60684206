// Job compilation requests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"wirecam/pkg/errors"
	"wirecam/pkg/history"
	"wirecam/pkg/job"
	"wirecam/pkg/log"
	"wirecam/pkg/operation"
)

// requestFile names posted jobs in diagnostics.
const requestFile = "request.hcl"

// CompileRequest is the body of POST /wire/compile and the params of
// wire.compile.
type CompileRequest struct {
	Job       string            `json:"job"`
	Vars      map[string]string `json:"vars,omitempty"`
	Operation string            `json:"operation,omitempty"`
}

// CompiledOperation reports one compiled operation.
type CompiledOperation struct {
	RunID             string  `json:"run_id,omitempty"`
	Operation         string  `json:"operation"`
	Type              string  `json:"type"`
	Paths             int     `json:"paths"`
	Lines             int     `json:"lines"`
	CutBlocks         int     `json:"cut_blocks"`
	PlungeBlocks      int     `json:"plunge_blocks"`
	SubdivisionPoints int     `json:"subdivision_points"`
	Violations        int     `json:"violations"`
	Duration          float64 `json:"duration"`
	Program           string  `json:"program"`
}

// CompileResponse lists the compiled operations in job order.
type CompileResponse struct {
	Operations []CompiledOperation `json:"operations"`
}

// Progress is sent as notify_compile_progress while a compile runs.
type Progress struct {
	RunID     string `json:"run_id,omitempty"`
	Operation string `json:"operation"`
	Stage     string `json:"stage"`
}

// compile parses the posted job and runs the selected operations in order.
// The first failing operation aborts the request.
func (s *Server) compile(ctx context.Context, req CompileRequest, notify func(Progress)) (*CompileResponse, error) {
	if strings.TrimSpace(req.Job) == "" {
		return nil, errors.JobParseError(requestFile, stderrors.New("empty job"))
	}
	j, err := job.Parse([]byte(req.Job), requestFile, req.Vars)
	if err != nil {
		return nil, err
	}
	if j.Machine != "" {
		logger.Debug("ignoring machine %q in posted job", j.Machine)
	}

	resp := &CompileResponse{}
	for i, e := range j.Operations {
		if req.Operation != "" && e.Operation.Name != req.Operation {
			continue
		}
		out, err := s.compileOne(ctx, i+1, e, notify)
		if err != nil {
			return nil, err
		}
		resp.Operations = append(resp.Operations, *out)
	}
	if len(resp.Operations) == 0 {
		return nil, errors.JobDecodeError(requestFile, req.Operation,
			fmt.Errorf("no operation named %q", req.Operation))
	}
	return resp, nil
}

func (s *Server) compileOne(ctx context.Context, index int, e job.Entry, notify func(Progress)) (*CompiledOperation, error) {
	op := e.Operation

	var runID string
	if s.history != nil {
		run, err := s.history.Start(ctx, op.Name, string(op.Type))
		if err != nil {
			return nil, err
		}
		runID = run.RunID
	}

	res, err := operation.Run(ctx, op, e.Geometry, operation.Settings{
		Index:   index,
		Machine: s.machine,
		Metrics: s.metrics,
		Progress: func(st operation.Stage) {
			if notify != nil {
				notify(Progress{RunID: runID, Operation: op.Name, Stage: string(st)})
			}
		},
	})
	if runID != "" {
		s.record(ctx, runID, res, err)
	}
	if err != nil {
		return nil, err
	}

	return &CompiledOperation{
		RunID:             runID,
		Operation:         res.Operation,
		Type:              string(res.Type),
		Paths:             res.Paths,
		Lines:             len(res.Program),
		CutBlocks:         res.Wear.CutBlocks,
		PlungeBlocks:      res.Wear.PlungeBlocks,
		SubdivisionPoints: res.Wear.Inserted,
		Violations:        res.Report.Count,
		Duration:          res.Duration.Seconds(),
		Program:           res.Text,
	}, nil
}

// record closes a history run. It outlives a canceled request.
func (s *Server) record(ctx context.Context, id string, res *operation.Result, runErr error) {
	var out history.Outcome
	switch {
	case runErr != nil && errors.Is(runErr, errors.ErrRuntimeCanceled):
		out = history.Outcome{Status: history.StatusCancelled, Err: runErr}
	case runErr != nil:
		out = history.Outcome{Err: runErr}
	default:
		out = history.Outcome{
			Duration:   res.Duration,
			Lines:      len(res.Program),
			Violations: res.Report.Count,
			Program:    res.Text,
		}
	}
	if err := s.history.Finish(context.WithoutCancel(ctx), id, out); err != nil {
		logger.WithFields(log.Fields{"run_id": id}).WithError(err).Error("failed to record run")
	}
}

func (s *Server) store() (*history.Store, error) {
	if s.history == nil {
		return nil, errors.RuntimeStoreError("lookup", errHistoryDisabled)
	}
	return s.history, nil
}

var errHistoryDisabled = stderrors.New("history is disabled")

func (s *Server) historyList(ctx context.Context, q history.Query) (map[string]any, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	runs, err := store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	count, err := store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": count, "runs": runs}, nil
}

// httpStatus maps an error onto a REST status code.
func httpStatus(err error) int {
	switch {
	case stderrors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, history.ErrInvalidID), errors.IsParam(err), errors.IsJob(err):
		return http.StatusBadRequest
	case stderrors.Is(err, errHistoryDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorData lists the individual parameter failures, if any.
func errorData(err error) any {
	var params *errors.ParamErrors
	if !stderrors.As(err, &params) {
		return nil
	}
	out := make([]map[string]string, 0, len(params.Errors))
	for _, e := range params.Errors {
		out = append(out, map[string]string{"param": e.Option, "message": e.Message})
	}
	return out
}
