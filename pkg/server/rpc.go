// JSON-RPC dispatch for the compile service
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"wirecam/pkg/errors"
	"wirecam/pkg/history"
)

// JSON-RPC 2.0 structures

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonRPCError `json:"error,omitempty"`
	ID      any           `json:"id,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type jsonRPCNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

var (
	errMethodNotFound = stderrors.New("method not found")
	errInvalidParams  = stderrors.New("invalid params")
)

// historyParams are the params of wire.history. A run_id selects a
// single run; otherwise the paging fields apply.
type historyParams struct {
	RunID  string  `json:"run_id"`
	Limit  int     `json:"limit"`
	Start  int     `json:"start"`
	Since  float64 `json:"since"`
	Before float64 `json:"before"`
	Order  string  `json:"order"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req jsonRPCRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeJSONRPCError(w, nil, &jsonRPCError{Code: codeParseError, Message: "Parse error"})
		return
	}

	result, err := s.dispatchMethod(r.Context(), req.Method, req.Params, nil)
	if err != nil {
		s.writeJSONRPCError(w, req.ID, rpcError(err))
		return
	}

	s.writeJSONRPCResult(w, req.ID, result)
}

// dispatchMethod routes a method call to the appropriate handler.
// Progress notifications go to client when the call came over a websocket.
func (s *Server) dispatchMethod(ctx context.Context, method string, params json.RawMessage, client *WSClient) (any, error) {
	switch method {
	case "server.info":
		return s.serverInfo(), nil
	case "wire.compile":
		return s.methodCompile(ctx, params, client)
	case "wire.history":
		return s.methodHistory(ctx, params)
	case "wire.history.totals":
		store, err := s.store()
		if err != nil {
			return nil, err
		}
		totals, err := store.Totals(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"run_totals": totals}, nil
	default:
		return nil, errMethodNotFound
	}
}

func (s *Server) methodCompile(ctx context.Context, params json.RawMessage, client *WSClient) (any, error) {
	var req CompileRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	var notify func(Progress)
	if client != nil {
		notify = func(p Progress) {
			client.Send(jsonRPCNotification{
				JSONRPC: "2.0",
				Method:  "notify_compile_progress",
				Params:  []any{p},
			})
		}
	}
	return s.compile(ctx, req, notify)
}

func (s *Server) methodHistory(ctx context.Context, params json.RawMessage) (any, error) {
	var p historyParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.RunID == "" {
		return s.historyList(ctx, history.Query{
			Limit:  p.Limit,
			Start:  p.Start,
			Since:  p.Since,
			Before: p.Before,
			Order:  p.Order,
		})
	}
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	run, err := store.Get(ctx, p.RunID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"run": run}, nil
}

func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return stderrors.Join(errInvalidParams, err)
	}
	return nil
}

// rpcError maps an error onto a JSON-RPC error object.
func rpcError(err error) *jsonRPCError {
	code := codeServerError
	switch {
	case stderrors.Is(err, errMethodNotFound):
		code = codeMethodNotFound
	case stderrors.Is(err, errInvalidParams), stderrors.Is(err, history.ErrInvalidID),
		errors.IsParam(err), errors.IsJob(err):
		code = codeInvalidParams
	default:
		logger.WithError(err).Warn("rpc call failed")
	}
	return &jsonRPCError{Code: code, Message: err.Error(), Data: errorData(err)}
}

func (s *Server) writeJSONRPCResult(w http.ResponseWriter, id any, result any) {
	s.writeJSON(w, jsonRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	})
}

func (s *Server) writeJSONRPCError(w http.ResponseWriter, id any, rpcErr *jsonRPCError) {
	s.writeJSON(w, jsonRPCResponse{
		JSONRPC: "2.0",
		Error:   rpcErr,
		ID:      id,
	})
}
