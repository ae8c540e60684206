// Compile service HTTP server
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package server provides the wirecam compile service.
// Jobs are posted as HCL text over HTTP or a JSON-RPC websocket, compiled
// into wear-compensated programs and recorded in the run history.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"wirecam/pkg/config"
	"wirecam/pkg/history"
	"wirecam/pkg/log"
	"wirecam/pkg/metrics"
	"wirecam/pkg/operation"
)

// Version is reported by server.info.
const Version = "0.3.0"

// maxRequestBody bounds a posted job.
const maxRequestBody = 8 << 20

var logger = log.GetLogger("server")

// Server is the compile service.
type Server struct {
	machine *config.MachineConfig
	history *history.Store
	metrics *metrics.WireMetrics

	// HTTP server
	httpServer *http.Server
	addr       string
	router     chi.Router

	// WebSocket management
	wsUpgrader websocket.Upgrader
	wsClients  map[int64]*WSClient
	wsClientMu sync.RWMutex
	nextWSID   int64

	// Server state
	running   atomic.Bool
	startTime time.Time
}

// Config holds server configuration.
type Config struct {
	// HTTP address to listen on (e.g., ":7130")
	Addr string

	// Machine settings applied to every compile; nil uses the defaults
	Machine *config.MachineConfig

	// Run ledger; nil disables history
	History *history.Store

	// Metrics sink; nil uses the process-wide metrics
	Metrics *metrics.WireMetrics
}

// New creates a compile server.
func New(cfg Config) *Server {
	s := &Server{
		machine:   cfg.Machine,
		history:   cfg.History,
		metrics:   cfg.Metrics,
		addr:      cfg.Addr,
		wsClients: make(map[int64]*WSClient),
		startTime: time.Now(),
	}
	if s.machine == nil {
		s.machine = config.DefaultMachine()
	}
	if s.metrics == nil {
		s.metrics = metrics.Global()
	}

	s.wsUpgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Post("/jsonrpc", s.handleJSONRPC)
	r.Get("/websocket", s.handleWebSocket)

	r.Get("/server/info", s.handleServerInfo)
	r.Method(http.MethodGet, "/metrics", s.metrics.Registry)

	r.Route("/wire", func(r chi.Router) {
		r.Post("/compile", s.handleCompile)
		r.Get("/history", s.handleHistoryList)
		r.Get("/history/totals", s.handleHistoryTotals)
		r.Get("/history/{id}", s.handleHistoryGet)
		r.Delete("/history/{id}", s.handleHistoryDelete)
	})
	return r
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server. It blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.running.Store(true)
	logger.Info("compile server starting on %s", s.addr)

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop closes every websocket client and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.running.Store(false)

	s.wsClientMu.Lock()
	for _, client := range s.wsClients {
		client.Close()
	}
	s.wsClients = make(map[int64]*WSClient)
	s.wsClientMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) serverInfo() map[string]any {
	s.wsClientMu.RLock()
	clients := len(s.wsClients)
	s.wsClientMu.RUnlock()

	return map[string]any{
		"version":         Version,
		"uptime":          time.Since(s.startTime).Seconds(),
		"websocket_count": clients,
		"history":         s.history != nil,
		"operation_types": operation.Kinds,
		"feed_units":      s.machine.Feed.Units,
		"decimal_places":  s.machine.Output.DecimalPlaces,
	}
}

// REST handlers

func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"result": s.serverInfo()})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeJSONStatus(w, http.StatusBadRequest, errorBody(http.StatusBadRequest, "invalid request body: "+err.Error(), nil))
		return
	}

	resp, err := s.compile(r.Context(), req, nil)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"result": resp})
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeJSONStatus(w, http.StatusBadRequest, errorBody(http.StatusBadRequest, err.Error(), nil))
		return
	}
	result, err := s.historyList(r.Context(), q)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"result": result})
}

func (s *Server) handleHistoryTotals(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	totals, err := store.Totals(r.Context())
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"result": map[string]any{"run_totals": totals}})
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	run, err := store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"result": map[string]any{"run": run}})
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := store.Delete(r.Context(), id); err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"result": map[string]any{"deleted_runs": []string{id}}})
}

// parseQuery reads list paging and filters from the URL query.
func parseQuery(r *http.Request) (history.Query, error) {
	var q history.Query
	v := r.URL.Query()
	ints := []struct {
		name string
		dst  *int
	}{{"limit", &q.Limit}, {"start", &q.Start}}
	for _, p := range ints {
		if s := v.Get(p.name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return q, &queryError{p.name, s}
			}
			*p.dst = n
		}
	}
	floats := []struct {
		name string
		dst  *float64
	}{{"since", &q.Since}, {"before", &q.Before}}
	for _, p := range floats {
		if s := v.Get(p.name); s != "" {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return q, &queryError{p.name, s}
			}
			*p.dst = f
		}
	}
	q.Order = v.Get("order")
	return q, nil
}

type queryError struct {
	name, value string
}

func (e *queryError) Error() string {
	return "invalid " + e.name + ": " + strconv.Quote(e.value)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// JSON response helpers

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	s.writeJSONStatus(w, http.StatusOK, data)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("response write failed: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).Error("request failed")
	}
	s.writeJSONStatus(w, status, errorBody(status, err.Error(), errorData(err)))
}

func errorBody(code int, message string, data any) map[string]any {
	e := map[string]any{
		"code":    code,
		"message": message,
	}
	if data != nil {
		e["data"] = data
	}
	return map[string]any{"error": e}
}
