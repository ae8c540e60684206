package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wirecam/pkg/history"
	"wirecam/pkg/metrics"
	"wirecam/pkg/operation"
)

const testJob = `
variable "depth" {
  default = 2
}

operation "outline" {
  type        = "cut"
  rapid_z     = 5
  end_z       = -var.depth
  pass_depth  = 1
  plunge_rate = 50
  cut_rate    = 100
  wear_ratio  = 0.1

  path {
    points = [[0, 0], [10, 0]]
  }
}

operation "shallow" {
  type        = "cut"
  rapid_z     = 5
  end_z       = -1
  pass_depth  = 1
  plunge_rate = 50
  cut_rate    = 100
  wear_ratio  = 0.1

  path {
    points = [[0, 0], [0, 10]]
  }
}
`

type testEnv struct {
	srv     *Server
	http    *httptest.Server
	store   *history.Store
	metrics *metrics.WireMetrics
}

func newTestEnv(t *testing.T, withHistory bool) *testEnv {
	t.Helper()
	env := &testEnv{metrics: metrics.NewWireMetrics()}
	if withHistory {
		store, err := history.OpenMemory()
		if err != nil {
			t.Fatalf("OpenMemory: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		env.store = store
	}
	env.srv = New(Config{History: env.store, Metrics: env.metrics})
	env.http = httptest.NewServer(env.srv.Handler())
	t.Cleanup(env.http.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.http.URL+path, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func (e *testEnv) compile(t *testing.T, req CompileRequest) CompileResponse {
	t.Helper()
	data, _ := json.Marshal(req)
	resp, err := http.Post(e.http.URL+"/wire/compile", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST /wire/compile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Result CompileResponse `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out.Result
}

func TestServerInfo(t *testing.T) {
	env := newTestEnv(t, true)
	status, body := env.do(t, http.MethodGet, "/server/info", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	result := body["result"].(map[string]any)
	if result["version"] != Version || result["history"] != true {
		t.Errorf("info = %v", result)
	}
	if types := result["operation_types"].([]any); len(types) != len(operation.Kinds) {
		t.Errorf("operation types = %v", types)
	}
}

func TestCompile(t *testing.T) {
	env := newTestEnv(t, true)
	resp := env.compile(t, CompileRequest{Job: testJob})
	if len(resp.Operations) != 2 {
		t.Fatalf("got %d operations", len(resp.Operations))
	}

	op := resp.Operations[0]
	if op.Operation != "outline" || op.Type != string(operation.Cut) {
		t.Errorf("operation = %+v", op)
	}
	if op.CutBlocks != 2 || op.PlungeBlocks != 3 || op.Violations != 0 || op.Paths != 1 {
		t.Errorf("counts = %+v", op)
	}
	if !strings.HasPrefix(op.Program, "\r\n;\r\n; Operation:    1\r\n") {
		t.Errorf("program starts %q", op.Program[:30])
	}
	if !strings.Contains(resp.Operations[1].Program, "; Operation:    2\r\n") {
		t.Error("second operation keeps its job index")
	}
	if _, err := uuid.Parse(op.RunID); err != nil {
		t.Errorf("run id %q: %v", op.RunID, err)
	}

	status, body := env.do(t, http.MethodGet, "/wire/history/"+op.RunID, nil)
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	run := body["result"].(map[string]any)["run"].(map[string]any)
	if run["status"] != history.StatusCompleted || run["program"] != op.Program {
		t.Errorf("run = %v", run)
	}
	if run["lines"] != float64(op.Lines) {
		t.Errorf("lines = %v, want %d", run["lines"], op.Lines)
	}

	status, body = env.do(t, http.MethodGet, "/wire/history?limit=1", nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	list := body["result"].(map[string]any)
	if list["count"] != float64(2) || len(list["runs"].([]any)) != 1 {
		t.Errorf("list = %v", list)
	}

	labels := metrics.Labels{"type": string(operation.Cut)}
	if got := env.metrics.ProgramsCompiled.Get(labels); got != 2 {
		t.Errorf("programs compiled = %d", got)
	}
}

func TestCompileSelectsOperation(t *testing.T) {
	env := newTestEnv(t, false)
	resp := env.compile(t, CompileRequest{
		Job:       testJob,
		Vars:      map[string]string{"depth": "3"},
		Operation: "outline",
	})
	if len(resp.Operations) != 1 || resp.Operations[0].Operation != "outline" {
		t.Fatalf("operations = %+v", resp.Operations)
	}
	op := resp.Operations[0]
	if op.CutBlocks != 3 || op.RunID != "" {
		t.Errorf("operation = %+v", op)
	}
}

func TestCompileErrors(t *testing.T) {
	invalid := strings.Replace(testJob, "pass_depth  = 1", "pass_depth  = 0", 1)

	tests := []struct {
		name string
		req  CompileRequest
	}{
		{"empty", CompileRequest{}},
		{"syntax", CompileRequest{Job: "operation {"}},
		{"unknown operation", CompileRequest{Job: testJob, Operation: "pocket"}},
		{"bad var", CompileRequest{Job: "variable \"x\" {}\n"}},
		{"invalid params", CompileRequest{Job: invalid, Operation: "outline"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, true)
			status, body := env.do(t, http.MethodPost, "/wire/compile", tt.req)
			if status != http.StatusBadRequest {
				t.Fatalf("status = %d, body %v", status, body)
			}
			if _, ok := body["error"].(map[string]any)["message"].(string); !ok {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestCompileInvalidParamsRecorded(t *testing.T) {
	env := newTestEnv(t, true)
	invalid := strings.Replace(testJob, "pass_depth  = 1", "pass_depth  = 0", 1)
	status, body := env.do(t, http.MethodPost, "/wire/compile", CompileRequest{Job: invalid, Operation: "outline"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	data, ok := body["error"].(map[string]any)["data"].([]any)
	if !ok || len(data) == 0 {
		t.Fatalf("error data = %v", body["error"])
	}
	if data[0].(map[string]any)["param"] != "pass_depth" {
		t.Errorf("first failure = %v", data[0])
	}

	_, body = env.do(t, http.MethodGet, "/wire/history", nil)
	runs := body["result"].(map[string]any)["runs"].([]any)
	if len(runs) != 1 {
		t.Fatalf("runs = %v", runs)
	}
	run := runs[0].(map[string]any)
	if run["status"] != history.StatusError || run["error"] == "" {
		t.Errorf("run = %v", run)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t, true)
	resp := env.compile(t, CompileRequest{Job: testJob, Operation: "shallow"})
	id := resp.Operations[0].RunID

	status, body := env.do(t, http.MethodGet, "/wire/history/totals", nil)
	if status != http.StatusOK {
		t.Fatalf("totals status = %d", status)
	}
	totals := body["result"].(map[string]any)["run_totals"].(map[string]any)
	if totals["total_runs"] != float64(1) {
		t.Errorf("totals = %v", totals)
	}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/wire/history/" + uuid.NewString(), http.StatusNotFound},
		{http.MethodGet, "/wire/history/nope", http.StatusBadRequest},
		{http.MethodGet, "/wire/history?limit=x", http.StatusBadRequest},
		{http.MethodDelete, "/wire/history/" + id, http.StatusOK},
		{http.MethodGet, "/wire/history/" + id, http.StatusNotFound},
	}
	for _, tt := range tests {
		if status, body := env.do(t, tt.method, tt.path, nil); status != tt.want {
			t.Errorf("%s %s = %d, want %d (%v)", tt.method, tt.path, status, tt.want, body)
		}
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t, false)
	status, _ := env.do(t, http.MethodGet, "/wire/history", nil)
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.compile(t, CompileRequest{Job: testJob, Operation: "outline"})

	resp, err := http.Get(env.http.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	want := fmt.Sprintf("wirecam_programs_compiled_total{type=%q} 1", string(operation.Cut))
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics missing %q:\n%s", want, body)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, false)
	req, _ := http.NewRequest(http.MethodOptions, env.http.URL+"/wire/compile", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("status %d, headers %v", resp.StatusCode, resp.Header)
	}
}

func TestJSONRPC(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		method string
		params any
		code   int
	}{
		{"server.info", nil, 0},
		{"wire.compile", CompileRequest{Job: testJob, Operation: "shallow"}, 0},
		{"wire.history", map[string]any{"limit": 5}, 0},
		{"wire.history.totals", nil, 0},
		{"wire.history", map[string]any{"run_id": "nope"}, codeInvalidParams},
		{"wire.compile", map[string]any{"job": 7}, codeInvalidParams},
		{"printer.info", nil, codeMethodNotFound},
	}
	for _, tt := range tests {
		req := map[string]any{"jsonrpc": "2.0", "method": tt.method, "id": 9}
		if tt.params != nil {
			req["params"] = tt.params
		}
		status, body := env.do(t, http.MethodPost, "/jsonrpc", req)
		if status != http.StatusOK {
			t.Fatalf("%s: status %d", tt.method, status)
		}
		if body["id"] != float64(9) {
			t.Errorf("%s: id = %v", tt.method, body["id"])
		}
		if tt.code == 0 {
			if body["error"] != nil || body["result"] == nil {
				t.Errorf("%s: body = %v", tt.method, body)
			}
			continue
		}
		rpcErr, ok := body["error"].(map[string]any)
		if !ok || rpcErr["code"] != float64(tt.code) {
			t.Errorf("%s: error = %v, want code %d", tt.method, body["error"], tt.code)
		}
	}
}

func TestJSONRPCParseError(t *testing.T) {
	env := newTestEnv(t, false)
	resp, err := http.Post(env.http.URL+"/jsonrpc", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	var out jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error == nil || out.Error.Code != codeParseError {
		t.Errorf("response = %+v", out)
	}
}

// wsMessage covers both responses and notifications.
type wsMessage struct {
	Method string          `json:"method"`
	Params []Progress      `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
	ID     any             `json:"id"`
}

func dialWS(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + env.http.URL[4:] + "/websocket"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketCompile(t *testing.T) {
	env := newTestEnv(t, true)
	conn := dialWS(t, env)

	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "wire.compile",
		"params":  CompileRequest{Job: testJob, Operation: "outline"},
		"id":      1,
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	var stages []string
	var runID string
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("failed to read message: %v", err)
		}
		if msg.Method == "notify_compile_progress" {
			if len(msg.Params) != 1 || msg.Params[0].Operation != "outline" {
				t.Fatalf("notification = %+v", msg)
			}
			stages = append(stages, msg.Params[0].Stage)
			runID = msg.Params[0].RunID
			continue
		}
		if msg.ID != float64(1) || msg.Error != nil {
			t.Fatalf("response = %+v", msg)
		}
		var resp CompileResponse
		if err := json.Unmarshal(msg.Result, &resp); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if len(resp.Operations) != 1 || resp.Operations[0].RunID != runID {
			t.Errorf("result = %+v, notified run %q", resp.Operations, runID)
		}
		break
	}

	if len(stages) != len(operation.Stages) {
		t.Fatalf("stages = %v", stages)
	}
	for i, st := range operation.Stages {
		if stages[i] != string(st) {
			t.Errorf("stage %d = %s, want %s", i, stages[i], st)
		}
	}
}

func TestWebSocketErrors(t *testing.T) {
	env := newTestEnv(t, false)
	conn := dialWS(t, env)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("send: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Error == nil || msg.Error.Code != codeParseError {
		t.Errorf("response = %+v", msg)
	}

	conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "method": "wire.history", "id": 2})
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msg = wsMessage{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Error == nil || msg.Error.Code != codeServerError {
		t.Errorf("history without a store = %+v", msg)
	}
}
