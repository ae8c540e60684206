// Unit tests for Prometheus metrics implementation
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestCounterWithLabels(t *testing.T) {
	c := NewCounter("requests_total", "Total requests")

	get := Labels{"method": "GET", "status": "200"}
	post := Labels{"status": "500", "method": "POST"}

	c.Inc(get)
	c.Inc(get)
	c.Add(post, 5)

	if v := c.Get(get); v != 2 {
		t.Errorf("expected GET/200 count 2, got %d", v)
	}
	if v := c.Get(Labels{"method": "POST", "status": "500"}); v != 5 {
		t.Errorf("label order must not matter, got %d", v)
	}
	if v := c.Get(nil); v != 0 {
		t.Errorf("expected 0 for unknown labels, got %d", v)
	}
}

func TestCounterConcurrent(t *testing.T) {
	c := NewCounter("concurrent_total", "x")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Inc(nil)
			}
		}()
	}
	wg.Wait()
	if v := c.Get(nil); v != 5000 {
		t.Errorf("expected 5000, got %d", v)
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("active", "x")
	g.Inc(nil)
	g.Inc(nil)
	g.Dec(nil)
	g.Add(nil, 0.5)
	if v := g.Get(nil); v != 1.5 {
		t.Errorf("expected 1.5, got %v", v)
	}
}

func TestHistogramWrite(t *testing.T) {
	h := NewHistogram("latency_seconds", "Latency", []float64{1, 0.1})
	h.Observe(nil, 0.0625)
	h.Observe(nil, 0.5)
	h.Observe(nil, 4)

	if h.Count(nil) != 3 {
		t.Errorf("expected 3 observations, got %d", h.Count(nil))
	}

	var sb strings.Builder
	h.Write(&sb)
	out := sb.String()
	for _, want := range []string{
		"# TYPE latency_seconds histogram",
		`latency_seconds_bucket{le="0.1"} 1`,
		`latency_seconds_bucket{le="1"} 2`,
		`latency_seconds_bucket{le="+Inf"} 3`,
		"latency_seconds_sum 4.5625",
		"latency_seconds_count 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestExponentialBuckets(t *testing.T) {
	b := ExponentialBuckets(1, 2, 4)
	want := []float64{1, 2, 4, 8}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("bucket %d = %v, want %v", i, b[i], want[i])
		}
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewCounter("a", "x")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(NewGauge("a", "y")); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestLabelEscaping(t *testing.T) {
	got := Labels{"op": `a"b\c`}.String()
	if got != `{op="a\"b\\c"}` {
		t.Errorf("unexpected escaping: %s", got)
	}
}

func TestWireMetricsServeHTTP(t *testing.T) {
	m := NewWireMetrics()
	m.ProgramsCompiled.Inc(Labels{"type": "Virtual Wire ECM Cut"})
	m.SubdivisionPoints.Add(nil, 7)

	rec := httptest.NewRecorder()
	m.Registry.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `wirecam_programs_compiled_total{type="Virtual Wire ECM Cut"} 1`) {
		t.Errorf("missing compiled counter:\n%s", body)
	}
	if !strings.Contains(body, "wirecam_subdivision_points_total 7") {
		t.Errorf("missing subdivision counter:\n%s", body)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestGlobalIsSingleton(t *testing.T) {
	if Global() != Global() {
		t.Error("Global should return the same metrics")
	}
}
