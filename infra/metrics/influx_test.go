package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/prodsched/core/metrics"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordRun(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rec := coremetrics.RunSummary{
		RunID:           "r1",
		Date:            day,
		StartedAt:       now,
		Duration:        1500 * time.Microsecond,
		State:           "done",
		Feasible:        true,
		Orders:          3,
		Workers:         5,
		Tasks:           9,
		Recommendations: 1,
		Utilization:     0.6,
	}
	if err := sink.RecordRun(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("schedule_run").
		AddTag("run_id", "r1").
		AddTag("date", "2024-03-04").
		AddTag("state", "done").
		AddTag("feasible", "true").
		AddTag("component", "scheduler").
		AddField("orders", 3).
		AddField("workers", 5).
		AddField("tasks", 9).
		AddField("issues", 0).
		AddField("recommendations", 1).
		AddField("utilization", 0.6).
		AddField("duration_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected body: %#v", got)
	}
}

func TestInfluxSink_RecordWorkerLoad(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	loads := []coremetrics.WorkerLoad{{WorkerID: "w1", Date: day, Hours: 2.25, Tasks: 2}, {WorkerID: "w2", Date: day, Hours: 1, Tasks: 1}}
	if err := sink.RecordWorkerLoad(loads); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("worker_load").
		AddTag("worker_id", "w1").
		AddField("hours", 2.25).
		AddField("tasks", 2).
		SetTime(day)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 2 || got[0] != exp {
		t.Errorf("bodies: %#v", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestFactory_CreatesSinks(t *testing.T) {
	s, err := coremetrics.NewRunSink(nil)
	if err != nil {
		t.Fatalf("nil config: %v", err)
	}
	if _, ok := s.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
	s, err = coremetrics.NewRunSink(nopConfigs(2))
	if err != nil {
		t.Fatalf("multi config: %v", err)
	}
	if m, ok := s.(*coremetrics.MultiSink); !ok || len(m.Sinks) != 2 {
		t.Fatalf("expected MultiSink with 2 sinks, got %T", s)
	}
}
