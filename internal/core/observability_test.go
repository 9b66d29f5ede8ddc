package core

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tripcore/pkg/domain"
)

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureLogger struct {
	mu       sync.Mutex
	messages []string
}

func (c *captureLogger) log(level, msg string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, level+" "+msg)
}

func (c *captureLogger) Debug(msg string, args ...any) { c.log("DEBUG", msg, args...) }
func (c *captureLogger) Info(msg string, args ...any)  { c.log("INFO", msg, args...) }
func (c *captureLogger) Warn(msg string, args ...any)  { c.log("WARN", msg, args...) }
func (c *captureLogger) Error(msg string, args ...any) { c.log("ERROR", msg, args...) }

func (c *captureLogger) has(fragment string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.messages {
		if strings.Contains(m, fragment) {
			return true
		}
	}
	return false
}

func TestServiceObservability(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := &captureLogger{}
	tracer := NewJSONTracer(nil)
	svc, _, _ := newTestService(t, WithMetricsRecorder(metrics), WithLogger(logger), WithTracer(tracer))
	ctx := context.Background()

	if err := svc.CreateProject(ctx, "Summer"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.CreateProject(ctx, "Summer"); !domain.IsValidation(err) {
		t.Fatalf("duplicate: %v", err)
	}
	svc.WaitForLines()

	if !metrics.has("create_project", true) {
		t.Fatalf("success not observed: %+v", metrics.calls)
	}
	if !metrics.has("create_project", false) {
		t.Fatalf("failure not observed: %+v", metrics.calls)
	}
	if !logger.has("INFO project created") {
		t.Fatalf("info log missing: %v", logger.messages)
	}
	if !logger.has("WARN operation failed") {
		t.Fatalf("warn log missing: %v", logger.messages)
	}

	var sawError bool
	for _, entry := range tracer.Entries() {
		if entry.Operation == "create_project" && entry.Status == "error" {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("tracer missed failed span: %+v", tracer.Entries())
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "add_feature", true, 5*time.Millisecond)
	rec.Observe(ctx, "add_feature", false, 2*time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	snap := rec.Snapshot()
	if snap.Results["add_feature"]["success"] != 1 || snap.Results["add_feature"]["error"] != 1 {
		t.Fatalf("results %+v", snap.Results)
	}
	if snap.DurationsMS["add_feature"] < 7 {
		t.Fatalf("durations %+v", snap.DurationsMS)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation recorded: %+v", snap.Results)
	}
	if rec.Name() == "" {
		t.Fatalf("expected generated name")
	}
}

func TestJSONTracerWritesEntries(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "switch_project")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "switch_project")
	span.End(context.DeadlineExceeded)

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries %+v", entries)
	}
	if entries[0].Status != "success" || entries[1].Status != "error" {
		t.Fatalf("statuses %+v", entries)
	}
	if !strings.Contains(buf.String(), `"operation":"switch_project"`) {
		t.Fatalf("encoded output %q", buf.String())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	rec.Observe(ctx, "add_line", true, 10*time.Millisecond)
	rec.Observe(ctx, "add_line", true, 20*time.Millisecond)
	rec.Observe(ctx, "add_line", false, time.Millisecond)

	if got := testutil.ToFloat64(rec.results.WithLabelValues("add_line", "success")); got != 2 {
		t.Fatalf("success counter %v", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("add_line", "error")); got != 1 {
		t.Fatalf("error counter %v", got)
	}
	if n := testutil.CollectAndCount(rec.durations); n == 0 {
		t.Fatalf("histogram not collected")
	}

	// Double registration must surface the registry error.
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
