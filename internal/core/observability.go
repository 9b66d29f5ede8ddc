package core

import (
	"context"
	"time"
)

// Logger receives structured log events from the service. Implementations
// must be safe for concurrent use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsRecorder aggregates operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a span started by a Tracer.
type TraceSpan interface {
	End(err error)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// ServiceOption customizes a Service at construction time.
type ServiceOption func(*Service)

// WithLogger installs a logger; nil restores the no-op logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger == nil {
			logger = noopLogger{}
		}
		s.logger = logger
	}
}

// WithMetricsRecorder installs a metrics recorder; nil restores the no-op
// recorder.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec == nil {
			rec = noopMetrics{}
		}
		s.metrics = rec
	}
}

// WithTracer installs a tracer; nil restores the no-op tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer == nil {
			tracer = noopTracer{}
		}
		s.tracer = tracer
	}
}

// observe wraps a service operation with tracing, metrics, and error logging.
func (s *Service) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("operation failed", "operation", operation, "error", err)
	}
	return err
}
