package core

import (
	"context"
	"log/slog"
	"time"
)

// Logger is the minimal structured logging surface the service needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoopLogger discards all log output. It is the default when no logger is
// configured.
type NoopLogger struct{}

// NewNoopLogger returns a logger that drops everything.
func NewNoopLogger() NoopLogger { return NoopLogger{} }

func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}

// SlogLogger adapts a *slog.Logger to the service Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps the provided slog logger; nil falls back to slog.Default.
func NewSlogLogger(logger *slog.Logger) SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return SlogLogger{logger: logger}
}

func (l SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan finalizes a single traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// AuditStatus is the outcome recorded for an audited operation.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry captures one service mutation for the audit trail.
type AuditEntry struct {
	Operation  string      `json:"operation"`
	Entity     EntityType  `json:"entity,omitempty"`
	EntityID   string      `json:"entity_id,omitempty"`
	Status     AuditStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
	At         time.Time   `json:"at"`
}

// AuditRecorder receives audit entries emitted by the service.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger wires a structured logger into the service.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder wires a metrics recorder into the service.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = recorder }
}

// WithTracer wires a tracer into the service.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tracer }
}

// WithAuditRecorder wires an audit recorder into the service.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) { s.audit = recorder }
}

// WithNowFunc overrides the service clock. Tests use it to pin "today".
func WithNowFunc(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}
