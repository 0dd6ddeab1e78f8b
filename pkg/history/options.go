package history

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for History spans.
const defaultTracerName = "navhist"

// config holds the optional collaborators of a History.
type config struct {
	logger          *slog.Logger
	tracer          trace.Tracer
	metrics         *Metrics
	discardOnCancel bool
}

// Option configures a History.
type Option func(*config)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for drain spans.
// Default: the global OpenTelemetry tracer named "navhist".
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		c.tracer = tracer
	}
}

// WithMetrics records navigation metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithDiscardOnCancel drops queued navigations when a blocker cancels.
// By default they stay queued and are applied by the next flush.
func WithDiscardOnCancel() Option {
	return func(c *config) {
		c.discardOnCancel = true
	}
}

func defaultConfig() config {
	return config{
		logger: slog.Default().With("component", "history"),
		tracer: otel.Tracer(defaultTracerName),
	}
}
