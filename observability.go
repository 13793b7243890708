package subwire

import (
	"log/slog"

	"github.com/arloliu/subwire/internal/logging"
	"github.com/arloliu/subwire/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return logging.NewNop()
}

// NewSlogLogger adapts an slog.Logger. A nil logger uses slog.Default().
//
// Example:
//
//	logger := subwire.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
//	listener, err := subwire.NewListener(&cfg, dialer, subwire.WithLogger(logger))
func NewSlogLogger(logger *slog.Logger) Logger {
	return logging.NewSlog(logger)
}

// NewZerologLogger adapts a zerolog.Logger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return logging.NewZerolog(logger)
}

// NewNopMetrics returns a collector that discards everything.
func NewNopMetrics() MetricsCollector {
	return metrics.NewNop()
}

// NewPrometheusMetrics returns a Prometheus-backed collector.
//
// Parameters:
//   - reg: Registerer for the collectors (prometheus.DefaultRegisterer if nil)
//   - namespace: Metric namespace ("subwire" if empty)
//
// Returns:
//   - MetricsCollector: Collector ready to pass to WithMetrics
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) MetricsCollector {
	return metrics.NewPrometheus(reg, namespace)
}
