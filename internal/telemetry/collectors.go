package telemetry

import (
	"log/slog"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LogCollector writes each event as one structured log line.
type LogCollector struct {
	Logger *slog.Logger
}

func (c LogCollector) Collect(ev Event) error {
	attrs := []any{"event_id", ev.ID.String(), "error", ev.Err}
	keys := make([]string, 0, len(ev.Tags))
	for k := range ev.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, ev.Tags[k])
	}
	c.Logger.Error("Error reported", attrs...)
	return nil
}

// MetricsCollector counts events by the op and resource tags.
type MetricsCollector struct {
	errors *prometheus.CounterVec
}

func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		errors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "errors_total",
			Help:      "Errors reported to telemetry, by operation and resource.",
		}, []string{"op", "resource"}),
	}
}

func (c *MetricsCollector) Collect(ev Event) error {
	c.errors.WithLabelValues(ev.Tags["op"], ev.Tags["resource"]).Inc()
	return nil
}
