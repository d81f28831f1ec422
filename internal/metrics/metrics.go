// Package metrics provides Prometheus counters and an OTel duration
// histogram for tool invocations and DATCOM pipeline stage outcomes:
// native Prometheus vectors for counts, an OTel meter for latency
// distributions.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/uavquery/queryengine/internal/metrics"

var (
	// ToolInvocationsTotal counts every tool dispatch by tool name and
	// outcome ("ok" or "error").
	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uavquery",
			Subsystem: "tools",
			Name:      "invocations_total",
			Help:      "Total tool invocations by tool name and outcome",
		},
		[]string{"tool", "outcome"},
	)

	// PipelineStageOutcomesTotal counts DATCOM pipeline stage
	// completions by stage name and outcome.
	PipelineStageOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uavquery",
			Subsystem: "datcom",
			Name:      "pipeline_stage_outcomes_total",
			Help:      "Total DATCOM pipeline stage completions by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// RetriesTotal counts retry attempts issued by the shared retry
	// helper, by calling component.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uavquery",
			Subsystem: "retry",
			Name:      "attempts_total",
			Help:      "Total retry attempts by component",
		},
		[]string{"component"},
	)
)

// ToolLatency records tool invocation duration as an OTel histogram.
type ToolLatency struct {
	meter    metric.Meter
	logger   *zap.Logger
	duration metric.Float64Histogram
}

// NewToolLatency builds the histogram instrument. A nil logger is
// replaced with a no-op logger.
func NewToolLatency(logger *zap.Logger) *ToolLatency {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &ToolLatency{meter: otel.Meter(instrumentationName), logger: logger}

	duration, err := m.meter.Float64Histogram(
		"uavquery.tool.invocation_duration_seconds",
		metric.WithDescription("Duration of a single tool invocation in seconds, labeled by tool name"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0),
	)
	if err != nil {
		m.logger.Warn("failed to create tool duration histogram", zap.Error(err))
	}
	m.duration = duration
	return m
}

// Record stores one invocation's duration and increments the
// Prometheus counter for its outcome.
func (m *ToolLatency) Record(ctx context.Context, tool string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ToolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
	if m.duration != nil {
		m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("tool", tool)))
	}
}
