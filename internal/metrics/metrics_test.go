package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestToolLatencyRecordIncrementsCounterByOutcome(t *testing.T) {
	latency := NewToolLatency(nil)

	before := testutil.ToFloat64(ToolInvocationsTotal.WithLabelValues("design_area_router", "ok"))
	latency.Record(context.Background(), "design_area_router", 5*time.Millisecond, nil)
	after := testutil.ToFloat64(ToolInvocationsTotal.WithLabelValues("design_area_router", "ok"))

	assert.Equal(t, before+1, after)
}

func TestToolLatencyRecordLabelsErrorsSeparately(t *testing.T) {
	latency := NewToolLatency(nil)

	before := testutil.ToFloat64(ToolInvocationsTotal.WithLabelValues("python_calculator", "error"))
	latency.Record(context.Background(), "python_calculator", time.Millisecond, assert.AnError)
	after := testutil.ToFloat64(ToolInvocationsTotal.WithLabelValues("python_calculator", "error"))

	assert.Equal(t, before+1, after)
}
