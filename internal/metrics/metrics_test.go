package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Porta048/AutoCad-MCP/internal/cad"
	"github.com/Porta048/AutoCad-MCP/internal/dispatch"
)

func TestObserveCountsOutcomes(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())
	ctx := context.Background()

	m.Observe(ctx, dispatch.Event{
		Tool:           "draw_circle",
		Response:       dispatch.Response{Status: dispatch.StatusCompleted, Result: &cad.Result{Operation: "draw_circle"}},
		DriverDuration: 300 * time.Millisecond,
	})
	m.Observe(ctx, dispatch.Event{
		Tool: "draw_circle",
		Response: dispatch.Response{
			Status: dispatch.StatusRejected,
			Error:  &dispatch.ErrorBody{Kind: dispatch.KindValidationError},
		},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("draw_circle", "completed", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("draw_circle", "rejected", "validation_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.driverDuration), "rejections record no driver time")
}

func TestObserveCollapsesUnknownToolNames(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())
	ctx := context.Background()

	for _, name := range []string{"draw_hexagon", "x1", "x2"} {
		m.Observe(ctx, dispatch.Event{
			Tool: name,
			Response: dispatch.Response{
				Status: dispatch.StatusRejected,
				Error:  &dispatch.ErrorBody{Kind: dispatch.KindUnknownTool},
			},
		})
	}

	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues(UnknownTool, "rejected", "unknown_tool")))
}

func TestParseCacheHit(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())
	m.ParseCacheHit()
	m.ParseCacheHit()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.parseCacheHits))
}

func TestMustNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := MustNew(reg)
	second := MustNew(reg)

	first.ParseCacheHit()
	assert.Equal(t, 1.0, testutil.ToFloat64(second.parseCacheHits))
}
