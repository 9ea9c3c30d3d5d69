package observability_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidbz/costdesk/internal/observability"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, observability.GetClientID(ctx))
	require.Empty(t, observability.GetTraceID(ctx))

	ctx = observability.WithTraceID(ctx, "trace-1")
	ctx = observability.WithClientID(ctx, "acme")
	ctx = observability.WithToolID(ctx, "runway")

	require.Equal(t, "trace-1", observability.GetTraceID(ctx))
	require.Equal(t, "acme", observability.GetClientID(ctx))
	require.Equal(t, "runway", observability.GetToolID(ctx))

	require.NotEqual(t, observability.GenerateRequestID(), observability.GenerateRequestID())
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	observability.SetLogger(zap.New(core))
	t.Cleanup(func() { observability.SetLogger(zap.NewNop()) })

	ctx := observability.WithRequestID(context.Background(), "req-1")
	ctx = observability.WithClientID(ctx, "acme")
	ctx = observability.WithToolID(ctx, "freepik")

	observability.FromContext(ctx).Info("priced")

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, "acme", fields["client_id"])
	require.Equal(t, "freepik", fields["tool_id"])
	require.NotContains(t, fields, "trace_id")
}

func TestEventBus_Publish(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := observability.NewMetrics()
	bus := observability.NewEventBus(zap.New(core), metrics)

	ctx := observability.WithTraceID(context.Background(), "trace-9")
	bus.Publish(ctx, "usage.logged", map[string]interface{}{"event_id": "evt-1"})
	bus.Publish(ctx, "usage.logged", map[string]interface{}{"event_id": "evt-2"})
	bus.Publish(ctx, "subscription.created", nil)

	entries := logs.FilterMessage("domain event").All()
	require.Len(t, entries, 3)
	require.Equal(t, "usage.logged", entries[0].ContextMap()["event_type"])
	require.Equal(t, "evt-1", entries[0].ContextMap()["event_id"])
	require.Equal(t, "trace-9", entries[0].ContextMap()["trace_id"])

	series, err := testutil.GatherAndCount(metrics.Registry(), "costdesk_domain_events_total")
	require.NoError(t, err)
	require.Equal(t, 2, series)

	t.Run("nil collaborators are ignored", func(t *testing.T) {
		require.NotPanics(t, func() {
			observability.NewEventBus(nil, nil).Publish(context.Background(), "usage.logged", nil)
		})
	})
}

func TestMetrics_ObserveBreakdown(t *testing.T) {
	metrics := observability.NewMetrics()

	metrics.ObserveBreakdown(3.9, 2)
	metrics.ObserveBreakdown(12, 1)
	metrics.ObserveRequest("POST /v1/quotes", "2xx")

	count, err := testutil.GatherAndCount(metrics.Registry(),
		"costdesk_quote_total_cost",
		"costdesk_quote_invalid_items_total",
		"costdesk_http_requests_total",
	)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}
