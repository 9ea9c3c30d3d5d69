package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/costdesk/internal/domain"
	"github.com/davidbz/costdesk/internal/store/redis"
)

func newTestStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewStore(client, "test:"), mr
}

func TestStore_Events(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	credits := 10.0
	first := domain.UsageEvent{
		ID:          "evt-2",
		ToolID:      "higgsfield",
		ClientID:    "acme",
		CreditsUsed: &credits,
		AutoCost:    0.6,
		Cost:        domain.AutoCost(0.6),
		Timestamp:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	second := domain.UsageEvent{
		ID:        "evt-1",
		ToolID:    "runway",
		ClientID:  "globex",
		AutoCost:  1,
		Cost:      domain.AutoCost(1),
		Timestamp: time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC),
	}

	t.Run("lists in recording order", func(t *testing.T) {
		require.NoError(t, store.SaveEvent(ctx, first))
		require.NoError(t, store.SaveEvent(ctx, second))

		events, err := store.ListEvents(ctx)
		require.NoError(t, err)
		require.Equal(t, []domain.UsageEvent{first, second}, events)
		require.True(t, mr.Exists("test:usage:events"))
	})

	t.Run("replacing keeps position and override state", func(t *testing.T) {
		overridden := first
		overridden.Cost = domain.OverrideCost(5)
		require.NoError(t, store.SaveEvent(ctx, overridden))

		events, err := store.ListEvents(ctx)
		require.NoError(t, err)
		require.Len(t, events, 2)
		require.Equal(t, "evt-2", events[0].ID)
		require.True(t, events[0].IsOverridden())
		require.InDelta(t, 5, events[0].FinalCost(), 0.0001)
		require.InDelta(t, 0.6, events[0].AutoCost, 0.0001)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteEvent(ctx, "evt-2"))

		events, err := store.ListEvents(ctx)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, "evt-1", events[0].ID)
	})
}

func TestStore_EmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Empty(t, events)

	_, err = mr.ZAdd("test:usage:timeline", 1, "orphan")
	require.NoError(t, err)
	events, err = store.ListEvents(ctx)
	require.NoError(t, err)
	require.Empty(t, events)

	mr.HSet("test:usage:events", "orphan", "{not json")
	_, err = store.ListEvents(ctx)
	require.Error(t, err)
}

func TestStore_Subscriptions(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	allotment := 100.0
	subs := []domain.Subscription{
		{ToolID: "runway", BillingMonth: "2025-04", TotalCost: 15},
		{ToolID: "higgsfield", BillingMonth: "2025-03", TotalCost: 6, TotalCreditsAllotted: &allotment},
		{ToolID: "chatgpt", BillingMonth: "2025-03", TotalCost: 200},
	}
	for _, sub := range subs {
		require.NoError(t, store.SaveSubscription(ctx, sub))
	}

	listed, err := store.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Subscription{subs[2], subs[1], subs[0]}, listed)

	require.NoError(t, store.DeleteSubscription(ctx, "chatgpt", "2025-03"))
	listed, err = store.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
}

func TestStore_ConnectionFailure(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	mr.Close()

	err := store.SaveEvent(ctx, domain.UsageEvent{ID: "x"})
	require.Error(t, err)

	_, err = store.ListSubscriptions(ctx)
	require.Error(t, err)
}
