package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/costdesk/internal/domain"
)

func TestSubscriptionBook_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("one subscription per tool and month", func(t *testing.T) {
		book := domain.NewSubscriptionBook(newTestCatalog(t))

		_, err := book.Create(ctx, domain.Subscription{ToolID: "chatgpt", BillingMonth: "2025-03", TotalCost: 200})
		require.NoError(t, err)

		_, err = book.Create(ctx, domain.Subscription{ToolID: "chatgpt", BillingMonth: "2025-03", TotalCost: 220})
		require.ErrorIs(t, err, domain.ErrSubscriptionExists)

		_, err = book.Create(ctx, domain.Subscription{ToolID: "chatgpt", BillingMonth: "2025-04", TotalCost: 200})
		require.NoError(t, err)

		require.Len(t, book.ForMonth("2025-03"), 1)
		require.Len(t, book.ForMonth("2025-04"), 1)
	})

	t.Run("inherits catalog credit allotment", func(t *testing.T) {
		book := domain.NewSubscriptionBook(newTestCatalog(t))

		sub, err := book.Create(ctx, domain.Subscription{ToolID: "higgsfield", BillingMonth: "2025-03", TotalCost: 6})
		require.NoError(t, err)
		require.NotNil(t, sub.TotalCreditsAllotted)
		require.InDelta(t, 100, *sub.TotalCreditsAllotted, 0.0001)

		explicit, err := book.Create(ctx, domain.Subscription{
			ToolID: "higgsfield", BillingMonth: "2025-04", TotalCost: 6, TotalCreditsAllotted: floatPtr(250),
		})
		require.NoError(t, err)
		require.InDelta(t, 250, *explicit.TotalCreditsAllotted, 0.0001)
	})

	t.Run("validates input", func(t *testing.T) {
		book := domain.NewSubscriptionBook(newTestCatalog(t))

		_, err := book.Create(ctx, domain.Subscription{ToolID: "ghost", BillingMonth: "2025-03"})
		require.ErrorIs(t, err, domain.ErrUnknownTool)

		_, err = book.Create(ctx, domain.Subscription{ToolID: "chatgpt", BillingMonth: "March"})
		require.ErrorIs(t, err, domain.ErrInvalidMonth)

		_, err = book.Create(ctx, domain.Subscription{ToolID: "chatgpt", BillingMonth: "2025-03", TotalCost: -5})
		require.ErrorIs(t, err, domain.ErrNegativeAmount)

		_, err = book.Create(ctx, domain.Subscription{BillingMonth: "2025-03"})
		require.ErrorIs(t, err, domain.ErrEmptyToolID)
	})

	t.Run("delete", func(t *testing.T) {
		book := domain.NewSubscriptionBook(newTestCatalog(t))

		_, err := book.Create(ctx, domain.Subscription{ToolID: "runway", BillingMonth: "2025-03", TotalCost: 15})
		require.NoError(t, err)

		removed, err := book.Delete(ctx, "runway", "2025-03")
		require.NoError(t, err)
		require.Equal(t, "runway", removed.ToolID)

		_, found := book.Get("runway", "2025-03")
		require.False(t, found)

		_, err = book.Delete(ctx, "runway", "2025-03")
		require.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
	})
}

func TestSubscriptionBook_Restore(t *testing.T) {
	t.Run("restores valid subscriptions", func(t *testing.T) {
		book := domain.NewSubscriptionBook(newTestCatalog(t))

		require.NoError(t, book.Restore([]domain.Subscription{
			{ToolID: "chatgpt", BillingMonth: "2025-03", TotalCost: 200},
			{ToolID: "higgsfield", BillingMonth: "2025-03", TotalCost: 6},
		}))

		subs := book.ForMonth("2025-03")
		require.Len(t, subs, 2)
		require.NotNil(t, subs[1].TotalCreditsAllotted)
		require.InDelta(t, 100, *subs[1].TotalCreditsAllotted, 0.0001)
	})

	t.Run("rejects what Create rejects", func(t *testing.T) {
		tests := []struct {
			name string
			sub  domain.Subscription
			err  error
		}{
			{"unknown tool", domain.Subscription{ToolID: "nope", BillingMonth: "2025-03"}, domain.ErrUnknownTool},
			{"malformed month", domain.Subscription{ToolID: "chatgpt", BillingMonth: "March"}, domain.ErrInvalidMonth},
			{"negative cost", domain.Subscription{ToolID: "chatgpt", BillingMonth: "2025-03", TotalCost: -5}, domain.ErrNegativeAmount},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				book := domain.NewSubscriptionBook(newTestCatalog(t))
				require.ErrorIs(t, book.Restore([]domain.Subscription{tt.sub}), tt.err)
				require.Empty(t, book.ForMonth("2025-03"))
			})
		}
	})
}

func TestCreditsRemaining(t *testing.T) {
	tests := []struct {
		name         string
		allotted     float64
		used         float64
		remaining    float64
		overAllotted bool
	}{
		{name: "under allotment", allotted: 100, used: 40, remaining: 60, overAllotted: false},
		{name: "exactly used up", allotted: 100, used: 100, remaining: 0, overAllotted: false},
		{name: "over allotment clamps to zero", allotted: 100, used: 130, remaining: 0, overAllotted: true},
		{name: "zero allotment with usage", allotted: 0, used: 1, remaining: 0, overAllotted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, over := domain.CreditsRemaining(tt.allotted, tt.used)
			require.InDelta(t, tt.remaining, remaining, 0.0001)
			require.GreaterOrEqual(t, remaining, 0.0)
			require.Equal(t, tt.overAllotted, over)
		})
	}
}
