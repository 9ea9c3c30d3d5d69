package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/costdesk/internal/domain"
)

func TestLoadCatalog(t *testing.T) {
	t.Run("should reject duplicate tool ids", func(t *testing.T) {
		_, err := domain.LoadCatalog([]domain.Tool{
			{ID: "a", Name: "A", Category: domain.CategoryImage, Strategy: domain.PerSecond{Rate: 1}},
			{ID: "a", Name: "A2", Category: domain.CategoryImage, Strategy: domain.PerSecond{Rate: 2}},
		})
		require.ErrorIs(t, err, domain.ErrDuplicateTool)
	})

	t.Run("should reject empty tool id", func(t *testing.T) {
		_, err := domain.LoadCatalog([]domain.Tool{
			{ID: "", Name: "A", Category: domain.CategoryImage, Strategy: domain.PerSecond{Rate: 1}},
		})
		require.ErrorIs(t, err, domain.ErrEmptyToolID)
	})

	t.Run("should reject tiered pricing without tiers", func(t *testing.T) {
		_, err := domain.LoadCatalog([]domain.Tool{
			{ID: "a", Name: "A", Category: domain.CategoryImage, Strategy: domain.TieredPerUnit{}},
		})
		require.ErrorIs(t, err, domain.ErrInvalidStrategy)
	})

	t.Run("should reject negative rates", func(t *testing.T) {
		_, err := domain.LoadCatalog([]domain.Tool{
			{ID: "a", Name: "A", Category: domain.CategoryVideo, Strategy: domain.PerSecond{Rate: -1}},
		})
		require.ErrorIs(t, err, domain.ErrNegativeAmount)
	})

	t.Run("should reject missing strategy and unknown category", func(t *testing.T) {
		_, err := domain.LoadCatalog([]domain.Tool{{ID: "a", Name: "A", Category: domain.CategoryImage}})
		require.ErrorIs(t, err, domain.ErrInvalidStrategy)

		_, err = domain.LoadCatalog([]domain.Tool{
			{ID: "a", Name: "A", Category: "text", Strategy: domain.PerSecond{Rate: 1}},
		})
		require.Error(t, err)
	})

	t.Run("should list tools sorted by id", func(t *testing.T) {
		catalog := newTestCatalog(t)

		var ids []string
		for _, tool := range catalog.Tools() {
			ids = append(ids, tool.ID)
		}
		require.Equal(t, []string{"chatgpt", "elevenlabs", "freepik", "higgsfield", "midjourney", "runway"}, ids)
	})
}

func TestCatalog_UnitCost(t *testing.T) {
	catalog := newTestCatalog(t)

	tests := []struct {
		name          string
		toolID        string
		selector      domain.Selector
		expectedValid bool
		expectedCost  float64
		expectedLabel string
		reason        domain.InvalidReason
	}{
		{
			name:          "tier selected by index",
			toolID:        "freepik",
			selector:      domain.Selector{TierIndex: intPtr(2)},
			expectedValid: true,
			expectedCost:  0.48,
			expectedLabel: "High",
		},
		{
			name:     "tier index out of range",
			toolID:   "freepik",
			selector: domain.Selector{TierIndex: intPtr(3)},
			reason:   domain.ReasonTierOutOfRange,
		},
		{
			name:     "negative tier index",
			toolID:   "freepik",
			selector: domain.Selector{TierIndex: intPtr(-1)},
			reason:   domain.ReasonTierOutOfRange,
		},
		{
			name:     "tiered tool without selector",
			toolID:   "freepik",
			selector: domain.Selector{},
			reason:   domain.ReasonMissingDimension,
		},
		{
			name:          "per second ignores selector",
			toolID:        "runway",
			selector:      domain.Selector{TierIndex: intPtr(9)},
			expectedValid: true,
			expectedCost:  0.05,
		},
		{
			name:          "credit metered returns rate per credit",
			toolID:        "higgsfield",
			expectedValid: true,
			expectedCost:  0.06,
		},
		{
			name:          "flat fee returns monthly amount",
			toolID:        "chatgpt",
			expectedValid: true,
			expectedCost:  200,
		},
		{
			name:   "unknown tool",
			toolID: "nope",
			reason: domain.ReasonUnknownTool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := catalog.UnitCost(tt.toolID, tt.selector)

			require.Equal(t, tt.expectedValid, quote.Valid)
			require.Equal(t, tt.reason, quote.Reason)
			require.InDelta(t, tt.expectedCost, quote.Amount, 0.0001)
			require.Equal(t, tt.expectedLabel, quote.TierLabel)
		})
	}
}

func TestCatalog_Lookup(t *testing.T) {
	catalog := newTestCatalog(t)

	tool, found := catalog.Lookup("runway")
	require.True(t, found)
	require.Equal(t, "Runway", tool.Name)
	require.Equal(t, domain.KindPerSecond, tool.Strategy.Kind())

	_, found = catalog.Lookup("missing")
	require.False(t, found)

	flat := domain.FlatFeeTools(catalog)
	require.Len(t, flat, 2)
	require.Equal(t, "chatgpt", flat[0].ID)
	require.Equal(t, "midjourney", flat[1].ID)
}
