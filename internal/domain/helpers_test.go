package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/costdesk/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// newTestCatalog builds a catalog with one tool of every strategy.
func newTestCatalog(t *testing.T) *domain.Catalog {
	t.Helper()

	catalog, err := domain.LoadCatalog([]domain.Tool{
		{
			ID:       "freepik",
			Name:     "Freepik",
			Category: domain.CategoryImage,
			Strategy: domain.TieredPerUnit{Tiers: []domain.Tier{
				{Label: "Low", UnitCost: 0.12},
				{Label: "Medium", UnitCost: 0.24},
				{Label: "High", UnitCost: 0.48},
			}},
		},
		{
			ID:       "chatgpt",
			Name:     "ChatGPT",
			Category: domain.CategoryBundle,
			Strategy: domain.FlatMonthlyFee{Amount: 200},
		},
		{
			ID:       "midjourney",
			Name:     "Midjourney",
			Category: domain.CategoryImage,
			Strategy: domain.FlatMonthlyFee{Amount: 30},
		},
		{
			ID:       "runway",
			Name:     "Runway",
			Category: domain.CategoryVideo,
			Strategy: domain.PerSecond{Rate: 0.05},
		},
		{
			ID:       "higgsfield",
			Name:     "Higgsfield",
			Category: domain.CategoryVideo,
			Strategy: domain.CreditMetered{
				RatePerCredit:        0.06,
				TotalCreditsAllotted: floatPtr(100),
				CreditsPerItem:       nil,
			},
		},
		{
			ID:       "elevenlabs",
			Name:     "ElevenLabs",
			Category: domain.CategoryAudio,
			Strategy: domain.CreditMetered{
				RatePerCredit:        0.01,
				TotalCreditsAllotted: nil,
				CreditsPerItem:       floatPtr(4),
			},
		},
	})
	require.NoError(t, err)

	return catalog
}
