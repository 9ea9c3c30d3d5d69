package domain_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/costdesk/internal/domain"
)

// staticDirectory is a fixed ClientDirectory for testing.
type staticDirectory map[string]domain.ClientInfo

func (d staticDirectory) Lookup(_ context.Context, clientID string) (domain.ClientInfo, bool) {
	info, found := d[clientID]
	return info, found
}

func (d staticDirectory) List(_ context.Context) []domain.ClientInfo {
	clients := make([]domain.ClientInfo, 0, len(d))
	for _, info := range d {
		clients = append(clients, info)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients
}

type reporterFixture struct {
	ledger   *domain.UsageLedger
	book     *domain.SubscriptionBook
	reporter *domain.AggregationReporter
}

func newReporterFixture(t *testing.T, directory domain.ClientDirectory, expectedClients int) reporterFixture {
	t.Helper()

	catalog := newTestCatalog(t)
	ledger := newTestLedger(t)
	book := domain.NewSubscriptionBook(catalog)

	return reporterFixture{
		ledger:   ledger,
		book:     book,
		reporter: domain.NewAggregationReporter(catalog, ledger, book, domain.NewAllocationEngine(), directory, expectedClients),
	}
}

func TestAggregationReporter_GetMonthlyOverview(t *testing.T) {
	ctx := context.Background()
	f := newReporterFixture(t, nil, 5)

	_, err := f.book.Create(ctx, domain.Subscription{ToolID: "higgsfield", BillingMonth: "2025-03", TotalCost: 6})
	require.NoError(t, err)
	_, err = f.book.Create(ctx, domain.Subscription{ToolID: "chatgpt", BillingMonth: "2025-03", TotalCost: 200})
	require.NoError(t, err)
	_, err = f.book.Create(ctx, domain.Subscription{
		ToolID: "elevenlabs", BillingMonth: "2025-03", TotalCost: 22, TotalCreditsAllotted: floatPtr(0),
	})
	require.NoError(t, err)
	_, err = f.book.Create(ctx, domain.Subscription{ToolID: "runway", BillingMonth: "2025-04", TotalCost: 15})
	require.NoError(t, err)

	for _, credits := range []float64{70, 60} {
		_, err = f.ledger.LogGeneration(ctx, domain.UsageEventInput{
			ToolID: "higgsfield", ClientID: "acme", ItemsGenerated: 1, CreditsUsed: floatPtr(credits),
		})
		require.NoError(t, err)
	}
	_, err = f.ledger.LogGeneration(ctx, domain.UsageEventInput{
		ToolID: "higgsfield", ClientID: "acme", ItemsGenerated: 1, CreditsUsed: floatPtr(500),
		Timestamp: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	overview, err := f.reporter.GetMonthlyOverview(ctx, "2025-03")
	require.NoError(t, err)

	require.Equal(t, "2025-03", overview.Month)
	require.InDelta(t, 228, overview.TotalCost, 0.0001)
	require.Len(t, overview.Subscriptions, 3)
	require.Equal(t, 2, overview.EventCount)
	require.InDelta(t, 130*0.06, overview.UsageCost, 0.0001)

	chatgpt := overview.Subscriptions[0]
	require.Equal(t, "chatgpt", chatgpt.ToolID)
	require.Equal(t, "ChatGPT", chatgpt.ToolName)
	require.Nil(t, chatgpt.CreditsTotal)
	require.Nil(t, chatgpt.CostPerCredit)
	require.False(t, chatgpt.OverAllotted)

	eleven := overview.Subscriptions[1]
	require.Equal(t, "elevenlabs", eleven.ToolID)
	require.NotNil(t, eleven.CreditsTotal)
	require.Nil(t, eleven.CostPerCredit)

	higgs := overview.Subscriptions[2]
	require.Equal(t, "higgsfield", higgs.ToolID)
	require.InDelta(t, 130, higgs.CreditsUsed, 0.0001)
	require.Zero(t, higgs.CreditsRemaining)
	require.True(t, higgs.OverAllotted)
	require.NotNil(t, higgs.CostPerCredit)
	require.InDelta(t, 0.06, *higgs.CostPerCredit, 0.0001)

	t.Run("month without subscriptions", func(t *testing.T) {
		empty, emptyErr := f.reporter.GetMonthlyOverview(ctx, "2024-01")
		require.NoError(t, emptyErr)
		require.Empty(t, empty.Subscriptions)
		require.Zero(t, empty.TotalCost)
	})

	t.Run("invalid month", func(t *testing.T) {
		_, badErr := f.reporter.GetMonthlyOverview(ctx, "2025/03")
		require.ErrorIs(t, badErr, domain.ErrInvalidMonth)
	})
}

func TestAggregationReporter_GetCostsByClient(t *testing.T) {
	ctx := context.Background()

	t.Run("merges usage with flat fee share", func(t *testing.T) {
		directory := staticDirectory{
			"acme":    {ID: "acme", Name: "Acme Studio", Company: "Acme Inc"},
			"initech": {ID: "initech", Name: "Initech", Company: ""},
		}
		f := newReporterFixture(t, directory, 5)

		_, err := f.ledger.LogGeneration(ctx, domain.UsageEventInput{
			ToolID: "freepik", ClientID: "acme", ItemsGenerated: 20, TierIndex: intPtr(2),
		})
		require.NoError(t, err)
		_, err = f.ledger.LogGeneration(ctx, domain.UsageEventInput{
			ToolID: "runway", ClientID: "globex", DurationSeconds: floatPtr(10),
		})
		require.NoError(t, err)

		summaries, err := f.reporter.GetCostsByClient(ctx, "")
		require.NoError(t, err)
		require.Len(t, summaries, 3)

		// (200 + 30) / 5 clients
		flatShare := 46.0

		require.Equal(t, "acme", summaries[0].ClientID)
		require.Equal(t, "Acme Studio", summaries[0].ClientName)
		require.Equal(t, "Acme Inc", summaries[0].Company)
		require.InDelta(t, 9.6, summaries[0].UsageCost, 0.0001)
		require.InDelta(t, flatShare, summaries[0].FlatFeeShare, 0.0001)
		require.InDelta(t, 9.6+flatShare, summaries[0].TotalCost, 0.0001)
		require.Equal(t, 1, summaries[0].EventCount)

		require.Equal(t, "globex", summaries[1].ClientID)
		require.Empty(t, summaries[1].ClientName)
		require.InDelta(t, 0.5+flatShare, summaries[1].TotalCost, 0.0001)

		require.Equal(t, "initech", summaries[2].ClientID)
		require.Zero(t, summaries[2].UsageCost)
		require.InDelta(t, flatShare, summaries[2].TotalCost, 0.0001)
	})

	t.Run("month subscription replaces catalog flat fee", func(t *testing.T) {
		f := newReporterFixture(t, nil, 2)

		_, err := f.book.Create(ctx, domain.Subscription{ToolID: "chatgpt", BillingMonth: "2025-03", TotalCost: 100})
		require.NoError(t, err)
		_, err = f.ledger.LogGeneration(ctx, domain.UsageEventInput{
			ToolID: "runway", ClientID: "acme", DurationSeconds: floatPtr(10),
		})
		require.NoError(t, err)
		_, err = f.ledger.LogGeneration(ctx, domain.UsageEventInput{
			ToolID: "runway", ClientID: "acme", DurationSeconds: floatPtr(10),
			Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		allocation, err := f.reporter.FlatFeeAllocation(ctx, "2025-03")
		require.NoError(t, err)
		require.InDelta(t, 65, allocation.FlatFeeTotalPerClient, 0.0001) // (100 + 30) / 2

		summaries, err := f.reporter.GetCostsByClient(ctx, "2025-03")
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		require.InDelta(t, 0.5, summaries[0].UsageCost, 0.0001)
		require.InDelta(t, 65.5, summaries[0].TotalCost, 0.0001)
	})

	t.Run("zero expected clients is clamped", func(t *testing.T) {
		f := newReporterFixture(t, nil, 0)

		allocation, err := f.reporter.FlatFeeAllocation(ctx, "")
		require.NoError(t, err)
		require.True(t, allocation.Clamped)
		require.InDelta(t, 230, allocation.FlatFeeTotalPerClient, 0.0001)
	})

	t.Run("ties sorted by client id", func(t *testing.T) {
		directory := staticDirectory{
			"b": {ID: "b", Name: "B"},
			"a": {ID: "a", Name: "A"},
		}
		f := newReporterFixture(t, directory, 1)

		summaries, err := f.reporter.GetCostsByClient(ctx, "")
		require.NoError(t, err)
		require.Equal(t, "a", summaries[0].ClientID)
		require.Equal(t, "b", summaries[1].ClientID)
	})

	t.Run("invalid month", func(t *testing.T) {
		f := newReporterFixture(t, nil, 1)

		_, err := f.reporter.GetCostsByClient(ctx, "13-2025")
		require.ErrorIs(t, err, domain.ErrInvalidMonth)
	})
}
