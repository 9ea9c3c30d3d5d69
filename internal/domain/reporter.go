package domain

import (
	"context"
	"fmt"
	"sort"

	"github.com/davidbz/costdesk/internal/observability"
)

// AggregationReporter derives reconciliation views from the ledger, the
// subscription book and flat-fee allocation. Nothing it returns is stored.
type AggregationReporter struct {
	catalog         PricingCatalog
	ledger          *UsageLedger
	book            *SubscriptionBook
	allocator       *AllocationEngine
	directory       ClientDirectory
	expectedClients int
}

// NewAggregationReporter creates a reporter. directory may be nil.
func NewAggregationReporter(
	catalog PricingCatalog,
	ledger *UsageLedger,
	book *SubscriptionBook,
	allocator *AllocationEngine,
	directory ClientDirectory,
	expectedClients int,
) *AggregationReporter {
	return &AggregationReporter{
		catalog:         catalog,
		ledger:          ledger,
		book:            book,
		allocator:       allocator,
		directory:       directory,
		expectedClients: expectedClients,
	}
}

// GetMonthlyOverview reconciles a month's subscriptions against the credits
// logged for each tool in that month.
func (r *AggregationReporter) GetMonthlyOverview(ctx context.Context, month string) (MonthlyOverview, error) {
	if _, err := ParseMonth(month); err != nil {
		return MonthlyOverview{}, err
	}

	events := r.ledger.EventsForMonth(month)
	creditsByTool := make(map[string]float64)
	for _, e := range events {
		if e.CreditsUsed != nil {
			creditsByTool[e.ToolID] += *e.CreditsUsed
		}
	}

	usage := SumUsage(events)
	overview := MonthlyOverview{
		Month:         month,
		TotalCost:     0,
		Subscriptions: []SubscriptionUsage{},
		UsageCost:     usage.FinalCost,
		EventCount:    usage.EventCount,
	}

	for _, sub := range r.book.ForMonth(month) {
		line := r.subscriptionUsage(sub, creditsByTool[sub.ToolID])
		if line.OverAllotted {
			observability.FromContext(ctx).Warn("credit allotment exceeded",
				observability.String("tool_id", sub.ToolID),
				observability.String("billing_month", month),
				observability.Float64("credits_used", line.CreditsUsed))
		}
		overview.TotalCost += sub.TotalCost
		overview.Subscriptions = append(overview.Subscriptions, line)
	}

	return overview, nil
}

func (r *AggregationReporter) subscriptionUsage(sub Subscription, creditsUsed float64) SubscriptionUsage {
	line := SubscriptionUsage{
		ToolID:       sub.ToolID,
		ToolName:     sub.ToolID,
		Cost:         sub.TotalCost,
		CreditsTotal: sub.TotalCreditsAllotted,
		CreditsUsed:  creditsUsed,
	}
	if tool, exists := r.catalog.Lookup(sub.ToolID); exists {
		line.ToolName = tool.Name
	}

	if sub.TotalCreditsAllotted == nil {
		return line
	}

	total := *sub.TotalCreditsAllotted
	line.CreditsRemaining, line.OverAllotted = CreditsRemaining(total, creditsUsed)
	if total != 0 {
		perCredit := sub.TotalCost / total
		line.CostPerCredit = &perCredit
	}

	return line
}

// FlatFeeAllocation splits the catalog's flat-fee tools across the expected
// client count. A month's subscription cost replaces the catalog amount for
// that tool; an empty month uses catalog amounts only.
func (r *AggregationReporter) FlatFeeAllocation(ctx context.Context, month string) (AllocationResult, error) {
	flat := FlatFeeTools(r.catalog)
	requests := make([]FlatFeeRequest, 0, len(flat))

	for _, tool := range flat {
		fee, _ := tool.Strategy.(FlatMonthlyFee)
		cost := fee.Amount
		if month != "" {
			if sub, exists := r.book.Get(tool.ID, month); exists {
				cost = sub.TotalCost
			}
		}
		requests = append(requests, FlatFeeRequest{ToolID: tool.ID, MonthlyCost: cost})
	}

	result, err := r.allocator.Allocate(ctx, requests, r.expectedClients)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("flat fee allocation failed: %w", err)
	}

	return result, nil
}

// GetCostsByClient merges each client's usage cost with the per-client flat
// fee share. An empty month covers all recorded usage. Results are sorted by
// total cost, highest first.
func (r *AggregationReporter) GetCostsByClient(ctx context.Context, month string) ([]ClientCostSummary, error) {
	var events []UsageEvent
	if month == "" {
		events = r.ledger.Events()
	} else {
		if _, err := ParseMonth(month); err != nil {
			return nil, err
		}
		events = r.ledger.EventsForMonth(month)
	}

	allocation, err := r.FlatFeeAllocation(ctx, month)
	if err != nil {
		return nil, err
	}

	byClient := make(map[string]*ClientCostSummary)
	summaryFor := func(clientID string) *ClientCostSummary {
		summary, exists := byClient[clientID]
		if !exists {
			summary = &ClientCostSummary{ClientID: clientID}
			byClient[clientID] = summary
		}
		return summary
	}

	for _, e := range events {
		summary := summaryFor(e.ClientID)
		summary.UsageCost += e.FinalCost()
		summary.EventCount++
	}

	if r.directory != nil {
		for _, client := range r.directory.List(ctx) {
			summaryFor(client.ID)
		}
	}

	summaries := make([]ClientCostSummary, 0, len(byClient))
	for _, summary := range byClient {
		summary.FlatFeeShare = allocation.FlatFeeTotalPerClient
		summary.TotalCost = summary.UsageCost + summary.FlatFeeShare
		if r.directory != nil {
			if info, found := r.directory.Lookup(ctx, summary.ClientID); found {
				summary.ClientName = info.Name
				summary.Company = info.Company
			}
		}
		summaries = append(summaries, *summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalCost != summaries[j].TotalCost {
			return summaries[i].TotalCost > summaries[j].TotalCost
		}
		return summaries[i].ClientID < summaries[j].ClientID
	})

	return summaries, nil
}
