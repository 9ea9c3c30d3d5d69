package domain

import (
	"context"

	"github.com/davidbz/costdesk/internal/observability"
)

// CostEngine turns line-item requests into an itemized breakdown. It holds no
// state besides the read-only catalog.
type CostEngine struct {
	catalog PricingCatalog
}

// NewCostEngine creates a new cost engine (DI constructor).
func NewCostEngine(catalog PricingCatalog) *CostEngine {
	return &CostEngine{
		catalog: catalog,
	}
}

// ComputeBreakdown prices every request in caller order. Bad items are
// reported invalid with a zero total and left out of TotalCost; the batch
// itself never fails.
func (e *CostEngine) ComputeBreakdown(ctx context.Context, requests []LineItemRequest) CostBreakdown {
	logger := observability.FromContext(ctx)

	items := make([]CostBreakdownItem, 0, len(requests))
	total := 0.0

	for i, req := range requests {
		item := e.priceItem(req)
		if item.Valid {
			total += item.ItemTotal
		} else {
			logger.Debug("line item rejected",
				observability.Int("index", i),
				observability.String("tool_id", req.ToolID),
				observability.String("reason", string(item.Reason)))
		}
		items = append(items, item)
	}

	return CostBreakdown{
		Items:     items,
		TotalCost: total,
	}
}

func (e *CostEngine) priceItem(req LineItemRequest) CostBreakdownItem {
	item := CostBreakdownItem{ToolID: req.ToolID}

	tool, exists := e.catalog.Lookup(req.ToolID)
	if !exists {
		return rejectItem(item, ReasonUnknownTool)
	}

	// Flat fees are split by AllocationEngine, never quoted per line.
	if tool.Strategy.Dimension() == DimensionNone {
		return rejectItem(item, ReasonNotQuotable)
	}

	amount, supplied := measure(tool, req)
	if !supplied {
		return rejectItem(item, ReasonMissingDimension)
	}

	quote := e.catalog.UnitCost(req.ToolID, Selector{TierIndex: req.TierIndex})
	if !quote.Valid {
		return rejectItem(item, quote.Reason)
	}
	item.UnitCost = quote.Amount
	item.TierLabel = quote.TierLabel

	if amount < 0 {
		return rejectItem(item, ReasonNegativeAmount)
	}

	item.QuantityCost = amount * quote.Amount
	item.ItemTotal = item.QuantityCost
	item.Valid = true

	return item
}

func rejectItem(item CostBreakdownItem, reason InvalidReason) CostBreakdownItem {
	item.QuantityCost = 0
	item.ItemTotal = 0
	item.Valid = false
	item.Reason = reason
	return item
}

// measure returns how much of the tool's dimension the request supplies.
func measure(tool Tool, req LineItemRequest) (float64, bool) {
	switch tool.Strategy.Dimension() {
	case DimensionQuantity:
		if req.Quantity == nil {
			return 0, false
		}
		return *req.Quantity, true
	case DimensionDuration:
		if req.DurationSeconds == nil {
			return 0, false
		}
		return *req.DurationSeconds, true
	case DimensionCredits:
		if req.CreditsUsed != nil {
			return *req.CreditsUsed, true
		}
		if metered, ok := tool.Strategy.(CreditMetered); ok && req.Quantity != nil {
			return metered.CreditsFor(*req.Quantity)
		}
		return 0, false
	case DimensionNone:
		return 0, false
	default:
		return 0, false
	}
}
