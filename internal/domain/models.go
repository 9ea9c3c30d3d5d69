package domain

import "time"

// Category groups tools by what they generate.
type Category string

// Tool categories.
const (
	CategoryImage  Category = "image"
	CategoryVideo  Category = "video"
	CategoryAudio  Category = "audio"
	CategoryBundle Category = "bundle"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryImage, CategoryVideo, CategoryAudio, CategoryBundle:
		return true
	default:
		return false
	}
}

// Tool is a priced generation service. Immutable once loaded into a catalog.
type Tool struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category Category        `json:"category"`
	Strategy PricingStrategy `json:"-"`
}

// InvalidReason explains why a line item or quote was rejected.
type InvalidReason string

// Reasons attached to invalid items.
const (
	ReasonUnknownTool      InvalidReason = "unknown_tool"
	ReasonTierOutOfRange   InvalidReason = "tier_out_of_range"
	ReasonMissingDimension InvalidReason = "missing_dimension"
	ReasonNegativeAmount   InvalidReason = "negative_amount"
	ReasonNotQuotable      InvalidReason = "flat_fee_not_quotable"
)

// LineItemRequest is one quantified cost request. Which fields are required
// depends on the tool's Dimension.
type LineItemRequest struct {
	ToolID          string   `json:"tool_id"`
	Quantity        *float64 `json:"quantity,omitempty"`
	TierIndex       *int     `json:"tier_index,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	CreditsUsed     *float64 `json:"credits_used,omitempty"`
}

// CostBreakdownItem is the priced result for one request.
type CostBreakdownItem struct {
	ToolID       string        `json:"tool_id"`
	TierLabel    string        `json:"tier_label,omitempty"`
	UnitCost     float64       `json:"unit_cost"`
	QuantityCost float64       `json:"quantity_cost"`
	ItemTotal    float64       `json:"item_total"`
	Valid        bool          `json:"valid"`
	Reason       InvalidReason `json:"reason,omitempty"`
}

// CostBreakdown is an itemized list of line costs and their valid total.
type CostBreakdown struct {
	Items     []CostBreakdownItem `json:"items"`
	TotalCost float64             `json:"total_cost"`
}

// InvalidCount returns how many items were rejected.
func (b CostBreakdown) InvalidCount() int {
	n := 0
	for _, item := range b.Items {
		if !item.Valid {
			n++
		}
	}
	return n
}

// CostSource tags where a usage event's final cost came from.
type CostSource string

// Cost sources.
const (
	CostSourceAuto     CostSource = "auto"
	CostSourceOverride CostSource = "override"
)

// Cost is Auto(amount) or Override(amount). The two are never mixed.
type Cost struct {
	Source CostSource `json:"source"`
	Amount float64    `json:"amount"`
}

// AutoCost tags an amount derived from the catalog.
func AutoCost(amount float64) Cost {
	return Cost{Source: CostSourceAuto, Amount: amount}
}

// OverrideCost tags a manually supplied amount.
func OverrideCost(amount float64) Cost {
	return Cost{Source: CostSourceOverride, Amount: amount}
}

// UsageEventInput is what a caller supplies to record a generation.
type UsageEventInput struct {
	ToolID             string    `json:"tool_id"`
	ClientID           string    `json:"client_id"`
	GenerationType     string    `json:"generation_type"`
	ItemsGenerated     int       `json:"items_generated"`
	TierIndex          *int      `json:"tier_index,omitempty"`
	DurationSeconds    *float64  `json:"duration_seconds,omitempty"`
	CreditsUsed        *float64  `json:"credits_used,omitempty"`
	ManualOverrideCost *float64  `json:"manual_override_cost,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// UsageEvent is a recorded generation. Only the cost may change after
// recording, and only through an explicit override edit.
type UsageEvent struct {
	ID              string    `json:"id"`
	ToolID          string    `json:"tool_id"`
	ClientID        string    `json:"client_id"`
	GenerationType  string    `json:"generation_type"`
	ItemsGenerated  int       `json:"items_generated"`
	TierIndex       *int      `json:"tier_index,omitempty"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	CreditsUsed     *float64  `json:"credits_used,omitempty"`
	CreditsDerived  bool      `json:"credits_derived,omitempty"`
	AutoCost        float64   `json:"auto_cost"`
	Unpriced        bool      `json:"unpriced,omitempty"`
	Cost            Cost      `json:"cost"`
	Timestamp       time.Time `json:"timestamp"`
}

// FinalCost is the override when present, otherwise the auto cost.
func (e UsageEvent) FinalCost() float64 {
	return e.Cost.Amount
}

// IsOverridden reports whether a manual cost supersedes the auto cost.
func (e UsageEvent) IsOverridden() bool {
	return e.Cost.Source == CostSourceOverride
}

// ManualOverrideCost returns the override amount, or nil.
func (e UsageEvent) ManualOverrideCost() *float64 {
	if !e.IsOverridden() {
		return nil
	}
	amount := e.Cost.Amount
	return &amount
}

// BillingMonth returns the YYYY-MM month the event is accounted to (UTC).
func (e UsageEvent) BillingMonth() string {
	return MonthOf(e.Timestamp)
}

// UsageTotals are sums over a set of events, computed at call time.
type UsageTotals struct {
	FinalCost       float64 `json:"final_cost"`
	AutoCost        float64 `json:"auto_cost"`
	CreditsUsed     float64 `json:"credits_used"`
	ItemsGenerated  int     `json:"items_generated"`
	DurationSeconds float64 `json:"duration_seconds"`
	EventCount      int     `json:"event_count"`
	OverriddenCount int     `json:"overridden_count"`
}

// UsageSummary is a client's events plus their totals.
type UsageSummary struct {
	ClientID string       `json:"client_id"`
	Events   []UsageEvent `json:"events"`
	Totals   UsageTotals  `json:"totals"`
}

// Subscription is one tool's bill for one month.
type Subscription struct {
	ToolID               string   `json:"tool_id"`
	BillingMonth         string   `json:"billing_month"`
	TotalCost            float64  `json:"total_cost"`
	TotalCreditsAllotted *float64 `json:"total_credits_allotted,omitempty"`
}

// FlatFeeRequest asks AllocationEngine to split one monthly cost.
type FlatFeeRequest struct {
	ToolID      string  `json:"tool_id"`
	MonthlyCost float64 `json:"monthly_cost"`
}

// FlatFeeShare is one tool's per-client share.
type FlatFeeShare struct {
	ToolID         string  `json:"tool_id"`
	MonthlyCost    float64 `json:"monthly_cost"`
	PerClientShare float64 `json:"per_client_share"`
}

// AllocationResult is the output of Allocate. Clamped is set when the
// expected client count was raised to the minimum of one.
type AllocationResult struct {
	Shares                []FlatFeeShare `json:"shares"`
	FlatFeeTotalPerClient float64        `json:"flat_fee_total_per_client"`
	ClientCount           int            `json:"client_count"`
	Clamped               bool           `json:"clamped"`
}

// SubscriptionUsage is one subscription line of a monthly overview.
type SubscriptionUsage struct {
	ToolID           string   `json:"tool_id"`
	ToolName         string   `json:"tool_name"`
	Cost             float64  `json:"cost"`
	CreditsTotal     *float64 `json:"credits_total,omitempty"`
	CreditsUsed      float64  `json:"credits_used"`
	CreditsRemaining float64  `json:"credits_remaining"`
	CostPerCredit    *float64 `json:"cost_per_credit"`
	OverAllotted     bool     `json:"over_allotted"`
}

// MonthlyOverview reconciles a month's subscriptions against logged usage.
type MonthlyOverview struct {
	Month         string              `json:"month"`
	TotalCost     float64             `json:"total_cost"`
	Subscriptions []SubscriptionUsage `json:"subscriptions"`
	UsageCost     float64             `json:"usage_cost"`
	EventCount    int                 `json:"event_count"`
}

// ClientCostSummary is one client's cost. UsageCost and FlatFeeShare are kept
// apart; TotalCost is their sum.
type ClientCostSummary struct {
	ClientID     string  `json:"client_id"`
	ClientName   string  `json:"client_name,omitempty"`
	Company      string  `json:"company,omitempty"`
	UsageCost    float64 `json:"usage_cost"`
	FlatFeeShare float64 `json:"flat_fee_share"`
	TotalCost    float64 `json:"total_cost"`
	EventCount   int     `json:"event_count"`
}

// ClientInfo is the presentation label for a client id.
type ClientInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
}
