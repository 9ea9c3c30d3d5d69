package domain

import "fmt"

// StrategyKind names a pricing strategy variant.
type StrategyKind string

// Pricing strategy kinds.
const (
	KindFlatMonthlyFee StrategyKind = "flat_monthly_fee"
	KindTieredPerUnit  StrategyKind = "tiered_per_unit"
	KindPerSecond      StrategyKind = "per_second"
	KindCreditMetered  StrategyKind = "credit_metered"
)

// Dimension is the measured input a strategy consumes.
type Dimension string

// Dimensions consumed by the strategies.
const (
	DimensionNone     Dimension = "none"     // flat fee, allocated rather than quoted
	DimensionQuantity Dimension = "quantity" // quantity and tier index
	DimensionDuration Dimension = "duration" // seconds
	DimensionCredits  Dimension = "credits"
)

// Selector picks the price point inside a strategy. Only tiered pricing reads it.
type Selector struct {
	TierIndex *int
}

// PriceQuote is the result of a unit cost lookup. Invalid quotes carry a reason
// instead of an error so batch callers can keep going.
type PriceQuote struct {
	Amount    float64
	TierLabel string
	Valid     bool
	Reason    InvalidReason
}

func validQuote(amount float64, label string) PriceQuote {
	return PriceQuote{Amount: amount, TierLabel: label, Valid: true, Reason: ""}
}

func invalidQuote(reason InvalidReason) PriceQuote {
	return PriceQuote{Amount: 0, TierLabel: "", Valid: false, Reason: reason}
}

// PricingStrategy is the sealed set of ways a tool can be priced.
type PricingStrategy interface {
	// Kind returns the variant tag.
	Kind() StrategyKind

	// Dimension returns the measured input the strategy consumes.
	Dimension() Dimension

	// UnitCost returns the price of one unit of the strategy's dimension.
	UnitCost(sel Selector) PriceQuote

	validate() error
}

// FlatMonthlyFee is one recurring cost divided across clients.
type FlatMonthlyFee struct {
	Amount float64 `json:"amount"`
}

// Kind implements PricingStrategy.
func (FlatMonthlyFee) Kind() StrategyKind { return KindFlatMonthlyFee }

// Dimension implements PricingStrategy.
func (FlatMonthlyFee) Dimension() Dimension { return DimensionNone }

// UnitCost returns the monthly amount.
func (s FlatMonthlyFee) UnitCost(Selector) PriceQuote { return validQuote(s.Amount, "") }

func (s FlatMonthlyFee) validate() error {
	if s.Amount < 0 {
		return fmt.Errorf("%w: monthly fee %v", ErrNegativeAmount, s.Amount)
	}
	return nil
}

// Tier is one quality/price level of a tiered tool.
type Tier struct {
	Label    string  `json:"label"`
	UnitCost float64 `json:"unit_cost"`
}

// TieredPerUnit prices quantity × tier unit cost.
type TieredPerUnit struct {
	Tiers []Tier `json:"tiers"`
}

// Kind implements PricingStrategy.
func (TieredPerUnit) Kind() StrategyKind { return KindTieredPerUnit }

// Dimension implements PricingStrategy.
func (TieredPerUnit) Dimension() Dimension { return DimensionQuantity }

// UnitCost returns the selected tier's unit cost.
func (s TieredPerUnit) UnitCost(sel Selector) PriceQuote {
	if sel.TierIndex == nil {
		return invalidQuote(ReasonMissingDimension)
	}
	idx := *sel.TierIndex
	if idx < 0 || idx >= len(s.Tiers) {
		return invalidQuote(ReasonTierOutOfRange)
	}
	tier := s.Tiers[idx]
	return validQuote(tier.UnitCost, tier.Label)
}

func (s TieredPerUnit) validate() error {
	if len(s.Tiers) == 0 {
		return fmt.Errorf("%w: tiered pricing needs at least one tier", ErrInvalidStrategy)
	}
	for i, tier := range s.Tiers {
		if tier.UnitCost < 0 {
			return fmt.Errorf("%w: tier %d (%s)", ErrNegativeAmount, i, tier.Label)
		}
	}
	return nil
}

// PerSecond prices durationSeconds × rate.
type PerSecond struct {
	Rate float64 `json:"rate"`
}

// Kind implements PricingStrategy.
func (PerSecond) Kind() StrategyKind { return KindPerSecond }

// Dimension implements PricingStrategy.
func (PerSecond) Dimension() Dimension { return DimensionDuration }

// UnitCost returns the per-second rate.
func (s PerSecond) UnitCost(Selector) PriceQuote { return validQuote(s.Rate, "") }

func (s PerSecond) validate() error {
	if s.Rate < 0 {
		return fmt.Errorf("%w: per-second rate %v", ErrNegativeAmount, s.Rate)
	}
	return nil
}

// CreditMetered prices creditsUsed × ratePerCredit against an optional
// monthly allotment. CreditsPerItem is supplied by the catalog when the vendor
// publishes it; without it item counts cannot be converted to credits.
type CreditMetered struct {
	RatePerCredit        float64  `json:"rate_per_credit"`
	TotalCreditsAllotted *float64 `json:"total_credits_allotted,omitempty"`
	CreditsPerItem       *float64 `json:"credits_per_item,omitempty"`
}

// Kind implements PricingStrategy.
func (CreditMetered) Kind() StrategyKind { return KindCreditMetered }

// Dimension implements PricingStrategy.
func (CreditMetered) Dimension() Dimension { return DimensionCredits }

// UnitCost returns the rate per credit.
func (s CreditMetered) UnitCost(Selector) PriceQuote { return validQuote(s.RatePerCredit, "") }

// CreditsFor converts an item count to credits when the catalog knows the rate.
func (s CreditMetered) CreditsFor(items float64) (float64, bool) {
	if s.CreditsPerItem == nil {
		return 0, false
	}
	return items * *s.CreditsPerItem, true
}

func (s CreditMetered) validate() error {
	if s.RatePerCredit < 0 {
		return fmt.Errorf("%w: rate per credit %v", ErrNegativeAmount, s.RatePerCredit)
	}
	if s.TotalCreditsAllotted != nil && *s.TotalCreditsAllotted < 0 {
		return fmt.Errorf("%w: credit allotment", ErrNegativeAmount)
	}
	if s.CreditsPerItem != nil && *s.CreditsPerItem < 0 {
		return fmt.Errorf("%w: credits per item", ErrNegativeAmount)
	}
	return nil
}

// PricingCatalog is the read-only lookup surface over the loaded tools.
type PricingCatalog interface {
	// Lookup returns the tool for an id; false means not found.
	Lookup(toolID string) (Tool, bool)

	// UnitCost resolves a tool's unit price. Unknown tools and bad selectors
	// come back as invalid quotes.
	UnitCost(toolID string, sel Selector) PriceQuote

	// Tools lists every tool sorted by id.
	Tools() []Tool
}
