// Package catalog loads tool pricing definitions and the client directory
// from YAML and turns them into a domain.Catalog.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davidbz/costdesk/internal/domain"
)

// Pricing types accepted in catalog files.
const (
	PricingFlatMonthly   = "flat_monthly"
	PricingTiered        = "tiered"
	PricingPerSecond     = "per_second"
	PricingCreditMetered = "credit_metered"
)

// ErrUnknownPricingType indicates a pricing.type the loader does not know.
var ErrUnknownPricingType = errors.New("unknown pricing type")

// File is the on-disk catalog document.
type File struct {
	Tools   []ToolDefinition   `yaml:"tools"`
	Clients []ClientDefinition `yaml:"clients"`
}

// ToolDefinition describes one tool.
type ToolDefinition struct {
	ID       string            `yaml:"id" json:"id"`
	Name     string            `yaml:"name" json:"name"`
	Category string            `yaml:"category" json:"category"`
	Pricing  PricingDefinition `yaml:"pricing" json:"pricing"`
}

// PricingDefinition is the flattened form of every strategy; Type selects
// which fields apply.
type PricingDefinition struct {
	Type                 string           `yaml:"type" json:"type"`
	Amount               float64          `yaml:"amount,omitempty" json:"amount,omitempty"`
	Tiers                []TierDefinition `yaml:"tiers,omitempty" json:"tiers,omitempty"`
	Rate                 float64          `yaml:"rate,omitempty" json:"rate,omitempty"`
	RatePerCredit        float64          `yaml:"rate_per_credit,omitempty" json:"rate_per_credit,omitempty"`
	TotalCreditsAllotted *float64         `yaml:"total_credits_allotted,omitempty" json:"total_credits_allotted,omitempty"`
	CreditsPerItem       *float64         `yaml:"credits_per_item,omitempty" json:"credits_per_item,omitempty"`
}

// TierDefinition is one tier of a tiered tool.
type TierDefinition struct {
	Label    string  `yaml:"label" json:"label"`
	UnitCost float64 `yaml:"unit_cost" json:"unit_cost"`
}

// ClientDefinition is one entry of the client directory.
type ClientDefinition struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Company string `yaml:"company,omitempty"`
}

// Parse decodes a catalog document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &f, nil
}

// LoadFile reads and decodes a catalog document from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Marshal encodes a catalog document.
func (f *File) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return data, nil
}

// DomainTools converts the tool definitions.
func (f *File) DomainTools() ([]domain.Tool, error) {
	tools := make([]domain.Tool, 0, len(f.Tools))
	for _, def := range f.Tools {
		strategy, err := def.Pricing.strategy()
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", def.ID, err)
		}
		tools = append(tools, domain.Tool{
			ID:       def.ID,
			Name:     def.Name,
			Category: domain.Category(def.Category),
			Strategy: strategy,
		})
	}
	return tools, nil
}

// Build validates the tools and loads them into a catalog.
func (f *File) Build() (*domain.Catalog, error) {
	tools, err := f.DomainTools()
	if err != nil {
		return nil, err
	}

	c, err := domain.LoadCatalog(tools)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return c, nil
}

func (p PricingDefinition) strategy() (domain.PricingStrategy, error) {
	switch p.Type {
	case PricingFlatMonthly:
		return domain.FlatMonthlyFee{Amount: p.Amount}, nil
	case PricingTiered:
		tiers := make([]domain.Tier, 0, len(p.Tiers))
		for _, t := range p.Tiers {
			tiers = append(tiers, domain.Tier{Label: t.Label, UnitCost: t.UnitCost})
		}
		return domain.TieredPerUnit{Tiers: tiers}, nil
	case PricingPerSecond:
		return domain.PerSecond{Rate: p.Rate}, nil
	case PricingCreditMetered:
		return domain.CreditMetered{
			RatePerCredit:        p.RatePerCredit,
			TotalCreditsAllotted: p.TotalCreditsAllotted,
			CreditsPerItem:       p.CreditsPerItem,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPricingType, p.Type)
	}
}

// Definition converts a domain tool back to its file form.
func Definition(tool domain.Tool) ToolDefinition {
	def := ToolDefinition{
		ID:       tool.ID,
		Name:     tool.Name,
		Category: string(tool.Category),
	}

	switch s := tool.Strategy.(type) {
	case domain.FlatMonthlyFee:
		def.Pricing = PricingDefinition{Type: PricingFlatMonthly, Amount: s.Amount}
	case domain.TieredPerUnit:
		def.Pricing = PricingDefinition{Type: PricingTiered}
		for _, t := range s.Tiers {
			def.Pricing.Tiers = append(def.Pricing.Tiers, TierDefinition{Label: t.Label, UnitCost: t.UnitCost})
		}
	case domain.PerSecond:
		def.Pricing = PricingDefinition{Type: PricingPerSecond, Rate: s.Rate}
	case domain.CreditMetered:
		def.Pricing = PricingDefinition{
			Type:                 PricingCreditMetered,
			RatePerCredit:        s.RatePerCredit,
			TotalCreditsAllotted: s.TotalCreditsAllotted,
			CreditsPerItem:       s.CreditsPerItem,
		}
	}

	return def
}
