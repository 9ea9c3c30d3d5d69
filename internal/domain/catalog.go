package domain

import (
	"fmt"
	"sort"
)

// Catalog is the in-memory PricingCatalog. It is built once by LoadCatalog and
// never written afterwards, so lookups need no locking.
type Catalog struct {
	tools map[string]Tool
	order []string
}

// LoadCatalog validates tool definitions and builds a catalog.
func LoadCatalog(tools []Tool) (*Catalog, error) {
	c := &Catalog{
		tools: make(map[string]Tool, len(tools)),
		order: make([]string, 0, len(tools)),
	}

	for _, tool := range tools {
		if err := validateTool(tool); err != nil {
			return nil, err
		}
		if _, exists := c.tools[tool.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, tool.ID)
		}
		c.tools[tool.ID] = tool
		c.order = append(c.order, tool.ID)
	}

	sort.Strings(c.order)

	return c, nil
}

func validateTool(tool Tool) error {
	if tool.ID == "" {
		return ErrEmptyToolID
	}
	if !tool.Category.Valid() {
		return fmt.Errorf("tool %s: unknown category %q", tool.ID, tool.Category)
	}
	if tool.Strategy == nil {
		return fmt.Errorf("tool %s: %w: missing strategy", tool.ID, ErrInvalidStrategy)
	}
	if err := tool.Strategy.validate(); err != nil {
		return fmt.Errorf("tool %s: %w", tool.ID, err)
	}
	return nil
}

// Lookup retrieves a tool by id.
func (c *Catalog) Lookup(toolID string) (Tool, bool) {
	tool, exists := c.tools[toolID]
	return tool, exists
}

// UnitCost resolves the unit price for a tool and selector.
func (c *Catalog) UnitCost(toolID string, sel Selector) PriceQuote {
	tool, exists := c.tools[toolID]
	if !exists {
		return invalidQuote(ReasonUnknownTool)
	}
	return tool.Strategy.UnitCost(sel)
}

// Tools returns all tools sorted by id.
func (c *Catalog) Tools() []Tool {
	tools := make([]Tool, 0, len(c.order))
	for _, id := range c.order {
		tools = append(tools, c.tools[id])
	}
	return tools
}

// FlatFeeTools returns the tools priced as a flat monthly fee, sorted by id.
func FlatFeeTools(catalog PricingCatalog) []Tool {
	var flat []Tool
	for _, tool := range catalog.Tools() {
		if tool.Strategy.Kind() == KindFlatMonthlyFee {
			flat = append(flat, tool)
		}
	}
	return flat
}
