package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/costdesk/internal/observability"
)

// UsageLedger records usage events and resolves their cost. Events are
// append-only; the only mutation is an explicit override edit.
type UsageLedger struct {
	catalog PricingCatalog
	now     func() time.Time
	newID   func() string

	mu     sync.RWMutex
	events []UsageEvent
	index  map[string]int
}

// LedgerOption customizes a UsageLedger.
type LedgerOption func(*UsageLedger)

// WithClock sets the clock used for events logged without a timestamp.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *UsageLedger) {
		l.now = now
	}
}

// WithIDGenerator sets the event id generator.
func WithIDGenerator(newID func() string) LedgerOption {
	return func(l *UsageLedger) {
		l.newID = newID
	}
}

// NewUsageLedger creates an empty ledger priced by catalog.
func NewUsageLedger(catalog PricingCatalog, opts ...LedgerOption) *UsageLedger {
	l := &UsageLedger{
		catalog: catalog,
		now:     time.Now,
		newID:   uuid.NewString,
		mu:      sync.RWMutex{},
		events:  nil,
		index:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogGeneration records a generation and resolves its cost.
func (l *UsageLedger) LogGeneration(ctx context.Context, in UsageEventInput) (UsageEvent, error) {
	if err := validateInput(in); err != nil {
		return UsageEvent{}, err
	}

	event := UsageEvent{
		ID:              l.newID(),
		ToolID:          in.ToolID,
		ClientID:        in.ClientID,
		GenerationType:  in.GenerationType,
		ItemsGenerated:  in.ItemsGenerated,
		TierIndex:       in.TierIndex,
		DurationSeconds: in.DurationSeconds,
		CreditsUsed:     in.CreditsUsed,
		Timestamp:       in.Timestamp,
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}

	l.resolveAutoCost(&event)

	event.Cost = AutoCost(event.AutoCost)
	if in.ManualOverrideCost != nil {
		event.Cost = OverrideCost(*in.ManualOverrideCost)
	}

	l.mu.Lock()
	if _, exists := l.index[event.ID]; exists {
		l.mu.Unlock()
		return UsageEvent{}, fmt.Errorf("%w: %s", ErrDuplicateEvent, event.ID)
	}
	l.index[event.ID] = len(l.events)
	l.events = append(l.events, event)
	l.mu.Unlock()

	logger := observability.FromContext(ctx)
	if event.Unpriced && !event.IsOverridden() {
		logger.Warn("usage event recorded without a derivable cost",
			observability.String("event_id", event.ID),
			observability.String("tool_id", event.ToolID))
	}

	return event, nil
}

func validateInput(in UsageEventInput) error {
	if in.ToolID == "" {
		return ErrEmptyToolID
	}
	if in.ClientID == "" {
		return ErrEmptyClientID
	}
	if in.ItemsGenerated < 0 {
		return fmt.Errorf("items generated: %w", ErrNegativeAmount)
	}
	if in.DurationSeconds != nil && *in.DurationSeconds < 0 {
		return fmt.Errorf("duration: %w", ErrNegativeAmount)
	}
	if in.CreditsUsed != nil && *in.CreditsUsed < 0 {
		return fmt.Errorf("credits used: %w", ErrNegativeAmount)
	}
	if in.ManualOverrideCost != nil && *in.ManualOverrideCost < 0 {
		return fmt.Errorf("manual override cost: %w", ErrNegativeAmount)
	}
	return nil
}

func validateStored(e UsageEvent) error {
	if e.ToolID == "" {
		return ErrEmptyToolID
	}
	if e.ClientID == "" {
		return ErrEmptyClientID
	}
	if e.ItemsGenerated < 0 || e.AutoCost < 0 || e.Cost.Amount < 0 {
		return ErrNegativeAmount
	}
	if (e.DurationSeconds != nil && *e.DurationSeconds < 0) || (e.CreditsUsed != nil && *e.CreditsUsed < 0) {
		return ErrNegativeAmount
	}
	return nil
}

// resolveAutoCost prices the event from the catalog. Explicit credits win for
// credit-metered tools; otherwise the tool's own dimension is measured from
// items or duration. Events that cannot be priced keep a zero auto cost and
// are flagged.
func (l *UsageLedger) resolveAutoCost(event *UsageEvent) {
	tool, exists := l.catalog.Lookup(event.ToolID)
	if !exists {
		event.Unpriced = true
		return
	}

	if metered, ok := tool.Strategy.(CreditMetered); ok && event.CreditsUsed != nil {
		event.AutoCost = *event.CreditsUsed * metered.RatePerCredit
		return
	}

	items := float64(event.ItemsGenerated)

	switch strategy := tool.Strategy.(type) {
	case FlatMonthlyFee:
		// Covered by the monthly allocation.
		event.AutoCost = 0
	case TieredPerUnit:
		tierIndex := 0
		if event.TierIndex != nil {
			tierIndex = *event.TierIndex
		}
		quote := strategy.UnitCost(Selector{TierIndex: &tierIndex})
		if !quote.Valid {
			event.Unpriced = true
			return
		}
		event.AutoCost = items * quote.Amount
	case PerSecond:
		if event.DurationSeconds == nil {
			event.Unpriced = true
			return
		}
		event.AutoCost = *event.DurationSeconds * strategy.Rate
	case CreditMetered:
		credits, ok := strategy.CreditsFor(items)
		if !ok {
			event.Unpriced = true
			return
		}
		event.CreditsUsed = &credits
		event.CreditsDerived = true
		event.AutoCost = credits * strategy.RatePerCredit
	default:
		event.Unpriced = true
	}
}

// EditOverride sets a manual cost on an event, whether or not it was already
// overridden. The auto cost is kept alongside.
func (l *UsageLedger) EditOverride(ctx context.Context, eventID string, newCost float64) (UsageEvent, error) {
	_, event, err := l.editOverride(ctx, eventID, newCost)
	return event, err
}

// editOverride applies an override and returns the event as it was before and
// after, read under the same lock.
func (l *UsageLedger) editOverride(ctx context.Context, eventID string, newCost float64) (UsageEvent, UsageEvent, error) {
	if newCost < 0 {
		return UsageEvent{}, UsageEvent{}, fmt.Errorf("override cost: %w", ErrNegativeAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i, exists := l.index[eventID]
	if !exists {
		return UsageEvent{}, UsageEvent{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	previous := l.events[i]
	l.events[i].Cost = OverrideCost(newCost)

	observability.FromContext(ctx).Info("usage cost overridden",
		observability.String("event_id", eventID),
		observability.String("previous_source", string(previous.Cost.Source)),
		observability.Float64("previous_amount", previous.Cost.Amount),
		observability.Float64("new_amount", newCost))

	return previous, l.events[i], nil
}

// ClearOverride drops a manual cost and returns the event to its auto cost.
func (l *UsageLedger) ClearOverride(ctx context.Context, eventID string) (UsageEvent, error) {
	_, event, err := l.clearOverride(ctx, eventID)
	return event, err
}

func (l *UsageLedger) clearOverride(ctx context.Context, eventID string) (UsageEvent, UsageEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, exists := l.index[eventID]
	if !exists {
		return UsageEvent{}, UsageEvent{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	previous := l.events[i]
	if previous.IsOverridden() {
		observability.FromContext(ctx).Info("usage cost override cleared",
			observability.String("event_id", eventID))
	}
	l.events[i].Cost = AutoCost(l.events[i].AutoCost)

	return previous, l.events[i], nil
}

// Get returns one event by id.
func (l *UsageLedger) Get(eventID string) (UsageEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, exists := l.index[eventID]
	if !exists {
		return UsageEvent{}, false
	}
	return l.events[i], true
}

// GetByClient returns a client's events in recording order with totals
// summed over exactly those events.
func (l *UsageLedger) GetByClient(_ context.Context, clientID string) UsageSummary {
	events := l.filter(func(e UsageEvent) bool { return e.ClientID == clientID })
	return UsageSummary{
		ClientID: clientID,
		Events:   events,
		Totals:   SumUsage(events),
	}
}

// Events returns a copy of every event in recording order.
func (l *UsageLedger) Events() []UsageEvent {
	return l.filter(func(UsageEvent) bool { return true })
}

// EventsForMonth returns the events whose timestamp falls in a billing month.
func (l *UsageLedger) EventsForMonth(month string) []UsageEvent {
	return l.filter(func(e UsageEvent) bool { return e.BillingMonth() == month })
}

func (l *UsageLedger) filter(keep func(UsageEvent) bool) []UsageEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]UsageEvent, 0, len(l.events))
	for _, e := range l.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Restore replaces the ledger contents with previously recorded events. Events
// that LogGeneration would have rejected fail the whole restore.
func (l *UsageLedger) Restore(events []UsageEvent) error {
	index := make(map[string]int, len(events))
	restored := make([]UsageEvent, 0, len(events))

	for i, e := range events {
		if e.ID == "" {
			return fmt.Errorf("event %d: %w", i, ErrEmptyEventID)
		}
		if _, exists := index[e.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateEvent, e.ID)
		}
		if err := validateStored(e); err != nil {
			return fmt.Errorf("event %s: %w", e.ID, err)
		}
		index[e.ID] = len(restored)
		restored = append(restored, e)
	}

	l.mu.Lock()
	l.events = restored
	l.index = index
	l.mu.Unlock()

	return nil
}

// rollback restores previous after a failed persistence write, unless a later
// change has already replaced applied.
func (l *UsageLedger) rollback(previous, applied UsageEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, exists := l.index[previous.ID]
	if !exists || l.events[i].Cost != applied.Cost {
		return
	}
	l.events[i] = previous
}

// remove drops an event. Used to roll back a failed persistence write.
func (l *UsageLedger) remove(eventID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, exists := l.index[eventID]
	if !exists {
		return
	}

	l.events = append(l.events[:i], l.events[i+1:]...)
	delete(l.index, eventID)
	for j := i; j < len(l.events); j++ {
		l.index[l.events[j].ID] = j
	}
}

// SumUsage totals a set of events.
func SumUsage(events []UsageEvent) UsageTotals {
	var totals UsageTotals
	for _, e := range events {
		totals.FinalCost += e.FinalCost()
		totals.AutoCost += e.AutoCost
		totals.ItemsGenerated += e.ItemsGenerated
		if e.CreditsUsed != nil {
			totals.CreditsUsed += *e.CreditsUsed
		}
		if e.DurationSeconds != nil {
			totals.DurationSeconds += *e.DurationSeconds
		}
		if e.IsOverridden() {
			totals.OverriddenCount++
		}
		totals.EventCount++
	}
	return totals
}
