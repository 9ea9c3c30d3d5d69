package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/davidbz/costdesk/internal/observability"
)

type subscriptionKey struct {
	toolID string
	month  string
}

// SubscriptionBook holds one subscription per (tool, billing month).
type SubscriptionBook struct {
	catalog PricingCatalog

	mu   sync.RWMutex
	subs map[subscriptionKey]Subscription
}

// NewSubscriptionBook creates an empty book.
func NewSubscriptionBook(catalog PricingCatalog) *SubscriptionBook {
	return &SubscriptionBook{
		catalog: catalog,
		mu:      sync.RWMutex{},
		subs:    make(map[subscriptionKey]Subscription),
	}
}

// Create adds a subscription. A credit-metered tool's catalog allotment is
// used when the subscription does not state one.
func (b *SubscriptionBook) Create(ctx context.Context, sub Subscription) (Subscription, error) {
	sub, err := b.normalize(sub)
	if err != nil {
		return Subscription{}, err
	}

	key := subscriptionKey{toolID: sub.ToolID, month: sub.BillingMonth}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subs[key]; exists {
		return Subscription{}, fmt.Errorf("%w: %s %s", ErrSubscriptionExists, sub.ToolID, sub.BillingMonth)
	}
	b.subs[key] = sub

	observability.FromContext(ctx).Info("subscription created",
		observability.String("tool_id", sub.ToolID),
		observability.String("billing_month", sub.BillingMonth),
		observability.Float64("total_cost", sub.TotalCost))

	return sub, nil
}

func (b *SubscriptionBook) normalize(sub Subscription) (Subscription, error) {
	if sub.ToolID == "" {
		return Subscription{}, ErrEmptyToolID
	}
	if _, err := ParseMonth(sub.BillingMonth); err != nil {
		return Subscription{}, err
	}
	if sub.TotalCost < 0 {
		return Subscription{}, fmt.Errorf("subscription cost: %w", ErrNegativeAmount)
	}
	if sub.TotalCreditsAllotted != nil && *sub.TotalCreditsAllotted < 0 {
		return Subscription{}, fmt.Errorf("credit allotment: %w", ErrNegativeAmount)
	}

	tool, exists := b.catalog.Lookup(sub.ToolID)
	if !exists {
		return Subscription{}, fmt.Errorf("%w: %s", ErrUnknownTool, sub.ToolID)
	}

	if metered, ok := tool.Strategy.(CreditMetered); ok && sub.TotalCreditsAllotted == nil {
		sub.TotalCreditsAllotted = metered.TotalCreditsAllotted
	}

	return sub, nil
}

// Get returns the subscription for a tool and month.
func (b *SubscriptionBook) Get(toolID, month string) (Subscription, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sub, exists := b.subs[subscriptionKey{toolID: toolID, month: month}]
	return sub, exists
}

// Delete removes the subscription for a tool and month.
func (b *SubscriptionBook) Delete(_ context.Context, toolID, month string) (Subscription, error) {
	key := subscriptionKey{toolID: toolID, month: month}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subs[key]
	if !exists {
		return Subscription{}, fmt.Errorf("%w: %s %s", ErrSubscriptionNotFound, toolID, month)
	}
	delete(b.subs, key)

	return sub, nil
}

// ForMonth returns a month's subscriptions sorted by tool id.
func (b *SubscriptionBook) ForMonth(month string) []Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var subs []Subscription
	for key, sub := range b.subs {
		if key.month == month {
			subs = append(subs, sub)
		}
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].ToolID < subs[j].ToolID })

	return subs
}

// Restore replaces the book contents with stored subscriptions, applying the
// same checks as Create.
func (b *SubscriptionBook) Restore(subs []Subscription) error {
	restored := make(map[subscriptionKey]Subscription, len(subs))
	for _, stored := range subs {
		sub, err := b.normalize(stored)
		if err != nil {
			return fmt.Errorf("stored subscription %s %s: %w", stored.ToolID, stored.BillingMonth, err)
		}
		key := subscriptionKey{toolID: sub.ToolID, month: sub.BillingMonth}
		if _, exists := restored[key]; exists {
			return fmt.Errorf("%w: %s %s", ErrSubscriptionExists, sub.ToolID, sub.BillingMonth)
		}
		restored[key] = sub
	}

	b.mu.Lock()
	b.subs = restored
	b.mu.Unlock()

	return nil
}

// CreditsRemaining returns max(0, allotted-used) and whether usage went past
// the allotment.
func CreditsRemaining(allotted, used float64) (float64, bool) {
	if used > allotted {
		return 0, true
	}
	return allotted - used, false
}
