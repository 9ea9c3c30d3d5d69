package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/costdesk/internal/observability"
)

// Domain event types published by AccountingService.
const (
	EventUsageLogged         = "usage.logged"
	EventOverrideEdited      = "usage.override_edited"
	EventOverrideCleared     = "usage.override_cleared"
	EventSubscriptionCreated = "subscription.created"
	EventSubscriptionDeleted = "subscription.deleted"
)

// AccountingService keeps the in-memory ledger and subscription book in step
// with the persistence collaborators. A failed write rolls the in-memory
// change back so the two never diverge.
type AccountingService struct {
	ledger        *UsageLedger
	book          *SubscriptionBook
	usageRepo     UsageRepository
	subscriptions SubscriptionRepository
	publisher     EventPublisher
}

// NewAccountingService creates a new accounting service (DI constructor).
// publisher may be nil.
func NewAccountingService(
	ledger *UsageLedger,
	book *SubscriptionBook,
	usageRepo UsageRepository,
	subscriptions SubscriptionRepository,
	publisher EventPublisher,
) *AccountingService {
	return &AccountingService{
		ledger:        ledger,
		book:          book,
		usageRepo:     usageRepo,
		subscriptions: subscriptions,
		publisher:     publisher,
	}
}

// Hydrate loads stored events and subscriptions into memory.
func (s *AccountingService) Hydrate(ctx context.Context) error {
	events, err := s.usageRepo.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list usage events: %w", err)
	}
	if err := s.ledger.Restore(events); err != nil {
		return fmt.Errorf("failed to restore ledger: %w", err)
	}

	subs, err := s.subscriptions.ListSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if err := s.book.Restore(subs); err != nil {
		return fmt.Errorf("failed to restore subscriptions: %w", err)
	}

	observability.FromContext(ctx).Info("accounting state hydrated",
		observability.Int("events", len(events)),
		observability.Int("subscriptions", len(subs)))

	return nil
}

// LogGeneration records and persists a usage event.
func (s *AccountingService) LogGeneration(ctx context.Context, in UsageEventInput) (UsageEvent, error) {
	event, err := s.ledger.LogGeneration(ctx, in)
	if err != nil {
		return UsageEvent{}, fmt.Errorf("failed to log generation: %w", err)
	}

	if err := s.usageRepo.SaveEvent(ctx, event); err != nil {
		s.ledger.remove(event.ID)
		return UsageEvent{}, fmt.Errorf("failed to persist usage event: %w", err)
	}

	s.publish(ctx, EventUsageLogged, event)

	return event, nil
}

// EditOverride sets a manual cost on an event and persists it.
func (s *AccountingService) EditOverride(ctx context.Context, eventID string, newCost float64) (UsageEvent, error) {
	previous, event, err := s.ledger.editOverride(ctx, eventID, newCost)
	if err != nil {
		return UsageEvent{}, err
	}
	return s.persistChange(ctx, EventOverrideEdited, previous, event)
}

// ClearOverride returns an event to its auto cost and persists it. Clearing an
// event that carries no override changes nothing and is not persisted.
func (s *AccountingService) ClearOverride(ctx context.Context, eventID string) (UsageEvent, error) {
	previous, event, err := s.ledger.clearOverride(ctx, eventID)
	if err != nil {
		return UsageEvent{}, err
	}
	if !previous.IsOverridden() {
		return event, nil
	}
	return s.persistChange(ctx, EventOverrideCleared, previous, event)
}

func (s *AccountingService) persistChange(
	ctx context.Context,
	eventType string,
	previous UsageEvent,
	event UsageEvent,
) (UsageEvent, error) {
	if err := s.usageRepo.SaveEvent(ctx, event); err != nil {
		s.ledger.rollback(previous, event)
		return UsageEvent{}, fmt.Errorf("failed to persist usage event: %w", err)
	}

	s.publish(ctx, eventType, event)

	return event, nil
}

// CreateSubscription adds and persists a subscription.
func (s *AccountingService) CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	created, err := s.book.Create(ctx, sub)
	if err != nil {
		return Subscription{}, fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := s.subscriptions.SaveSubscription(ctx, created); err != nil {
		_, _ = s.book.Delete(ctx, created.ToolID, created.BillingMonth)
		return Subscription{}, fmt.Errorf("failed to persist subscription: %w", err)
	}

	s.publishSubscription(ctx, EventSubscriptionCreated, created)

	return created, nil
}

// DeleteSubscription removes a subscription from memory and storage.
func (s *AccountingService) DeleteSubscription(ctx context.Context, toolID, month string) error {
	removed, err := s.book.Delete(ctx, toolID, month)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	if err := s.subscriptions.DeleteSubscription(ctx, toolID, month); err != nil {
		if _, restoreErr := s.book.Create(ctx, removed); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		return fmt.Errorf("failed to delete stored subscription: %w", err)
	}

	s.publishSubscription(ctx, EventSubscriptionDeleted, removed)

	return nil
}

// GetByClient returns a client's usage summary.
func (s *AccountingService) GetByClient(ctx context.Context, clientID string) UsageSummary {
	return s.ledger.GetByClient(ctx, clientID)
}

func (s *AccountingService) publish(ctx context.Context, eventType string, event UsageEvent) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, eventType, map[string]interface{}{
		"event_id":      event.ID,
		"tool_id":       event.ToolID,
		"client_id":     event.ClientID,
		"final_cost":    event.FinalCost(),
		"is_overridden": event.IsOverridden(),
	})
}

func (s *AccountingService) publishSubscription(ctx context.Context, eventType string, sub Subscription) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, eventType, map[string]interface{}{
		"tool_id":       sub.ToolID,
		"billing_month": sub.BillingMonth,
		"total_cost":    sub.TotalCost,
	})
}
