// Package memory provides process-local repositories used when no external
// store is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/davidbz/costdesk/internal/domain"
)

// Store implements domain.UsageRepository and domain.SubscriptionRepository.
type Store struct {
	mu            sync.RWMutex
	events        map[string]storedEvent
	seq           int
	subscriptions map[string]domain.Subscription
}

type storedEvent struct {
	seq   int
	event domain.UsageEvent
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		mu:            sync.RWMutex{},
		events:        make(map[string]storedEvent),
		seq:           0,
		subscriptions: make(map[string]domain.Subscription),
	}
}

// SaveEvent creates or replaces an event, keeping its original position.
func (s *Store) SaveEvent(_ context.Context, event domain.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.events[event.ID]
	if !exists {
		s.seq++
		stored.seq = s.seq
	}
	stored.event = event
	s.events[event.ID] = stored

	return nil
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, eventID)
	return nil
}

// ListEvents returns events in the order they were first saved.
func (s *Store) ListEvents(_ context.Context) ([]domain.UsageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := make([]storedEvent, 0, len(s.events))
	for _, e := range s.events {
		stored = append(stored, e)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })

	events := make([]domain.UsageEvent, 0, len(stored))
	for _, e := range stored {
		events = append(events, e.event)
	}
	return events, nil
}

func subscriptionKey(toolID, month string) string {
	return month + "/" + toolID
}

// SaveSubscription creates or replaces a subscription.
func (s *Store) SaveSubscription(_ context.Context, sub domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions[subscriptionKey(sub.ToolID, sub.BillingMonth)] = sub
	return nil
}

// DeleteSubscription removes a subscription.
func (s *Store) DeleteSubscription(_ context.Context, toolID, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subscriptions, subscriptionKey(toolID, month))
	return nil
}

// ListSubscriptions returns subscriptions ordered by month then tool.
func (s *Store) ListSubscriptions(_ context.Context) ([]domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.subscriptions))
	for key := range s.subscriptions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	subs := make([]domain.Subscription, 0, len(keys))
	for _, key := range keys {
		subs = append(subs, s.subscriptions[key])
	}
	return subs, nil
}
