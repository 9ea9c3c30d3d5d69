// Package redis persists usage events and subscriptions in Redis hashes.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/costdesk/internal/domain"
	"github.com/davidbz/costdesk/internal/observability"
)

const (
	eventsKey        = "usage:events"
	timelineKey      = "usage:timeline"
	sequenceKey      = "usage:seq"
	subscriptionsKey = "subscriptions"
)

// Store implements domain.UsageRepository and domain.SubscriptionRepository.
// Events live in a hash keyed by id; a sorted set keeps their recording order.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore creates a store whose keys all start with prefix.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// SaveEvent creates or replaces an event. Replacing keeps the original
// position in the timeline.
func (s *Store) SaveEvent(ctx context.Context, event domain.UsageEvent) error {
	logger := observability.FromContext(ctx)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode usage event: %w", err)
	}

	seq, err := s.client.Incr(ctx, s.key(sequenceKey)).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(eventsKey), event.ID, data)
	pipe.ZAddNX(ctx, s.key(timelineKey), redis.Z{Score: float64(seq), Member: event.ID})

	if _, execErr := pipe.Exec(ctx); execErr != nil {
		logger.Error("usage event save failed",
			observability.String("event_id", event.ID),
			observability.Error(execErr))
		return fmt.Errorf("failed to save usage event: %w", execErr)
	}

	logger.Debug("usage event saved", observability.String("event_id", event.ID))
	return nil
}

// DeleteEvent removes an event and its timeline entry.
func (s *Store) DeleteEvent(ctx context.Context, eventID string) error {
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, s.key(eventsKey), eventID)
	pipe.ZRem(ctx, s.key(timelineKey), eventID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete usage event: %w", err)
	}
	return nil
}

// ListEvents returns every event in recording order.
func (s *Store) ListEvents(ctx context.Context) ([]domain.UsageEvent, error) {
	ids, err := s.client.ZRange(ctx, s.key(timelineKey), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read usage timeline: %w", err)
	}
	if len(ids) == 0 {
		return []domain.UsageEvent{}, nil
	}

	values, err := s.client.HMGet(ctx, s.key(eventsKey), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read usage events: %w", err)
	}

	events := make([]domain.UsageEvent, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Timeline entry without a body; skip it.
			observability.FromContext(ctx).Warn("usage event missing from hash",
				observability.String("event_id", ids[i]))
			continue
		}

		var event domain.UsageEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			return nil, fmt.Errorf("failed to decode usage event %s: %w", ids[i], err)
		}
		events = append(events, event)
	}

	return events, nil
}

func subscriptionField(toolID, month string) string {
	return month + "/" + toolID
}

// SaveSubscription creates or replaces a subscription.
func (s *Store) SaveSubscription(ctx context.Context, sub domain.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode subscription: %w", err)
	}

	field := subscriptionField(sub.ToolID, sub.BillingMonth)
	if err := s.client.HSet(ctx, s.key(subscriptionsKey), field, data).Err(); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes a subscription.
func (s *Store) DeleteSubscription(ctx context.Context, toolID, month string) error {
	field := subscriptionField(toolID, month)
	if err := s.client.HDel(ctx, s.key(subscriptionsKey), field).Err(); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns subscriptions ordered by month then tool.
func (s *Store) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	values, err := s.client.HGetAll(ctx, s.key(subscriptionsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions: %w", err)
	}

	fields := make([]string, 0, len(values))
	for field := range values {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	subs := make([]domain.Subscription, 0, len(fields))
	for _, field := range fields {
		var sub domain.Subscription
		if err := json.Unmarshal([]byte(values[field]), &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription %s: %w", field, err)
		}
		subs = append(subs, sub)
	}

	return subs, nil
}
