package domain

import "context"

// UsageRepository persists usage events outside the core.
type UsageRepository interface {
	// SaveEvent creates or replaces an event.
	SaveEvent(ctx context.Context, event UsageEvent) error

	// DeleteEvent removes an event.
	DeleteEvent(ctx context.Context, eventID string) error

	// ListEvents returns every stored event in recording order.
	ListEvents(ctx context.Context) ([]UsageEvent, error)
}

// SubscriptionRepository persists subscriptions outside the core.
type SubscriptionRepository interface {
	// SaveSubscription creates or replaces a subscription.
	SaveSubscription(ctx context.Context, sub Subscription) error

	// DeleteSubscription removes the subscription for a tool and month.
	DeleteSubscription(ctx context.Context, toolID, month string) error

	// ListSubscriptions returns every stored subscription.
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
}

// ClientDirectory resolves client ids to presentation labels.
type ClientDirectory interface {
	// Lookup returns the label for a client id.
	Lookup(ctx context.Context, clientID string) (ClientInfo, bool)

	// List returns every known client.
	List(ctx context.Context) []ClientInfo
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
