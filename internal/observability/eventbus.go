package observability

import (
	"context"

	"go.uber.org/zap"
)

// EventBus implements the domain EventPublisher interface on top of the logger.
type EventBus struct {
	logger  *zap.Logger
	metrics *Metrics
}

// NewEventBus creates a new event bus. Either argument may be nil.
func NewEventBus(logger *zap.Logger, metrics *Metrics) *EventBus {
	return &EventBus{
		logger:  logger,
		metrics: metrics,
	}
}

// Publish publishes an event with the given type and data.
func (e *EventBus) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if e.metrics != nil {
		e.metrics.ObserveEvent(eventType)
	}

	if e.logger == nil {
		return
	}

	fields := make([]zap.Field, 0, len(data)+1)
	fields = append(fields, zap.String("event_type", eventType))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}

	e.logger.Info("domain event", fields...)
}
