package domain

import "errors"

var (
	// ErrEmptyToolID indicates a request without a tool id.
	ErrEmptyToolID = errors.New("tool id cannot be empty")

	// ErrEmptyClientID indicates a usage event without a client id.
	ErrEmptyClientID = errors.New("client id cannot be empty")

	// ErrEmptyEventID indicates a usage event without an id.
	ErrEmptyEventID = errors.New("usage event id cannot be empty")

	// ErrUnknownTool indicates a tool id that is not in the catalog.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateTool indicates a catalog load with two tools sharing an id.
	ErrDuplicateTool = errors.New("duplicate tool id")

	// ErrInvalidStrategy indicates a malformed pricing strategy.
	ErrInvalidStrategy = errors.New("invalid pricing strategy")

	// ErrNegativeAmount indicates a negative cost, quantity, duration or credit count.
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrEventNotFound indicates an unknown usage event id.
	ErrEventNotFound = errors.New("usage event not found")

	// ErrDuplicateEvent indicates a usage event id that is already recorded.
	ErrDuplicateEvent = errors.New("usage event already recorded")

	// ErrSubscriptionExists indicates a second subscription for the same tool and month.
	ErrSubscriptionExists = errors.New("subscription already exists for tool and month")

	// ErrSubscriptionNotFound indicates an unknown (tool, month) pair.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrInvalidMonth indicates a billing month not in YYYY-MM form.
	ErrInvalidMonth = errors.New("billing month must be formatted as YYYY-MM")
)
