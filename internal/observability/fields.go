package observability

import "go.uber.org/zap"

// Field constructors re-exported so callers don't import zap directly.
//
//nolint:gochecknoglobals // function aliases
var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Float64  = zap.Float64
	Bool     = zap.Bool
	Duration = zap.Duration
	Error    = zap.Error
)
