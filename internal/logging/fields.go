package logging

import (
	"context"
	"log/slog"
	"time"

	"framepress/internal/services"
)

// Structured keys shared by every framepress component.
const (
	FieldComponent     = "component"
	FieldJobID         = "job_id"
	FieldOperation     = "operation"
	FieldTier          = "tier"
	FieldCorrelationID = "correlation_id"
	FieldProgress      = "progress"
)

func String(key, value string) slog.Attr                 { return slog.String(key, value) }
func Int(key string, value int) slog.Attr                { return slog.Int(key, value) }
func Float64(key string, value float64) slog.Attr        { return slog.Float64(key, value) }
func Bool(key string, value bool) slog.Attr              { return slog.Bool(key, value) }
func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

// Error keys err under "error". A nil error is rendered explicitly so the
// line still shows that an error slot was populated.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields a
// no-op logger so constructors never have to nil-check.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop().With(FieldComponent, component)
	}
	return logger.With(FieldComponent, component)
}

// WithContext adds the job, operation, and correlation identifiers carried by
// ctx to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	add := func(key string, value string, ok bool) {
		if ok {
			args = append(args, slog.String(key, value))
		}
	}
	id, ok := services.JobIDFromContext(ctx)
	add(FieldJobID, id, ok)
	op, ok := services.OperationFromContext(ctx)
	add(FieldOperation, op, ok)
	rid, ok := services.RequestIDFromContext(ctx)
	add(FieldCorrelationID, rid, ok)
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
