package services

import (
	"context"

	"github.com/google/uuid"
)

// ctxKey scopes framepress values stored on a context.
type ctxKey int

const (
	jobIDKey ctxKey = iota
	operationKey
	requestIDKey
)

func withValue(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func value(ctx context.Context, key ctxKey) (string, bool) {
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithJobID tags ctx with the identifier of one scoped engine job.
func WithJobID(ctx context.Context, id string) context.Context {
	return withValue(ctx, jobIDKey, id)
}

func JobIDFromContext(ctx context.Context) (string, bool) {
	return value(ctx, jobIDKey)
}

// EnsureJobID keeps an existing job identifier or stamps a new UUID.
func EnsureJobID(ctx context.Context) (context.Context, string) {
	if id, ok := value(ctx, jobIDKey); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return withValue(ctx, jobIDKey, id), id
}

// WithOperation records which public operation (thumbnail, duration,
// quality_ladder, ...) the work belongs to. Metrics and logs label by it.
func WithOperation(ctx context.Context, operation string) context.Context {
	return withValue(ctx, operationKey, operation)
}

func OperationFromContext(ctx context.Context) (string, bool) {
	return value(ctx, operationKey)
}

// WithRequestID attaches a caller-supplied correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return value(ctx, requestIDKey)
}
