package services

import "context"

type contextKey int

const (
	callHandleKey contextKey = iota
	stageKey
	requestIDKey
)

// WithCallHandle annotates ctx with the external call handle.
func WithCallHandle(ctx context.Context, handle string) context.Context {
	return withString(ctx, callHandleKey, handle)
}

// CallHandleFromContext returns the external call handle carried by ctx.
func CallHandleFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, callHandleKey)
}

// WithStage annotates ctx with the lifecycle stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey)
}

// WithRequestID annotates ctx with a correlation id. API requests and the
// lifecycles they start share one id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}

// Empty values leave ctx unchanged so an outer annotation survives.
func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
