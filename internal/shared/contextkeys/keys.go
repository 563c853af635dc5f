package contextkeys

import "context"

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// RequestIDKey identifies a single HTTP request across log lines
	RequestIDKey ContextKey = "requestID"
	// ComponentKey names the subsystem emitting the log entry
	ComponentKey ContextKey = "component"
	// OperationKey names the logical operation in progress
	OperationKey ContextKey = "operation"
	// TokenIDKey carries the NFT token id a unit of work is processing
	TokenIDKey ContextKey = "tokenID"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithComponent adds a component name to the context
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

// WithOperation adds an operation name to the context
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, OperationKey, operation)
}

// WithTokenID adds a token id to the context
func WithTokenID(ctx context.Context, tokenID string) context.Context {
	return context.WithValue(ctx, TokenIDKey, tokenID)
}

// RequestIDFromContext extracts the request ID, if any
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(RequestIDKey).(string)
	return v, ok
}

// TokenIDFromContext extracts the token id, if any
func TokenIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(TokenIDKey).(string)
	return v, ok
}
