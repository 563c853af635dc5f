package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKeys_Usage(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-456")
	ctx = WithComponent(ctx, "svg_reconciler")
	ctx = WithOperation(ctx, "reconcile")
	ctx = WithTokenID(ctx, "101")

	assert.Equal(t, "req-456", ctx.Value(RequestIDKey))
	assert.Equal(t, "svg_reconciler", ctx.Value(ComponentKey))
	assert.Equal(t, "reconcile", ctx.Value(OperationKey))
	assert.Equal(t, "101", ctx.Value(TokenIDKey))

	requestID, ok := RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-456", requestID)

	tokenID, ok := TokenIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "101", tokenID)
}

func TestContextKeys_AbsentValues(t *testing.T) {
	ctx := context.Background()

	_, ok := RequestIDFromContext(ctx)
	assert.False(t, ok)

	_, ok = TokenIDFromContext(ctx)
	assert.False(t, ok)
}
