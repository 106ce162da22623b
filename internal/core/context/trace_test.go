package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogFields(t *testing.T) {
	assert.Empty(t, LogFields(context.Background()))

	ctx := WithTrace(context.Background(), &TraceContext{TraceID: "t", RequestID: "r"})
	assert.Equal(t, []any{"trace_id", "t", "request_id", "r"}, LogFields(ctx))

	ctx = WithUser(ctx, &UserContext{UserID: "u"})
	assert.Equal(t, []any{"trace_id", "t", "request_id", "r", "user_id", "u"}, LogFields(ctx))

	ctx = WithUser(ctx, &UserContext{UserID: "u", GarageID: "g"})
	assert.Equal(t, []any{"trace_id", "t", "request_id", "r", "user_id", "u", "garage_id", "g"}, LogFields(ctx))
}
