// Package audit fills authorship fields from the request context.
package audit

import (
	"context"

	appctx "garageflow/internal/core/context"
)

// Authored is implemented by entities carrying CreatedBy/UpdatedBy.
type Authored interface {
	SetCreatedBy(string)
	SetUpdatedBy(string)
}

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the user in ctx.
// Use in BeforeCreate hooks. No-op without a user.
func EnrichCreatedBy[T Authored](ctx context.Context, e T) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}
	e.SetCreatedBy(userID)
	e.SetUpdatedBy(userID)
	return nil
}

// EnrichUpdatedBy sets UpdatedBy only. Use in BeforeUpdate hooks.
func EnrichUpdatedBy[T Authored](ctx context.Context, e T) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}
	e.SetUpdatedBy(userID)
	return nil
}
