package httpserver

import (
	"context"

	"github.com/taskflow/backend/internal/model"
)

type ctxKey string

const currentUserKey ctxKey = "taskflow.currentUser"

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// UserFromCtx fetches the authenticated user from context.
func UserFromCtx(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(currentUserKey).(*model.User)
	return u, ok && u != nil
}
