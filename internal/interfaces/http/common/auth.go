package common

import (
	"context"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
)

type contextKey string

const authUserContextKey contextKey = "authUser"

// ContextWithUser stores the authenticated user into context.
func ContextWithUser(ctx context.Context, user admindomain.Identity) context.Context {
	return context.WithValue(ctx, authUserContextKey, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) (admindomain.Identity, bool) {
	user, ok := ctx.Value(authUserContextKey).(admindomain.Identity)
	return user, ok && user.ID != ""
}
