package context

import (
	"context"

	"github.com/dtroode/filedepot-server/internal/model"
)

// ctxKey is a private type for context keys to avoid collisions.
type ctxKey int

const userKey ctxKey = iota

// Manager attaches the resolved account to the request context. The
// authorization gate stores the account here after verifying token,
// existence and status; downstream handlers read it back.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetUserToContext returns a child context carrying the resolved account.
func (m *Manager) SetUserToContext(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext retrieves the resolved account, reporting whether it
// was present.
func (m *Manager) GetUserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey).(model.User)
	return user, ok
}
