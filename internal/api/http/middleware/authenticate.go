package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/filedepot-server/internal/api/http/handler"
	"github.com/dtroode/filedepot-server/internal/apierrors"
	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
)

// TokenParser verifies identity tokens.
type TokenParser interface {
	Parse(token string) (uuid.UUID, model.Role, error)
}

// AccountLoader resolves the current account state.
type AccountLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
}

// Authenticate is the authorization gate. It extracts the bearer token,
// verifies it, re-resolves the account from the store and checks its
// status before any resource-specific authorization runs. The token's
// role claim is never trusted on its own: the account is loaded fresh on
// every call, which is also what makes disabling an account an effective
// revocation of its outstanding tokens.
type Authenticate struct {
	tokens         TokenParser
	accounts       AccountLoader
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokens TokenParser, accounts AccountLoader, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		tokens:         tokens,
		accounts:       accounts,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Handle wraps next with the authorization gate.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			handler.WriteError(w, apierrors.NewErrMissingAuthorizationToken())
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		userID, _, err := m.tokens.Parse(tokenString)
		if err != nil {
			handler.WriteError(w, apierrors.NewErrInvalidAuthorizationToken())
			return
		}

		user, err := m.accounts.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				// Token is signed for an account that no longer exists.
				handler.WriteError(w, apierrors.NewErrInvalidAuthorizationToken())
				return
			}
			m.logger.Error("Authenticate middleware: failed to load account",
				"user_id", userID,
				"error", err.Error())
			handler.WriteError(w, err)
			return
		}

		// Status check must precede every resource-specific check.
		if user.Status == model.StatusDisabled {
			handler.WriteError(w, apierrors.NewErrAccountDisabled())
			return
		}

		ctx := m.contextManager.SetUserToContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin composes on top of Handle: it assumes the gate already
// resolved the account and rejects callers without the admin role. It is
// never a replacement for the gate itself.
func (m *Authenticate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.contextManager.GetUserFromContext(r.Context())
		if !ok {
			handler.WriteError(w, apierrors.NewErrMissingAuthorizationToken())
			return
		}

		if !user.IsAdmin() {
			handler.WriteError(w, apierrors.NewErrAdminRequired())
			return
		}

		next.ServeHTTP(w, r)
	})
}
