package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/filedepot-server/internal/apierrors"
	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
)

// Auth handles registration, login and current-account lookup.
type Auth struct {
	userStore    model.UserStore
	tokenManager model.TokenManager
	recorder     model.ActivityRecorder
	logger       *logger.Logger
}

func NewAuth(
	userStore model.UserStore,
	tokenManager model.TokenManager,
	recorder model.ActivityRecorder,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		tokenManager: tokenManager,
		recorder:     recorder,
		logger:       logger,
	}
}

// RegisterParams contains validated registration input.
type RegisterParams struct {
	Email    string
	Phone    *string
	Password string
	FullName string
}

// LoginParams contains login input. Either Email or Phone identifies the
// account.
type LoginParams struct {
	Email    string
	Phone    string
	Password string
}

// Register creates an account and issues its first token. The very first
// account ever created is promoted to admin; the rule is evaluated only
// at creation time and never again.
func (a *Auth) Register(ctx context.Context, params RegisterParams) (model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	a.logger.Debug("Auth service: starting registration", "email", email)

	_, err := a.userStore.GetByEmail(ctx, email)
	if err == nil {
		return model.User{}, "", apierrors.NewErrEmailTaken(email)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, "", fmt.Errorf("failed to get user by email: %w", err)
	}

	if params.Phone != nil {
		_, err := a.userStore.GetByPhone(ctx, *params.Phone)
		if err == nil {
			return model.User{}, "", apierrors.NewErrPhoneTaken(*params.Phone)
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.User{}, "", fmt.Errorf("failed to get user by phone: %w", err)
		}
	}

	count, err := a.userStore.Count(ctx)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to count users: %w", err)
	}

	role := model.RoleUser
	if count == 0 {
		role = model.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := model.User{
		ID:           uuid.New(),
		Email:        email,
		Phone:        params.Phone,
		PasswordHash: string(hash),
		FullName:     params.FullName,
		Role:         role,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := a.userStore.Create(ctx, user)
	if errors.Is(err, model.ErrConflict) {
		// Lost the race against a concurrent registration; the unique
		// constraint is the authority. Recheck to see which field collided.
		if _, lookupErr := a.userStore.GetByEmail(ctx, email); lookupErr == nil {
			return model.User{}, "", apierrors.NewErrEmailTaken(email)
		}
		if params.Phone != nil {
			return model.User{}, "", apierrors.NewErrPhoneTaken(*params.Phone)
		}
		return model.User{}, "", apierrors.NewErrEmailTaken(email)
	}
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := a.tokenManager.Generate(created.ID, created.Role)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: user registered",
		"user_id", created.ID,
		"role", created.Role)

	return created, token, nil
}

// Login verifies credentials and issues a token. Login itself is not
// blocked for disabled accounts; the authorization gate rejects their
// tokens on every subsequent call.
func (a *Auth) Login(ctx context.Context, params LoginParams) (model.User, string, error) {
	var (
		user model.User
		err  error
	)
	if params.Email != "" {
		user, err = a.userStore.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(params.Email)))
	} else {
		user, err = a.userStore.GetByPhone(ctx, params.Phone)
	}
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, "", apierrors.NewErrInvalidCredentials()
	}
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)); err != nil {
		return model.User{}, "", apierrors.NewErrInvalidCredentials()
	}

	token, err := a.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to issue token: %w", err)
	}

	a.recorder.Record(user.ID, model.ActionLogin, nil, map[string]any{"email": user.Email})

	a.logger.Info("Auth service: user logged in", "user_id", user.ID)

	return user, token, nil
}

// Me returns the current account.
func (a *Auth) Me(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, apierrors.NewErrUserNotFound()
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}
