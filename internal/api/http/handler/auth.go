package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dtroode/filedepot-server/internal/apierrors"
	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
	"github.com/dtroode/filedepot-server/internal/service"
)

// AuthService is the auth surface the handler depends on.
type AuthService interface {
	Register(ctx context.Context, params service.RegisterParams) (model.User, string, error)
	Login(ctx context.Context, params service.LoginParams) (model.User, string, error)
	Me(ctx context.Context, userID uuid.UUID) (model.User, error)
}

// Auth handles registration, login and current-account endpoints.
type Auth struct {
	service        AuthService
	contextManager model.ContextManager
	validate       *validator.Validate
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(service AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		service:        service,
		contextManager: contextManager,
		validate:       validator.New(),
		logger:         logger,
	}
}

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone" validate:"omitempty,min=5"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName string  `json:"fullName" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	FullName    string    `json:"fullName"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	StorageUsed int64     `json:"storageUsed"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Phone:       u.Phone,
		FullName:    u.FullName,
		Role:        string(u.Role),
		Status:      string(u.Status),
		StorageUsed: u.StorageUsed,
		CreatedAt:   u.CreatedAt,
	}
}

type authResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, apierrors.NewErrValidation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, apierrors.NewErrValidation(err.Error()))
		return
	}

	user, token, err := h.service.Register(r.Context(), service.RegisterParams{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, authResponse{
		Message: "registered successfully",
		Token:   token,
		User:    toUserResponse(user),
	})
}

// Login handles POST /api/auth/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, apierrors.NewErrValidation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, apierrors.NewErrValidation(err.Error()))
		return
	}
	if req.Email == "" && req.Phone == "" {
		WriteError(w, apierrors.NewErrValidation("email or phone is required"))
		return
	}

	user, token, err := h.service.Login(r.Context(), service.LoginParams{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{
		Message: "logged in successfully",
		Token:   token,
		User:    toUserResponse(user),
	})
}

// Me handles GET /api/auth/me. The gate already resolved the account but
// the service is asked again so the response reflects store state.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	user, err := h.service.Me(r.Context(), current.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}
