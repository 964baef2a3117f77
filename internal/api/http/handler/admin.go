package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dtroode/filedepot-server/internal/apierrors"
	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
	"github.com/dtroode/filedepot-server/internal/service"
)

// AdminService is the admin surface the handler depends on.
type AdminService interface {
	ListUsers(ctx context.Context, params model.ListUsersParams) ([]model.User, int64, error)
	GetUser(ctx context.Context, userID uuid.UUID) (service.UserDetail, error)
	ChangeRole(ctx context.Context, actor model.User, targetID uuid.UUID, role model.Role) (model.User, error)
	Disable(ctx context.Context, actor model.User, targetID uuid.UUID) (model.User, error)
	Enable(ctx context.Context, actor model.User, targetID uuid.UUID) (model.User, error)
	DeleteUser(ctx context.Context, actor model.User, targetID uuid.UUID) error
	ListFiles(ctx context.Context, params model.ListAllFilesParams) ([]model.File, int64, error)
	DeleteFile(ctx context.Context, actor model.User, fileID uuid.UUID) error
	GetStats(ctx context.Context) (service.Stats, error)
}

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Admin handles the admin endpoints. Routing guarantees the requester
// already passed the gate and the admin-role check.
type Admin struct {
	service        AdminService
	contextManager model.ContextManager
	validate       *validator.Validate
	logger         *logger.Logger
}

// NewAdmin creates a new Admin handler.
func NewAdmin(service AdminService, contextManager model.ContextManager, logger *logger.Logger) *Admin {
	return &Admin{
		service:        service,
		contextManager: contextManager,
		validate:       validator.New(),
		logger:         logger,
	}
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

type activityResponse struct {
	ID        uuid.UUID      `json:"id"`
	ActorID   uuid.UUID      `json:"actorId"`
	Action    string         `json:"action"`
	FileID    *uuid.UUID     `json:"fileId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toActivityResponses(entries []model.Activity) []activityResponse {
	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityResponse{
			ID:        e.ID,
			ActorID:   e.ActorID,
			Action:    string(e.Action),
			FileID:    e.FileID,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

type adminFileResponse struct {
	fileResponse
	OwnerID uuid.UUID `json:"ownerId"`
}

func toAdminFileResponses(files []model.File) []adminFileResponse {
	out := make([]adminFileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, adminFileResponse{
			fileResponse: toFileResponse(f),
			OwnerID:      f.OwnerID,
		})
	}
	return out
}

// ListUsers handles GET /api/admin/users with search and pagination.
func (h *Admin) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	params := model.ListUsersParams{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		WriteError(w, err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"users": responses,
		"total": total,
		"page":  page,
		"pages": pageCount(total, limit),
	})
}

// GetUser handles GET /api/admin/users/{userID}.
func (h *Admin) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	detail, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user":     toUserResponse(detail.User),
		"files":    toFileResponses(detail.Files),
		"activity": toActivityResponses(detail.Activities),
	})
}

// ChangeRole handles PATCH /api/admin/users/{userID}/role.
func (h *Admin) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	targetID, err := parseIDParam(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, apierrors.NewErrValidation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, apierrors.NewErrValidation(err.Error()))
		return
	}

	user, err := h.service.ChangeRole(r.Context(), actor, targetID, model.Role(req.Role))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "role updated successfully",
		"user":    toUserResponse(user),
	})
}

// DisableUser handles PATCH /api/admin/users/{userID}/disable.
func (h *Admin) DisableUser(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusDisabled)
}

// EnableUser handles PATCH /api/admin/users/{userID}/enable.
func (h *Admin) EnableUser(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusActive)
}

func (h *Admin) setStatus(w http.ResponseWriter, r *http.Request, status model.Status) {
	actor, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	targetID, err := parseIDParam(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	var user model.User
	var message string
	if status == model.StatusDisabled {
		user, err = h.service.Disable(r.Context(), actor, targetID)
		message = "user disabled successfully"
	} else {
		user, err = h.service.Enable(r.Context(), actor, targetID)
		message = "user enabled successfully"
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"user":    toUserResponse(user),
	})
}

// DeleteUser handles DELETE /api/admin/users/{userID}.
func (h *Admin) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	targetID, err := parseIDParam(r, "userID")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.service.DeleteUser(r.Context(), actor, targetID); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"message": "user deleted successfully"})
}

// ListFiles handles GET /api/admin/files with pagination.
func (h *Admin) ListFiles(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	files, total, err := h.service.ListFiles(r.Context(), model.ListAllFilesParams{
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"files": toAdminFileResponses(files),
		"total": total,
		"page":  page,
		"pages": pageCount(total, limit),
	})
}

// DeleteFile handles DELETE /api/admin/files/{fileID}.
func (h *Admin) DeleteFile(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	fileID, err := parseIDParam(r, "fileID")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.service.DeleteFile(r.Context(), actor, fileID); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"message": "file deleted successfully"})
}

type ownerUsageResponse struct {
	OwnerID    uuid.UUID `json:"ownerId"`
	OwnerEmail string    `json:"ownerEmail"`
	TotalBytes int64     `json:"totalBytes"`
	FileCount  int64     `json:"fileCount"`
}

// GetStats handles GET /api/admin/stats.
func (h *Admin) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	perUser := make([]ownerUsageResponse, 0, len(stats.StoragePerUser))
	for _, u := range stats.StoragePerUser {
		perUser = append(perUser, ownerUsageResponse{
			OwnerID:    u.OwnerID,
			OwnerEmail: u.OwnerEmail,
			TotalBytes: u.TotalBytes,
			FileCount:  u.FileCount,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"totalUsers":     stats.TotalUsers,
		"totalFiles":     stats.TotalFiles,
		"totalStorage":   stats.TotalStorage,
		"storagePerUser": perUser,
		"recentActivity": toActivityResponses(stats.RecentActivity),
	})
}

func parsePagination(r *http.Request) (page, limit int) {
	page = defaultPage
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxLimit)
	}
	return page, limit
}

func pageCount(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
