package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/filedepot-server/internal/apierrors"
	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
)

// FileRegistry is the part of the file service the admin layer delegates
// to. Passing the admin account as requester engages the ownership
// override.
type FileRegistry interface {
	Delete(ctx context.Context, requester model.User, fileID uuid.UUID) error
}

// Admin is a thin policy layer over the stores. Every operation here is
// reachable only behind the authorization gate plus the admin-role check;
// the service itself assumes the actor has already been vetted.
type Admin struct {
	userStore     model.UserStore
	fileStore     model.FileStore
	activityStore model.ActivityStore
	fileRegistry  FileRegistry
	recorder      model.ActivityRecorder
	logger        *logger.Logger
}

func NewAdmin(
	userStore model.UserStore,
	fileStore model.FileStore,
	activityStore model.ActivityStore,
	fileRegistry FileRegistry,
	recorder model.ActivityRecorder,
	logger *logger.Logger,
) *Admin {
	return &Admin{
		userStore:     userStore,
		fileStore:     fileStore,
		activityStore: activityStore,
		fileRegistry:  fileRegistry,
		recorder:      recorder,
		logger:        logger,
	}
}

// UserDetail combines an account with its active files and recent
// activity for the admin detail view.
type UserDetail struct {
	User       model.User
	Files      []model.File
	Activities []model.Activity
}

// Stats aggregates the dashboard numbers.
type Stats struct {
	TotalUsers     int64
	TotalFiles     int64
	TotalStorage   int64
	StoragePerUser []model.OwnerUsage
	RecentActivity []model.Activity
}

const (
	userActivityLimit  = 20
	recentActivityLim  = 20
	storageByOwnerTopN = 10
)

func (s *Admin) ListUsers(ctx context.Context, params model.ListUsersParams) ([]model.User, int64, error) {
	users, total, err := s.userStore.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *Admin) GetUser(ctx context.Context, userID uuid.UUID) (UserDetail, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return UserDetail{}, apierrors.NewErrUserNotFound()
	}
	if err != nil {
		return UserDetail{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	files, err := s.fileStore.ListByOwner(ctx, userID, model.ListFilesParams{})
	if err != nil {
		return UserDetail{}, fmt.Errorf("failed to list user files: %w", err)
	}

	activities, err := s.activityStore.ListByActor(ctx, userID, userActivityLimit)
	if err != nil {
		return UserDetail{}, fmt.Errorf("failed to list user activity: %w", err)
	}

	return UserDetail{
		User:       user,
		Files:      files,
		Activities: activities,
	}, nil
}

// ChangeRole updates the target account's role and records the change
// with the acting admin as actor.
func (s *Admin) ChangeRole(ctx context.Context, actor model.User, targetID uuid.UUID, role model.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, apierrors.NewErrInvalidRole(string(role))
	}

	user, err := s.userStore.SetRole(ctx, targetID, role)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, apierrors.NewErrUserNotFound()
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to set user role: %w", err)
	}

	s.recorder.Record(actor.ID, model.ActionRoleChange, nil, map[string]any{
		"target_user": targetID.String(),
		"new_role":    string(role),
	})

	s.logger.Info("Admin service: user role changed",
		"actor_id", actor.ID,
		"target_id", targetID,
		"role", role)

	return user, nil
}

// Disable transitions the account to disabled. Outstanding tokens stay
// cryptographically valid but are rejected at the gate from now on.
func (s *Admin) Disable(ctx context.Context, actor model.User, targetID uuid.UUID) (model.User, error) {
	user, err := s.userStore.SetStatus(ctx, targetID, model.StatusDisabled)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, apierrors.NewErrUserNotFound()
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to disable user: %w", err)
	}

	s.recorder.Record(actor.ID, model.ActionAccountDisable, nil, map[string]any{
		"target_user": targetID.String(),
	})

	s.logger.Info("Admin service: user disabled",
		"actor_id", actor.ID,
		"target_id", targetID)

	return user, nil
}

// Enable transitions the account back to active.
func (s *Admin) Enable(ctx context.Context, actor model.User, targetID uuid.UUID) (model.User, error) {
	user, err := s.userStore.SetStatus(ctx, targetID, model.StatusActive)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, apierrors.NewErrUserNotFound()
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to enable user: %w", err)
	}

	s.logger.Info("Admin service: user enabled",
		"actor_id", actor.ID,
		"target_id", targetID)

	return user, nil
}

// DeleteUser removes the account. The transition is terminal: owned
// files are soft-deleted first, which resets the storage counter and
// leaves the blobs recoverable. The audit trail is unaffected since it
// references actors without a foreign key.
func (s *Admin) DeleteUser(ctx context.Context, actor model.User, targetID uuid.UUID) error {
	_, err := s.userStore.GetByID(ctx, targetID)
	if errors.Is(err, model.ErrNotFound) {
		return apierrors.NewErrUserNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	if err := s.fileStore.SoftDeleteByOwner(ctx, targetID); err != nil {
		return fmt.Errorf("failed to cascade file deletion: %w", err)
	}

	if err := s.userStore.Delete(ctx, targetID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apierrors.NewErrUserNotFound()
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("Admin service: user deleted",
		"actor_id", actor.ID,
		"target_id", targetID)

	return nil
}

func (s *Admin) ListFiles(ctx context.Context, params model.ListAllFilesParams) ([]model.File, int64, error) {
	files, total, err := s.fileStore.ListAll(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}
	return files, total, nil
}

// DeleteFile removes any user's file through the file registry with the
// admin override engaged.
func (s *Admin) DeleteFile(ctx context.Context, actor model.User, fileID uuid.UUID) error {
	return s.fileRegistry.Delete(ctx, actor, fileID)
}

func (s *Admin) GetStats(ctx context.Context) (Stats, error) {
	totalUsers, err := s.userStore.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count users: %w", err)
	}

	totals, err := s.fileStore.StorageTotals(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate storage totals: %w", err)
	}

	perUser, err := s.fileStore.StorageByOwner(ctx, storageByOwnerTopN)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate storage by owner: %w", err)
	}

	recent, err := s.activityStore.ListRecent(ctx, recentActivityLim)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list recent activity: %w", err)
	}

	return Stats{
		TotalUsers:     totalUsers,
		TotalFiles:     totals.TotalFiles,
		TotalStorage:   totals.TotalBytes,
		StoragePerUser: perUser,
		RecentActivity: recent,
	}, nil
}
