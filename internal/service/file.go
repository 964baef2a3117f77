package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dtroode/filedepot-server/internal/apierrors"
	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
)

// File implements the file registry: uploads, per-owner listing and
// ownership-checked access. Ownership is the sole authorization axis for
// non-admin callers; there is no sharing and no link-based access.
type File struct {
	fileStore    model.FileStore
	userStore    model.UserStore
	storage      model.Storage
	recorder     model.ActivityRecorder
	logger       *logger.Logger
	maxFileSize  int64
	allowedTypes map[string]struct{}
}

func NewFile(
	fileStore model.FileStore,
	userStore model.UserStore,
	storage model.Storage,
	recorder model.ActivityRecorder,
	logger *logger.Logger,
	maxFileSize int64,
	allowedTypes []string,
) *File {
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = struct{}{}
	}
	return &File{
		fileStore:    fileStore,
		userStore:    userStore,
		storage:      storage,
		recorder:     recorder,
		logger:       logger,
		maxFileSize:  maxFileSize,
		allowedTypes: allowed,
	}
}

// UploadParams contains validated upload input.
type UploadParams struct {
	OwnerID  uuid.UUID
	Name     string
	Size     int64
	MimeType string
	Reader   io.Reader
}

// Upload validates the payload, streams it to the blob store and only
// then creates the metadata record. A blob failure leaves no record
// behind; a metadata failure triggers a compensating blob delete.
func (s *File) Upload(ctx context.Context, params UploadParams) (model.File, error) {
	_, err := s.userStore.GetByID(ctx, params.OwnerID)
	if errors.Is(err, model.ErrNotFound) {
		return model.File{}, apierrors.NewErrUserNotFound()
	}
	if err != nil {
		return model.File{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if params.Size <= 0 {
		return model.File{}, apierrors.NewErrEmptyFile()
	}
	if params.Size > s.maxFileSize {
		return model.File{}, apierrors.NewErrFileTooLarge(s.maxFileSize)
	}
	if _, ok := s.allowedTypes[params.MimeType]; !ok {
		return model.File{}, apierrors.NewErrInvalidFileType(params.MimeType)
	}

	key := storageKey(params.OwnerID, params.Name)

	url, err := s.storage.Upload(ctx, key, params.Reader, params.Size, params.MimeType)
	if err != nil {
		s.logger.Error("File service: blob upload failed",
			"owner_id", params.OwnerID,
			"key", key,
			"error", err.Error())
		return model.File{}, apierrors.NewErrUploadFailed()
	}

	file := model.File{
		ID:         uuid.New(),
		OwnerID:    params.OwnerID,
		Name:       params.Name,
		Size:       params.Size,
		MimeType:   params.MimeType,
		StorageKey: key,
		StorageURL: url,
	}

	saved, err := s.fileStore.Create(ctx, file)
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Error("File service: failed to delete orphaned blob",
				"key", key,
				"error", delErr.Error())
		}
		return model.File{}, fmt.Errorf("failed to create file record: %w", err)
	}

	s.recorder.Record(params.OwnerID, model.ActionUpload, &saved.ID, map[string]any{
		"name": saved.Name,
		"size": saved.Size,
	})

	s.logger.Info("File service: file uploaded",
		"file_id", saved.ID,
		"owner_id", saved.OwnerID,
		"size", saved.Size)

	return saved, nil
}

// List returns the requester's own non-deleted files.
func (s *File) List(ctx context.Context, ownerID uuid.UUID, params model.ListFilesParams) ([]model.File, error) {
	files, err := s.fileStore.ListByOwner(ctx, ownerID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list files by owner: %w", err)
	}

	return files, nil
}

// Get returns a file if the requester owns it or holds the admin
// override.
func (s *File) Get(ctx context.Context, requester model.User, fileID uuid.UUID) (model.File, error) {
	file, err := s.fileStore.GetByID(ctx, fileID)
	if errors.Is(err, model.ErrNotFound) {
		return model.File{}, apierrors.NewErrFileNotFound()
	}
	if err != nil {
		return model.File{}, fmt.Errorf("failed to get file by id: %w", err)
	}

	if file.OwnerID != requester.ID && !requester.IsAdmin() {
		return model.File{}, apierrors.NewErrAccessDenied()
	}

	return file, nil
}

// Download returns the file and a stream of its content. Same ownership
// rule as Get.
func (s *File) Download(ctx context.Context, requester model.User, fileID uuid.UUID) (model.File, io.ReadCloser, error) {
	file, err := s.Get(ctx, requester, fileID)
	if err != nil {
		return model.File{}, nil, err
	}

	reader, err := s.storage.Download(ctx, file.StorageKey)
	if err != nil {
		return model.File{}, nil, fmt.Errorf("failed to download from storage: %w", err)
	}

	s.recorder.Record(requester.ID, model.ActionDownload, &file.ID, map[string]any{"name": file.Name})

	return file, reader, nil
}

// Delete soft-deletes a file. Admin callers may delete any file; other
// callers only their own. The repository transition is conditional, so a
// repeated delete reports NotFound and the owner's storage counter is
// decremented exactly once. The blob is retained for possible recovery.
func (s *File) Delete(ctx context.Context, requester model.User, fileID uuid.UUID) error {
	file, err := s.fileStore.GetByID(ctx, fileID)
	if errors.Is(err, model.ErrNotFound) {
		return apierrors.NewErrFileNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to get file by id: %w", err)
	}

	if file.OwnerID != requester.ID && !requester.IsAdmin() {
		return apierrors.NewErrAccessDenied()
	}

	if err := s.fileStore.SoftDelete(ctx, fileID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apierrors.NewErrFileNotFound()
		}
		return fmt.Errorf("failed to soft delete file: %w", err)
	}

	metadata := map[string]any{"name": file.Name}
	if file.OwnerID != requester.ID {
		metadata["owner_id"] = file.OwnerID.String()
		metadata["reason"] = "admin deletion"
	}
	s.recorder.Record(requester.ID, model.ActionDelete, &file.ID, metadata)

	s.logger.Info("File service: file deleted",
		"file_id", file.ID,
		"requester_id", requester.ID)

	return nil
}

func storageKey(ownerID uuid.UUID, name string) string {
	return fmt.Sprintf("user-%s/%s-%s", ownerID.String(), uuid.NewString(), name)
}
