package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/filedepot-server/internal/apierrors"
	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
	"github.com/dtroode/filedepot-server/internal/service"
)

// FileService is the file registry surface the handler depends on.
type FileService interface {
	Upload(ctx context.Context, params service.UploadParams) (model.File, error)
	List(ctx context.Context, ownerID uuid.UUID, params model.ListFilesParams) ([]model.File, error)
	Get(ctx context.Context, requester model.User, fileID uuid.UUID) (model.File, error)
	Download(ctx context.Context, requester model.User, fileID uuid.UUID) (model.File, io.ReadCloser, error)
	Delete(ctx context.Context, requester model.User, fileID uuid.UUID) error
}

// multipartMemory caps how much of a multipart body is held in memory
// before spilling to disk.
const multipartMemory = 32 << 20

// File handles the file registry endpoints.
type File struct {
	service        FileService
	contextManager model.ContextManager
	logger         *logger.Logger
	maxUploadSize  int64
}

// NewFile creates a new File handler.
func NewFile(service FileService, contextManager model.ContextManager, logger *logger.Logger, maxUploadSize int64) *File {
	return &File{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
		maxUploadSize:  maxUploadSize,
	}
}

type fileResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func toFileResponse(f model.File) fileResponse {
	return fileResponse{
		ID:         f.ID,
		Name:       f.Name,
		Size:       f.Size,
		MimeType:   f.MimeType,
		URL:        f.StorageURL,
		UploadedAt: f.CreatedAt,
	}
}

func toFileResponses(files []model.File) []fileResponse {
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	return out
}

// Upload handles POST /api/files/upload with a multipart body carrying
// the payload under the "file" field.
func (h *File) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	// Leave headroom for the multipart framing around the payload.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		WriteError(w, apierrors.NewErrValidation("invalid multipart body"))
		return
	}

	payload, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, apierrors.NewErrValidation("file field is required"))
		return
	}
	defer payload.Close()

	file, err := h.service.Upload(r.Context(), service.UploadParams{
		OwnerID:  user.ID,
		Name:     header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Reader:   payload,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "file uploaded successfully",
		"file":    toFileResponse(file),
	})
}

// List handles GET /api/files with optional search, sort and order query
// parameters.
func (h *File) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	params := model.ListFilesParams{
		Search:    r.URL.Query().Get("search"),
		Sort:      parseSortKey(r.URL.Query().Get("sort")),
		Ascending: r.URL.Query().Get("order") == "asc",
	}

	files, err := h.service.List(r.Context(), user.ID, params)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"files": toFileResponses(files)})
}

// Get handles GET /api/files/{fileID}.
func (h *File) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	fileID, err := parseIDParam(r, "fileID")
	if err != nil {
		WriteError(w, err)
		return
	}

	file, err := h.service.Get(r.Context(), user, fileID)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"file": toFileResponse(file)})
}

// Download handles GET /api/files/{fileID}/download, streaming the blob
// back to the caller.
func (h *File) Download(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	fileID, err := parseIDParam(r, "fileID")
	if err != nil {
		WriteError(w, err)
		return
	}

	file, reader, err := h.service.Download(r.Context(), user, fileID)
	if err != nil {
		WriteError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))

	if _, err := io.Copy(w, reader); err != nil {
		// Headers are already out; all that is left is to log.
		h.logger.Error("File handler: failed to stream file",
			"file_id", file.ID,
			"error", err.Error())
	}
}

// Delete handles DELETE /api/files/{fileID}.
func (h *File) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	fileID, err := parseIDParam(r, "fileID")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), user, fileID); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"message": "file deleted successfully"})
}

func parseSortKey(s string) model.SortKey {
	switch s {
	case "name":
		return model.SortByName
	case "size":
		return model.SortBySize
	default:
		return model.SortByUploadDate
	}
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apierrors.NewErrValidation(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}
