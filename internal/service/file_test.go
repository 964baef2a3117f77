package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/filedepot-server/internal/apierrors"
	"github.com/dtroode/filedepot-server/internal/model"
	"github.com/dtroode/filedepot-server/internal/testutil"
)

// MockFileStore mocks the FileStore interface
type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Create(ctx context.Context, file model.File) (model.File, error) {
	args := m.Called(ctx, file)
	return args.Get(0).(model.File), args.Error(1)
}

func (m *MockFileStore) GetByID(ctx context.Context, id uuid.UUID) (model.File, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.File), args.Error(1)
}

func (m *MockFileStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, params model.ListFilesParams) ([]model.File, error) {
	args := m.Called(ctx, ownerID, params)
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFileStore) SoftDeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func (m *MockFileStore) ListAll(ctx context.Context, params model.ListAllFilesParams) ([]model.File, int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]model.File), args.Get(1).(int64), args.Error(2)
}

func (m *MockFileStore) StorageByOwner(ctx context.Context, limit int) ([]model.OwnerUsage, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.OwnerUsage), args.Error(1)
}

func (m *MockFileStore) StorageTotals(ctx context.Context) (model.StorageTotals, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.StorageTotals), args.Error(1)
}

// MockStorage mocks the Storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func newFileService(fileStore *MockFileStore, userStore *MockUserStore, storage *MockStorage, recorder *MockRecorder) *File {
	return NewFile(fileStore, userStore, storage, recorder, testutil.MakeNoopLogger(), 1024, []string{"application/pdf", "image/png"})
}

func TestFileService_Upload(t *testing.T) {
	ownerID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	tests := []struct {
		name      string
		params    UploadParams
		mockSetup func(*MockFileStore, *MockUserStore, *MockStorage, *MockRecorder)
		wantCode  string
	}{
		{
			name: "successful upload",
			params: UploadParams{
				OwnerID:  ownerID,
				Name:     "report.pdf",
				Size:     512,
				MimeType: "application/pdf",
				Reader:   bytes.NewReader(make([]byte, 512)),
			},
			mockSetup: func(fileStore *MockFileStore, userStore *MockUserStore, storage *MockStorage, recorder *MockRecorder) {
				userStore.On("GetByID", mock.Anything, ownerID).Return(model.User{ID: ownerID}, nil)
				storage.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "user-"+ownerID.String()+"/") && strings.HasSuffix(key, "-report.pdf")
				}), mock.Anything, int64(512), "application/pdf").Return("http://localhost:9000/files/key", nil)
				fileStore.On("Create", mock.Anything, mock.MatchedBy(func(f model.File) bool {
					return f.OwnerID == ownerID && f.Name == "report.pdf" && f.Size == 512
				})).Return(model.File{ID: uuid.New(), OwnerID: ownerID, Name: "report.pdf", Size: 512}, nil)
				recorder.On("Record", ownerID, model.ActionUpload, mock.Anything, mock.Anything).Return()
			},
		},
		{
			name: "owner does not exist",
			params: UploadParams{
				OwnerID:  ownerID,
				Name:     "report.pdf",
				Size:     512,
				MimeType: "application/pdf",
			},
			mockSetup: func(fileStore *MockFileStore, userStore *MockUserStore, storage *MockStorage, recorder *MockRecorder) {
				userStore.On("GetByID", mock.Anything, ownerID).Return(model.User{}, model.ErrNotFound)
			},
			wantCode: "USER_NOT_FOUND",
		},
		{
			name: "empty file rejected",
			params: UploadParams{
				OwnerID:  ownerID,
				Name:     "empty.pdf",
				Size:     0,
				MimeType: "application/pdf",
			},
			mockSetup: func(fileStore *MockFileStore, userStore *MockUserStore, storage *MockStorage, recorder *MockRecorder) {
				userStore.On("GetByID", mock.Anything, ownerID).Return(model.User{ID: ownerID}, nil)
			},
			wantCode: "EMPTY_FILE",
		},
		{
			name: "oversized file rejected",
			params: UploadParams{
				OwnerID:  ownerID,
				Name:     "big.pdf",
				Size:     4096,
				MimeType: "application/pdf",
			},
			mockSetup: func(fileStore *MockFileStore, userStore *MockUserStore, storage *MockStorage, recorder *MockRecorder) {
				userStore.On("GetByID", mock.Anything, ownerID).Return(model.User{ID: ownerID}, nil)
			},
			wantCode: "FILE_TOO_LARGE",
		},
		{
			name: "disallowed type rejected",
			params: UploadParams{
				OwnerID:  ownerID,
				Name:     "script.sh",
				Size:     64,
				MimeType: "application/x-sh",
			},
			mockSetup: func(fileStore *MockFileStore, userStore *MockUserStore, storage *MockStorage, recorder *MockRecorder) {
				userStore.On("GetByID", mock.Anything, ownerID).Return(model.User{ID: ownerID}, nil)
			},
			wantCode: "INVALID_FILE_TYPE",
		},
		{
			name: "blob upload failure leaves no record",
			params: UploadParams{
				OwnerID:  ownerID,
				Name:     "report.pdf",
				Size:     512,
				MimeType: "application/pdf",
			},
			mockSetup: func(fileStore *MockFileStore, userStore *MockUserStore, storage *MockStorage, recorder *MockRecorder) {
				userStore.On("GetByID", mock.Anything, ownerID).Return(model.User{ID: ownerID}, nil)
				storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, int64(512), "application/pdf").Return("", errors.New("connection refused"))
			},
			wantCode: "UPLOAD_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileStore := &MockFileStore{}
			userStore := &MockUserStore{}
			storage := &MockStorage{}
			recorder := &MockRecorder{}
			tt.mockSetup(fileStore, userStore, storage, recorder)

			svc := newFileService(fileStore, userStore, storage, recorder)

			file, err := svc.Upload(context.Background(), tt.params)

			if tt.wantCode != "" {
				var apiErr *apierrors.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, file.ID)
			}

			fileStore.AssertExpectations(t)
			userStore.AssertExpectations(t)
			storage.AssertExpectations(t)
		})
	}
}

func TestFileService_Upload_CompensatesOnCreateFailure(t *testing.T) {
	ownerID := uuid.New()

	fileStore := &MockFileStore{}
	userStore := &MockUserStore{}
	storage := &MockStorage{}
	recorder := &MockRecorder{}

	userStore.On("GetByID", mock.Anything, ownerID).Return(model.User{ID: ownerID}, nil)
	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, int64(256), "image/png").Return("http://localhost:9000/files/key", nil)
	fileStore.On("Create", mock.Anything, mock.Anything).Return(model.File{}, errors.New("database error"))
	storage.On("Delete", mock.Anything, mock.Anything).Return(nil)

	svc := newFileService(fileStore, userStore, storage, recorder)

	_, err := svc.Upload(context.Background(), UploadParams{
		OwnerID:  ownerID,
		Name:     "photo.png",
		Size:     256,
		MimeType: "image/png",
		Reader:   bytes.NewReader(make([]byte, 256)),
	})

	require.Error(t, err)
	storage.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestFileService_Get(t *testing.T) {
	ownerID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	fileID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440001")

	tests := []struct {
		name      string
		requester model.User
		mockSetup func(*MockFileStore)
		wantCode  string
	}{
		{
			name:      "owner can read own file",
			requester: model.User{ID: ownerID, Role: model.RoleUser},
			mockSetup: func(fileStore *MockFileStore) {
				fileStore.On("GetByID", mock.Anything, fileID).Return(model.File{ID: fileID, OwnerID: ownerID}, nil)
			},
		},
		{
			name:      "admin can read any file",
			requester: model.User{ID: uuid.New(), Role: model.RoleAdmin},
			mockSetup: func(fileStore *MockFileStore) {
				fileStore.On("GetByID", mock.Anything, fileID).Return(model.File{ID: fileID, OwnerID: ownerID}, nil)
			},
		},
		{
			name:      "stranger is denied",
			requester: model.User{ID: uuid.New(), Role: model.RoleUser},
			mockSetup: func(fileStore *MockFileStore) {
				fileStore.On("GetByID", mock.Anything, fileID).Return(model.File{ID: fileID, OwnerID: ownerID}, nil)
			},
			wantCode: "ACCESS_DENIED",
		},
		{
			name:      "missing file",
			requester: model.User{ID: ownerID},
			mockSetup: func(fileStore *MockFileStore) {
				fileStore.On("GetByID", mock.Anything, fileID).Return(model.File{}, model.ErrNotFound)
			},
			wantCode: "FILE_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileStore := &MockFileStore{}
			tt.mockSetup(fileStore)

			svc := newFileService(fileStore, &MockUserStore{}, &MockStorage{}, &MockRecorder{})

			file, err := svc.Get(context.Background(), tt.requester, fileID)

			if tt.wantCode != "" {
				var apiErr *apierrors.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
			} else {
				require.NoError(t, err)
				assert.Equal(t, fileID, file.ID)
			}

			fileStore.AssertExpectations(t)
		})
	}
}

func TestFileService_Download(t *testing.T) {
	ownerID := uuid.New()
	fileID := uuid.New()

	fileStore := &MockFileStore{}
	storage := &MockStorage{}
	recorder := &MockRecorder{}

	fileStore.On("GetByID", mock.Anything, fileID).Return(model.File{ID: fileID, OwnerID: ownerID, Name: "report.pdf", StorageKey: "key"}, nil)
	storage.On("Download", mock.Anything, "key").Return(io.NopCloser(strings.NewReader("content")), nil)
	recorder.On("Record", ownerID, model.ActionDownload, mock.Anything, mock.Anything).Return()

	svc := newFileService(fileStore, &MockUserStore{}, storage, recorder)

	file, reader, err := svc.Download(context.Background(), model.User{ID: ownerID}, fileID)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "report.pdf", file.Name)

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))
}

func TestFileService_Delete(t *testing.T) {
	ownerID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	fileID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440001")
	adminID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440002")

	tests := []struct {
		name      string
		requester model.User
		mockSetup func(*MockFileStore, *MockRecorder)
		wantCode  string
	}{
		{
			name:      "owner deletes own file",
			requester: model.User{ID: ownerID, Role: model.RoleUser},
			mockSetup: func(fileStore *MockFileStore, recorder *MockRecorder) {
				fileStore.On("GetByID", mock.Anything, fileID).Return(model.File{ID: fileID, OwnerID: ownerID, Name: "report.pdf"}, nil)
				fileStore.On("SoftDelete", mock.Anything, fileID).Return(nil)
				recorder.On("Record", ownerID, model.ActionDelete, mock.Anything, mock.MatchedBy(func(md map[string]any) bool {
					_, hasReason := md["reason"]
					return !hasReason
				})).Return()
			},
		},
		{
			name:      "admin deletes another user's file with reason recorded",
			requester: model.User{ID: adminID, Role: model.RoleAdmin},
			mockSetup: func(fileStore *MockFileStore, recorder *MockRecorder) {
				fileStore.On("GetByID", mock.Anything, fileID).Return(model.File{ID: fileID, OwnerID: ownerID, Name: "report.pdf"}, nil)
				fileStore.On("SoftDelete", mock.Anything, fileID).Return(nil)
				recorder.On("Record", adminID, model.ActionDelete, mock.Anything, mock.MatchedBy(func(md map[string]any) bool {
					return md["owner_id"] == ownerID.String() && md["reason"] == "admin deletion"
				})).Return()
			},
		},
		{
			name:      "stranger is denied",
			requester: model.User{ID: uuid.New(), Role: model.RoleUser},
			mockSetup: func(fileStore *MockFileStore, recorder *MockRecorder) {
				fileStore.On("GetByID", mock.Anything, fileID).Return(model.File{ID: fileID, OwnerID: ownerID}, nil)
			},
			wantCode: "ACCESS_DENIED",
		},
		{
			name:      "repeated delete reports not found",
			requester: model.User{ID: ownerID},
			mockSetup: func(fileStore *MockFileStore, recorder *MockRecorder) {
				fileStore.On("GetByID", mock.Anything, fileID).Return(model.File{ID: fileID, OwnerID: ownerID}, nil)
				fileStore.On("SoftDelete", mock.Anything, fileID).Return(model.ErrNotFound)
			},
			wantCode: "FILE_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileStore := &MockFileStore{}
			recorder := &MockRecorder{}
			tt.mockSetup(fileStore, recorder)

			svc := newFileService(fileStore, &MockUserStore{}, &MockStorage{}, recorder)

			err := svc.Delete(context.Background(), tt.requester, fileID)

			if tt.wantCode != "" {
				var apiErr *apierrors.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
			} else {
				require.NoError(t, err)
			}

			fileStore.AssertExpectations(t)
			recorder.AssertExpectations(t)
		})
	}
}

func TestFileService_List(t *testing.T) {
	ownerID := uuid.New()

	fileStore := &MockFileStore{}
	params := model.ListFilesParams{Search: "rep", Sort: model.SortByName, Ascending: true}
	fileStore.On("ListByOwner", mock.Anything, ownerID, params).Return([]model.File{
		{ID: uuid.New(), OwnerID: ownerID, Name: "report.pdf"},
	}, nil)

	svc := newFileService(fileStore, &MockUserStore{}, &MockStorage{}, &MockRecorder{})

	files, err := svc.List(context.Background(), ownerID, params)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
