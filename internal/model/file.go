package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FileStore defines persistence operations for file records.
type FileStore interface {
	// Create inserts the record and atomically increments the owner's
	// storage counter in the same transaction.
	Create(ctx context.Context, file File) (File, error)
	GetByID(ctx context.Context, id uuid.UUID) (File, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, params ListFilesParams) ([]File, error)
	// SoftDelete marks the record deleted and decrements the owner's
	// storage counter. Returns ErrNotFound if the record is missing or
	// already deleted, so a repeated delete can never double-decrement.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// SoftDeleteByOwner cascades deletion to every active record of an
	// owner. Used when an account is removed.
	SoftDeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
	ListAll(ctx context.Context, params ListAllFilesParams) ([]File, int64, error)
	StorageByOwner(ctx context.Context, limit int) ([]OwnerUsage, error)
	StorageTotals(ctx context.Context) (StorageTotals, error)
}

// File represents a stored file's metadata. Size and MIME type are fixed
// at creation; only DeletedAt mutates afterwards.
type File struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Name       string
	Size       int64
	MimeType   string
	StorageKey string
	StorageURL string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// SortKey identifies a column the owner listing may sort by.
type SortKey string

const (
	SortByName       SortKey = "name"
	SortBySize       SortKey = "size"
	SortByUploadDate SortKey = "uploadDate"
)

// ListFilesParams filters and sorts an owner's file listing. Search is a
// case-insensitive substring match on the file name.
type ListFilesParams struct {
	Search    string
	Sort      SortKey
	Ascending bool
}

// ListAllFilesParams paginates the admin file listing.
type ListAllFilesParams struct {
	Page  int
	Limit int
}

// OwnerUsage aggregates active storage per owner.
type OwnerUsage struct {
	OwnerID    uuid.UUID
	OwnerEmail string
	TotalBytes int64
	FileCount  int64
}

// StorageTotals aggregates active storage across all owners.
type StorageTotals struct {
	TotalFiles int64
	TotalBytes int64
}
