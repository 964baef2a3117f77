package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/filedepot-server/internal/model"
)

var _ model.FileStore = (*FileRepository)(nil)

type FileRepository struct {
	db *Connection
}

func NewFileRepository(db *Connection) *FileRepository {
	return &FileRepository{
		db: db,
	}
}

const fileColumns = `id, owner_id, name, size, mime_type, storage_key, storage_url, created_at, updated_at, deleted_at`

func scanFile(row pgx.Row) (model.File, error) {
	var file model.File
	err := row.Scan(
		&file.ID, &file.OwnerID, &file.Name, &file.Size, &file.MimeType,
		&file.StorageKey, &file.StorageURL, &file.CreatedAt, &file.UpdatedAt, &file.DeletedAt,
	)
	return file, err
}

// Create inserts the record and increments the owner's storage counter in
// one transaction. The counter update is a relative SET, so concurrent
// uploads by the same owner cannot lose updates.
func (r *FileRepository) Create(ctx context.Context, file model.File) (model.File, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.File{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO files (id, owner_id, name, size, mime_type, storage_key, storage_url)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + fileColumns

	savedFile, err := scanFile(tx.QueryRow(ctx, query,
		file.ID, file.OwnerID, file.Name, file.Size, file.MimeType, file.StorageKey, file.StorageURL,
	))
	if err != nil {
		return model.File{}, fmt.Errorf("failed to create file: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET storage_used = storage_used + $2, updated_at = NOW() WHERE id = $1`,
		file.OwnerID, file.Size,
	)
	if err != nil {
		return model.File{}, fmt.Errorf("failed to increment storage counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.File{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return savedFile, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (model.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND deleted_at IS NULL`

	file, err := scanFile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.File{}, model.ErrNotFound
		}
		return model.File{}, fmt.Errorf("failed to get file by id: %w", err)
	}

	return file, nil
}

// Sort keys are mapped onto a column whitelist; anything unknown falls
// back to the upload timestamp.
func sortColumn(key model.SortKey) string {
	switch key {
	case model.SortByName:
		return "name"
	case model.SortBySize:
		return "size"
	default:
		return "created_at"
	}
}

func (r *FileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, params model.ListFilesParams) ([]model.File, error) {
	direction := "DESC"
	if params.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT `+fileColumns+`
		FROM files
		WHERE owner_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR name ILIKE '%%' || $2 || '%%')
		ORDER BY %s %s`, sortColumn(params.Sort), direction)

	rows, err := r.db.Query(ctx, query, ownerID, params.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to list files by owner: %w", err)
	}
	defer rows.Close()

	var files []model.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return files, nil
}

// SoftDelete is a conditional transition deleted_at NULL -> NOW(). The
// storage counter is decremented in the same transaction, so concurrent
// deletes of one record can decrement at most once.
func (r *FileRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		ownerID uuid.UUID
		size    int64
	)
	err = tx.QueryRow(ctx,
		`UPDATE files SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING owner_id, size`, id,
	).Scan(&ownerID, &size)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to soft delete file: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET storage_used = GREATEST(storage_used - $2, 0), updated_at = NOW() WHERE id = $1`,
		ownerID, size,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement storage counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *FileRepository) SoftDeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE files SET deleted_at = NOW(), updated_at = NOW() WHERE owner_id = $1 AND deleted_at IS NULL`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to soft delete files by owner: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET storage_used = 0, updated_at = NOW() WHERE id = $1`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset storage counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *FileRepository) ListAll(ctx context.Context, params model.ListAllFilesParams) ([]model.File, int64, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM files WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	query := `SELECT ` + fileColumns + `
		FROM files
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []model.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return files, total, nil
}

func (r *FileRepository) StorageByOwner(ctx context.Context, limit int) ([]model.OwnerUsage, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT f.owner_id, u.email, SUM(f.size), COUNT(*)
		FROM files f
		JOIN users u ON u.id = f.owner_id
		WHERE f.deleted_at IS NULL
		GROUP BY f.owner_id, u.email
		ORDER BY SUM(f.size) DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate storage by owner: %w", err)
	}
	defer rows.Close()

	var usages []model.OwnerUsage
	for rows.Next() {
		var usage model.OwnerUsage
		if err := rows.Scan(&usage.OwnerID, &usage.OwnerEmail, &usage.TotalBytes, &usage.FileCount); err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return usages, nil
}

func (r *FileRepository) StorageTotals(ctx context.Context) (model.StorageTotals, error) {
	var totals model.StorageTotals
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files WHERE deleted_at IS NULL`,
	).Scan(&totals.TotalFiles, &totals.TotalBytes)
	if err != nil {
		return model.StorageTotals{}, fmt.Errorf("failed to aggregate storage totals: %w", err)
	}
	return totals, nil
}
