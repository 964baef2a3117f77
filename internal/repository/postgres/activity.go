package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/filedepot-server/internal/model"
)

var _ model.ActivityStore = (*ActivityRepository)(nil)

type ActivityRepository struct {
	db *Connection
}

func NewActivityRepository(db *Connection) *ActivityRepository {
	return &ActivityRepository{
		db: db,
	}
}

func (r *ActivityRepository) Create(ctx context.Context, entry model.Activity) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	marshaled, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal activity metadata: %w", err)
	}

	query := `INSERT INTO activity_log (id, actor_id, action, file_id, metadata, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.Exec(ctx, query,
		entry.ID, entry.ActorID, entry.Action, entry.FileID, marshaled, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}

	return nil
}

func (r *ActivityRepository) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]model.Activity, error) {
	query := `SELECT id, actor_id, action, file_id, metadata, created_at
			  FROM activity_log
			  WHERE actor_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2`

	rows, err := r.db.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity by actor: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]model.Activity, error) {
	query := `SELECT id, actor_id, action, file_id, metadata, created_at
			  FROM activity_log
			  ORDER BY created_at DESC
			  LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func scanActivities(rows pgx.Rows) ([]model.Activity, error) {
	var entries []model.Activity
	for rows.Next() {
		var (
			entry    model.Activity
			metadata []byte
		)
		err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.FileID, &metadata, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal activity metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
