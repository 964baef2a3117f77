package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action enumerates auditable action kinds.
type Action string

const (
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionUpload         Action = "upload"
	ActionDownload       Action = "download"
	ActionDelete         Action = "delete"
	ActionRoleChange     Action = "role_change"
	ActionAccountDisable Action = "account_disable"
)

// ActivityStore persists the append-only audit trail. Entries are never
// updated or deleted through normal operation.
type ActivityStore interface {
	Create(ctx context.Context, entry Activity) error
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]Activity, error)
	ListRecent(ctx context.Context, limit int) ([]Activity, error)
}

// Activity is a single audit trail entry.
type Activity struct {
	ID        uuid.UUID
	ActorID   uuid.UUID
	Action    Action
	FileID    *uuid.UUID
	Metadata  map[string]any
	CreatedAt time.Time
}

// ActivityRecorder appends audit entries as a best-effort side effect.
// Implementations must never fail or block the operation being recorded.
type ActivityRecorder interface {
	Record(actorID uuid.UUID, action Action, fileID *uuid.UUID, metadata map[string]any)
}
