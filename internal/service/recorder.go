package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
)

var _ model.ActivityRecorder = (*Recorder)(nil)

const recordTimeout = 5 * time.Second

// Recorder appends audit trail entries as best-effort side effects. The
// append is dispatched on its own goroutine with a detached context, so a
// failing audit store can never abort or delay the operation it documents.
// Failures are surfaced to the operational log only.
type Recorder struct {
	store   model.ActivityStore
	logger  *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(store model.ActivityStore, logger *logger.Logger) *Recorder {
	return &Recorder{
		store:   store,
		logger:  logger,
		timeout: recordTimeout,
	}
}

// Record appends an entry for the given actor and action. It returns
// immediately; the write happens in the background.
func (r *Recorder) Record(actorID uuid.UUID, action model.Action, fileID *uuid.UUID, metadata map[string]any) {
	entry := model.Activity{
		ID:        uuid.New(),
		ActorID:   actorID,
		Action:    action,
		FileID:    fileID,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.store.Create(ctx, entry); err != nil {
			r.logger.Error("Activity recorder: failed to append entry",
				"actor_id", entry.ActorID,
				"action", entry.Action,
				"error", err.Error())
		}
	}()
}

// Wait blocks until all in-flight appends have finished. Used at shutdown
// and in tests.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
