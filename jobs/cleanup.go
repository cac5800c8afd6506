package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// KeyPruner deletes submission keys older than a retention window.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanupJob prunes the idempotency key table.
type CleanupJob struct {
	store   KeyPruner
	logger  *slog.Logger
	metrics Recorder
}

// NewCleanupJob initialises the cleanup handler.
func NewCleanupJob(store KeyPruner, logger *slog.Logger, metrics Recorder) *CleanupJob {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CleanupJob{store: store, logger: logger, metrics: metrics}
}

// Handle executes one cleanup pass. An empty payload uses DefaultRetention.
func (j *CleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.store == nil {
		return errors.New("cleanup: handler not configured")
	}
	retention := DefaultRetention
	if len(t.Payload()) > 0 {
		var payload CleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("cleanup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
		if payload.RetentionHours > 0 {
			retention = time.Duration(payload.RetentionHours) * time.Hour
		}
	}

	defer func() {
		if j.metrics != nil {
			j.metrics.JobProcessed(TaskIdempotencyCleanup, err)
		}
	}()
	removed, err := j.store.Cleanup(ctx, retention)
	if err != nil {
		return fmt.Errorf("cleanup: prune keys: %w", err)
	}
	j.logger.Info("idempotency keys pruned",
		slog.Int64("removed", removed),
		slog.Duration("retention", retention))
	return nil
}
