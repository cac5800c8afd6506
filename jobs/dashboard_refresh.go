package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/challan-admin/challan-admin/internal/dashboard"
)

// Recorder counts finished tasks.
type Recorder interface {
	JobProcessed(task string, err error)
}

// CountsRefresher recomputes and stores dashboard counters.
type CountsRefresher interface {
	Refresh(ctx context.Context) (dashboard.Counts, error)
}

// DashboardRefreshJob keeps the cached dashboard counters warm.
type DashboardRefreshJob struct {
	refresher CountsRefresher
	logger    *slog.Logger
	metrics   Recorder
}

// NewDashboardRefreshJob initialises the refresh handler.
func NewDashboardRefreshJob(refresher CountsRefresher, logger *slog.Logger, metrics Recorder) *DashboardRefreshJob {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DashboardRefreshJob{refresher: refresher, logger: logger, metrics: metrics}
}

// Handle executes one refresh.
func (j *DashboardRefreshJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.refresher == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	defer func() {
		if j.metrics != nil {
			j.metrics.JobProcessed(TaskDashboardRefresh, err)
		}
	}()
	counts, err := j.refresher.Refresh(ctx)
	if err != nil {
		j.logger.Warn("dashboard refresh failed", slog.Any("error", err))
		return err
	}
	j.logger.Debug("dashboard refresh done",
		slog.Int("users", counts.Users),
		slog.Int("records", counts.Records))
	return nil
}
