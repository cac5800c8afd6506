package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardRefresh recomputes the dashboard counters.
	TaskDashboardRefresh = "dashboard:refresh_counts"
	// TaskIdempotencyCleanup prunes old form submission keys.
	TaskIdempotencyCleanup = "audit:cleanup"

	// DefaultRetention is how long submission keys are kept.
	DefaultRetention = 24 * time.Hour
)

// CleanupPayload configures TaskIdempotencyCleanup.
type CleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewDashboardRefreshTask constructs the counters refresh task.
func NewDashboardRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardRefresh, nil)
}

// DashboardRefreshOptions are the enqueue options of every counters refresh.
// The task calls the remote API, which is never retried automatically; the
// next scheduled run picks up a failed one.
func DashboardRefreshOptions() []asynq.Option {
	return []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(0)}
}

// NewCleanupTask constructs the submission key cleanup task.
func NewCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
