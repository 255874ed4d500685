package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPnLWarmup recomputes and caches P&L summaries.
	TaskPnLWarmup = "pnl:warmup"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// PnLWarmupPayload selects the range to warm. Empty bounds warm the default ranges.
type PnLWarmupPayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Range parses the payload bounds.
func (p PnLWarmupPayload) Range() (journal.Range, error) {
	return journal.ParseRange(p.From, p.To)
}

// IsDefault reports whether no explicit range was requested.
func (p PnLWarmupPayload) IsDefault() bool {
	return p.From == "" && p.To == ""
}

// NewPnLWarmupTask constructs a warmup task.
func NewPnLWarmupTask(payload PnLWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode warmup payload: %w", err)
	}
	return asynq.NewTask(TaskPnLWarmup, data), nil
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
