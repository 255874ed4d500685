package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/pnl"
)

// Refresher recomputes a P&L summary and stores it in the cache.
type Refresher interface {
	Refresh(ctx context.Context, rng journal.Range) (pnl.Summary, error)
}

// PnLWarmupJob pre-populates the P&L cache.
type PnLWarmupJob struct {
	Refresher Refresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewPnLWarmupJob wires dependencies for the warmup handler.
func NewPnLWarmupJob(refresher Refresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *PnLWarmupJob {
	return &PnLWarmupJob{
		Refresher: refresher,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes warmup tasks.
func (j *PnLWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Refresher == nil {
		return errors.New("pnl warmup: handler not configured")
	}
	var payload PnLWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	ranges, err := j.ranges(payload)
	if err != nil {
		j.logger().Warn("pnl warmup: bad range", slog.Any("error", err))
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskPnLWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	for _, rng := range ranges {
		summary, err := j.Refresher.Refresh(ctx, rng)
		if err != nil {
			j.logger().Error("pnl warmup", slog.String("range", rng.Key()), slog.Any("error", err))
			return err
		}
		j.logger().Info("pnl warmed",
			slog.String("range", rng.Key()),
			slog.String("net_profit", summary.NetProfit.String()),
			slog.Int("sales", summary.SaleCount))
	}
	return nil
}

// ranges returns the explicit payload range, or month-to-date plus all history.
func (j *PnLWarmupJob) ranges(payload PnLWarmupPayload) ([]journal.Range, error) {
	if !payload.IsDefault() {
		rng, err := payload.Range()
		if err != nil {
			return nil, err
		}
		return []journal.Range{rng}, nil
	}
	today := journal.Day(j.now())
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	mtd, err := journal.NewRange(monthStart, today)
	if err != nil {
		return nil, err
	}
	return []journal.Range{mtd, {}}, nil
}

func (j *PnLWarmupJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *PnLWarmupJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
