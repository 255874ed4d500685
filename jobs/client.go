package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

// warmupWindow collapses repeated warmup requests for the same range.
const warmupWindow = time.Minute

// Client enqueues tasks for the worker.
type Client struct {
	client *asynq.Client
}

// NewClient connects a Client to the queue's Redis.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueuePnLWarmup queues a P&L warmup for payload's range.
func (c *Client) EnqueuePnLWarmup(ctx context.Context, payload PnLWarmupPayload) (*asynq.TaskInfo, error) {
	task, err := NewPnLWarmupTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.Unique(warmupWindow))
}

// ScheduleWarmup queues a default-range warmup. One already queued counts as scheduled.
func (c *Client) ScheduleWarmup(ctx context.Context) error {
	_, err := c.EnqueuePnLWarmup(ctx, PnLWarmupPayload{})
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
