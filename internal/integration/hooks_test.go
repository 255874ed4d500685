package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

type countingScheduler struct {
	calls int
}

func (c *countingScheduler) ScheduleWarmup(context.Context) error {
	c.calls++
	return nil
}

func TestHooksInvalidateOnSaleOnly(t *testing.T) {
	cache := &countingInvalidator{}
	sched := &countingScheduler{}
	hooks := NewHooks(cache, sched)
	ctx := context.Background()

	require.NoError(t, hooks.HandleInventoryPosted(ctx, inventory.PostedEvent{Kind: inventory.PostingPurchase, TransactionID: 1}))
	require.Zero(t, cache.calls)

	require.NoError(t, hooks.HandleInventoryPosted(ctx, inventory.PostedEvent{Kind: inventory.PostingSale, TransactionID: 2}))
	require.NoError(t, hooks.HandleEntryRecorded(ctx, journal.EntryRecordedEvent{ID: 3}))
	require.Equal(t, 2, cache.calls)
	require.Equal(t, 2, sched.calls)
}

func TestHooksReportFailuresButStillSchedule(t *testing.T) {
	cache := &countingInvalidator{err: errors.New("redis down")}
	sched := &countingScheduler{}
	hooks := NewHooks(cache, sched)

	err := hooks.HandleEntryRecorded(context.Background(), journal.EntryRecordedEvent{ID: 9})
	require.ErrorContains(t, err, "other entry 9")
	require.Equal(t, 1, sched.calls)

	var nilHooks *Hooks
	require.NoError(t, nilHooks.HandleEntryRecorded(context.Background(), journal.EntryRecordedEvent{}))
}
