package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

// Invalidator drops cached P&L summaries.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// WarmupScheduler queues a background P&L recomputation.
type WarmupScheduler interface {
	ScheduleWarmup(ctx context.Context) error
}

// Hooks wires committed ledger and journal events into the P&L cache.
type Hooks struct {
	cache     Invalidator
	scheduler WarmupScheduler
}

// NewHooks constructs integration hooks. scheduler may be nil.
func NewHooks(cache Invalidator, scheduler WarmupScheduler) *Hooks {
	return &Hooks{cache: cache, scheduler: scheduler}
}

// HandleInventoryPosted invalidates P&L after a sale. Purchases only move stock cost and leave P&L unchanged.
func (h *Hooks) HandleInventoryPosted(ctx context.Context, evt inventory.PostedEvent) error {
	if h == nil || evt.Kind != inventory.PostingSale {
		return nil
	}
	return h.refresh(ctx, fmt.Sprintf("sale %d", evt.TransactionID))
}

// HandleEntryRecorded invalidates P&L after an other entry.
func (h *Hooks) HandleEntryRecorded(ctx context.Context, evt journal.EntryRecordedEvent) error {
	if h == nil {
		return nil
	}
	return h.refresh(ctx, fmt.Sprintf("other entry %d", evt.ID))
}

func (h *Hooks) refresh(ctx context.Context, source string) error {
	var errs []error
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("integration: invalidate pnl after %s: %w", source, err))
		}
	}
	if h.scheduler != nil {
		if err := h.scheduler.ScheduleWarmup(ctx); err != nil {
			errs = append(errs, fmt.Errorf("integration: schedule warmup after %s: %w", source, err))
		}
	}
	return errors.Join(errs...)
}
