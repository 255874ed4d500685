package pnl

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

// Service computes profit and loss from the journal.
type Service struct {
	reader   journal.Reader
	cache    *Cache
	currency string
	logger   *slog.Logger
	group    singleflight.Group
}

// NewService wires the aggregator. cache may be nil.
func NewService(reader journal.Reader, cache *Cache, currency string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reader: reader, cache: cache, currency: currency, logger: logger}
}

// Compute returns the summary of rng, served from cache when available.
func (s *Service) Compute(ctx context.Context, rng journal.Range) (Summary, error) {
	if s.cache == nil {
		return s.compute(ctx, rng)
	}
	key, err := s.cache.BuildKey(ctx, keySummary(rng.Key())...)
	if err != nil {
		s.logger.Warn("pnl cache unavailable", slog.Any("error", err))
		return s.compute(ctx, rng)
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		var summary Summary
		err := s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (any, error) {
			return s.compute(ctx, rng)
		})
		return summary, err
	})
	if err != nil {
		return Summary{}, err
	}
	return result.(Summary), nil
}

// Refresh recomputes rng and overwrites its cache entry.
func (s *Service) Refresh(ctx context.Context, rng journal.Range) (Summary, error) {
	summary, err := s.compute(ctx, rng)
	if err != nil {
		return Summary{}, err
	}
	if s.cache == nil {
		return summary, nil
	}
	key, err := s.cache.BuildKey(ctx, keySummary(rng.Key())...)
	if err != nil {
		return summary, fmt.Errorf("pnl: cache key: %w", err)
	}
	if err := s.cache.StoreJSON(ctx, key, summary); err != nil {
		return summary, fmt.Errorf("pnl: store summary: %w", err)
	}
	return summary, nil
}

// Invalidate drops every cached summary.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) compute(ctx context.Context, rng journal.Range) (Summary, error) {
	var (
		sales  []journal.SaleTransaction
		others []journal.OtherEntry
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.reader.ListSales(ctx, rng)
		if err != nil {
			return fmt.Errorf("pnl: list sales: %w", err)
		}
		sales = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.reader.ListOthers(ctx, rng)
		if err != nil {
			return fmt.Errorf("pnl: list other entries: %w", err)
		}
		others = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return Aggregate(rng, s.currency, sales, others), nil
}
