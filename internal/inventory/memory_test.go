package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

// panicOnSaleRepo panics inside the unit of work the first time a sale is journaled.
type panicOnSaleRepo struct {
	*MemoryRepository
	once sync.Once
}

func (r *panicOnSaleRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.MemoryRepository.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return fn(ctx, &panicOnSaleTx{TxRepository: tx, repo: r})
	})
}

type panicOnSaleTx struct {
	TxRepository
	repo *panicOnSaleRepo
}

func (tx *panicOnSaleTx) InsertSale(ctx context.Context, s journal.SaleTransaction) (int64, error) {
	tx.repo.once.Do(func() { panic("journal unavailable") })
	return tx.TxRepository.InsertSale(ctx, s)
}

func TestPanicInUnitOfWorkReleasesProductLock(t *testing.T) {
	base, _ := newTestService(t)
	ctx := context.Background()
	p := register(t, base, "PANIC-1")

	repo := &panicOnSaleRepo{MemoryRepository: base.repo.(*MemoryRepository)}
	svc := NewService(repo, nil, nil, nil, ServiceConfig{}, nil)

	_, err := svc.RecordPurchase(ctx, PurchaseInput{ProductID: p.ID, Qty: dec("5"), UnitCost: dec("2")})
	require.NoError(t, err)

	require.Panics(t, func() {
		_, _ = svc.RecordSale(ctx, SaleInput{ProductID: p.ID, Qty: dec("1"), UnitPrice: dec("3")})
	})
	require.Zero(t, svc.locks.Len())

	res, err := svc.RecordSale(ctx, SaleInput{ProductID: p.ID, Qty: dec("1"), UnitPrice: dec("3")})
	require.NoError(t, err)
	requireDec(t, "4", res.Product.Qty)
}

func TestMemoryCommitPublishesProductAndJournalTogether(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	p := register(t, svc, "SNAP-1")
	_, err := svc.RecordPurchase(ctx, PurchaseInput{ProductID: p.ID, Qty: dec("200"), UnitCost: dec("1")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordSale(ctx, SaleInput{ProductID: p.ID, Qty: dec("1"), UnitPrice: dec("2")}); err != nil {
				t.Error(err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			current, err := svc.GetProduct(ctx, p.ID)
			require.NoError(t, err)
			require.True(t, current.Qty.IsZero())
			return
		default:
		}
		current, err := svc.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		sales, err := repo.Journal().ListSales(ctx, journal.Range{})
		require.NoError(t, err)
		sold := decimal.Zero
		for _, s := range sales {
			sold = sold.Add(s.Qty)
		}
		// every unit missing from stock has a journaled sale behind it
		require.Truef(t, sold.GreaterThanOrEqual(dec("200").Sub(current.Qty)),
			"stock %s but only %s sold in journal", current.Qty, sold)
	}
}
