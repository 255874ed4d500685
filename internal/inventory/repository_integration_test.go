//go:build integration

package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db/pgtest"
	"github.com/odyssey-erp/odyssey-pos/internal/pnl"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func newPostgresService(t *testing.T, pool *pgxpool.Pool, repo RepositoryPort) *Service {
	t.Helper()
	return NewService(repo, nil, shared.NewAuditLogger(pool), shared.NewIdempotencyStore(pool), ServiceConfig{}, nil)
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := journal.ParseDate(s)
	require.NoError(t, err)
	return d
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n))
	return n
}

func TestPostgresLedgerScenario(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	svc := newPostgresService(t, pool, NewRepository(pool))
	p := register(t, svc, "PG-1")

	_, err := svc.RecordPurchase(ctx, PurchaseInput{ProductID: p.ID, Date: day(t, "2024-01-02"), Qty: dec("10"), UnitCost: dec("5")})
	require.NoError(t, err)
	_, err = svc.RecordPurchase(ctx, PurchaseInput{ProductID: p.ID, Date: day(t, "2024-01-03"), Qty: dec("10"), UnitCost: dec("7")})
	require.NoError(t, err)

	sale, err := svc.RecordSale(ctx, SaleInput{ProductID: p.ID, Date: day(t, "2024-01-04"), Qty: dec("5"), UnitPrice: dec("9")})
	require.NoError(t, err)
	requireDec(t, "45", sale.Sale.Revenue)
	requireDec(t, "30", sale.Sale.COGS)

	stored, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	requireDec(t, "15", stored.Qty)
	requireDec(t, "6", stored.AvgCost)

	_, err = svc.RecordSale(ctx, SaleInput{ProductID: p.ID, Qty: dec("100"), UnitPrice: dec("9")})
	require.ErrorIs(t, err, ErrInsufficientStock)

	stored, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	requireDec(t, "15", stored.Qty)
	requireDec(t, "6", stored.AvgCost)
	require.Equal(t, 1, countRows(t, pool, "sales"))
	require.Equal(t, 2, countRows(t, pool, "purchases"))

	summary, err := pnl.NewService(journal.NewRepository(pool), nil, "EGP", nil).Compute(ctx, journal.Range{})
	require.NoError(t, err)
	requireDec(t, "45", summary.Revenue)
	requireDec(t, "30", summary.COGS)
	requireDec(t, "15", summary.GrossProfit)

	// register + 2 purchases + 1 sale; the refused sale leaves no trace
	require.Equal(t, 4, countRows(t, pool, "audit_logs"))
}

func TestPostgresOneSidedRangePnL(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	svc := newPostgresService(t, pool, NewRepository(pool))
	p := register(t, svc, "PG-2")

	_, err := svc.RecordPurchase(ctx, PurchaseInput{ProductID: p.ID, Date: day(t, "2024-01-01"), Qty: dec("10"), UnitCost: dec("4")})
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, SaleInput{ProductID: p.ID, Date: day(t, "2024-01-15"), Qty: dec("2"), UnitPrice: dec("10")})
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, SaleInput{ProductID: p.ID, Date: day(t, "2024-02-01"), Qty: dec("3"), UnitPrice: dec("10")})
	require.NoError(t, err)

	reports := pnl.NewService(journal.NewRepository(pool), nil, "EGP", nil)

	since, err := journal.ParseRange("2024-02-01", "")
	require.NoError(t, err)
	summary, err := reports.Compute(ctx, since)
	require.NoError(t, err)
	requireDec(t, "30", summary.Revenue)
	requireDec(t, "12", summary.COGS)
	require.Equal(t, 1, summary.SaleCount)

	until, err := journal.ParseRange("", "2024-01-31")
	require.NoError(t, err)
	summary, err = reports.Compute(ctx, until)
	require.NoError(t, err)
	requireDec(t, "20", summary.Revenue)
	requireDec(t, "8", summary.COGS)
	require.Equal(t, 1, summary.SaleCount)
}

func TestPostgresNumericRoundTrip(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	svc := newPostgresService(t, pool, NewRepository(pool))
	p := register(t, svc, "PG-3")

	_, err := svc.RecordPurchase(ctx, PurchaseInput{ProductID: p.ID, Qty: dec("0.125"), UnitCost: dec("3.3333333333")})
	require.NoError(t, err)
	res, err := svc.RecordPurchase(ctx, PurchaseInput{ProductID: p.ID, Qty: dec("2.5"), UnitCost: dec("1.1")})
	require.NoError(t, err)

	stored, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	requireDec(t, res.Product.Qty.String(), stored.Qty)
	requireDec(t, res.Product.AvgCost.String(), stored.AvgCost)

	purchases, err := journal.NewRepository(pool).ListPurchases(ctx, journal.Range{})
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	requireDec(t, "3.3333333333", purchases[1].UnitCostBase)
	requireDec(t, "0.4166666666625", purchases[1].TotalBase)
}

var errJournalLost = errors.New("journal write lost")

// lostSaleRepo writes the sale row and then fails, so the whole unit of work must roll back.
type lostSaleRepo struct {
	*Repository
}

func (r lostSaleRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.Repository.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return fn(ctx, lostSaleTx{TxRepository: tx})
	})
}

type lostSaleTx struct {
	TxRepository
}

func (tx lostSaleTx) InsertSale(ctx context.Context, s journal.SaleTransaction) (int64, error) {
	if _, err := tx.TxRepository.InsertSale(ctx, s); err != nil {
		return 0, err
	}
	return 0, errJournalLost
}

func TestPostgresFailedSaleRollsBackUnitOfWork(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	p := register(t, newPostgresService(t, pool, repo), "PG-4")
	_, err := newPostgresService(t, pool, repo).RecordPurchase(ctx, PurchaseInput{ProductID: p.ID, Qty: dec("8"), UnitCost: dec("2")})
	require.NoError(t, err)

	svc := newPostgresService(t, pool, lostSaleRepo{Repository: repo})
	_, err = svc.RecordSale(ctx, SaleInput{ProductID: p.ID, Qty: dec("3"), UnitPrice: dec("5"), Ref: "till-1"})
	require.ErrorIs(t, err, errJournalLost)

	require.Equal(t, 0, countRows(t, pool, "sales"))
	stored, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	requireDec(t, "8", stored.Qty)

	// the failed attempt released its reference
	_, err = newPostgresService(t, pool, repo).RecordSale(ctx, SaleInput{ProductID: p.ID, Qty: dec("3"), UnitPrice: dec("5"), Ref: "till-1"})
	require.NoError(t, err)
	_, err = newPostgresService(t, pool, repo).RecordSale(ctx, SaleInput{ProductID: p.ID, Qty: dec("1"), UnitPrice: dec("5"), Ref: "till-1"})
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Equal(t, 1, countRows(t, pool, "sales"))
}

// Two services do not share in-process locks, so only the row lock keeps stock from going negative.
func TestPostgresRowLockPreventsOverselling(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	first := newPostgresService(t, pool, repo)
	second := newPostgresService(t, pool, repo)
	p := register(t, first, "PG-5")
	const stock = 20
	_, err := first.RecordPurchase(ctx, PurchaseInput{ProductID: p.ID, Qty: dec("20"), UnitCost: dec("1")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 2*stock; i++ {
		svc := first
		if i%2 == 1 {
			svc = second
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			// losers fail with insufficient stock or a serialization conflict
			_, _ = svc.RecordSale(ctx, SaleInput{ProductID: p.ID, Qty: dec("1"), UnitPrice: dec("2")})
		}()
	}
	wg.Wait()

	stored, err := first.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, stored.Qty.IsNegative())
	sold := countRows(t, pool, "sales")
	requireDec(t, dec("20").Sub(decimal.NewFromInt(int64(sold))).String(), stored.Qty)
	require.LessOrEqual(t, sold, stock)
}
