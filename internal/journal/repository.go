package journal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
)

// Repository persists the journal in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxWriter returns a Writer bound to an open transaction.
func TxWriter(q db.Querier) Writer {
	return &pgWriter{q: q}
}

type pgWriter struct {
	q db.Querier
}

func (r *Repository) InsertPurchase(ctx context.Context, p PurchaseTransaction) (int64, error) {
	if r == nil {
		return 0, errors.New("journal repository not initialised")
	}
	return TxWriter(r.pool).InsertPurchase(ctx, p)
}

func (r *Repository) InsertSale(ctx context.Context, s SaleTransaction) (int64, error) {
	if r == nil {
		return 0, errors.New("journal repository not initialised")
	}
	return TxWriter(r.pool).InsertSale(ctx, s)
}

func (r *Repository) InsertOther(ctx context.Context, e OtherEntry) (int64, error) {
	if r == nil {
		return 0, errors.New("journal repository not initialised")
	}
	return TxWriter(r.pool).InsertOther(ctx, e)
}

func (w *pgWriter) InsertPurchase(ctx context.Context, p PurchaseTransaction) (int64, error) {
	var id int64
	err := w.q.QueryRow(ctx, `INSERT INTO purchases (product_id, tx_date, qty, unit_cost, currency, rate, unit_cost_base, total_base, note, ref, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW()) RETURNING id`,
		p.ProductID, p.Date, p.Qty, p.UnitCost, p.Currency, p.Rate, p.UnitCostBase, p.TotalBase, p.Note, nullString(p.Ref)).Scan(&id)
	return id, err
}

func (w *pgWriter) InsertSale(ctx context.Context, s SaleTransaction) (int64, error) {
	var id int64
	err := w.q.QueryRow(ctx, `INSERT INTO sales (product_id, tx_date, qty, unit_price, revenue, cogs, note, ref, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW()) RETURNING id`,
		s.ProductID, s.Date, s.Qty, s.UnitPrice, s.Revenue, s.COGS, s.Note, nullString(s.Ref)).Scan(&id)
	return id, err
}

func (w *pgWriter) InsertOther(ctx context.Context, e OtherEntry) (int64, error) {
	var id int64
	err := w.q.QueryRow(ctx, `INSERT INTO other_entries (entry_date, kind, category, amount, note, created_at)
VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING id`,
		e.Date, string(e.Kind), e.Category, e.Amount, e.Note).Scan(&id)
	return id, err
}

// ListPurchases implements Reader.
func (r *Repository) ListPurchases(ctx context.Context, rng Range) ([]PurchaseTransaction, error) {
	if r == nil {
		return nil, errors.New("journal repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, tx_date, qty, unit_cost, currency, rate, unit_cost_base, total_base, note, COALESCE(ref, ''), created_at
FROM purchases
WHERE ($1::date IS NULL OR tx_date >= $1) AND ($2::date IS NULL OR tx_date <= $2)
ORDER BY tx_date DESC, id DESC`, nullDate(rng.From), nullDate(rng.To))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PurchaseTransaction, error) {
		var p PurchaseTransaction
		err := row.Scan(&p.ID, &p.ProductID, &p.Date, &p.Qty, &p.UnitCost, &p.Currency, &p.Rate, &p.UnitCostBase, &p.TotalBase, &p.Note, &p.Ref, &p.CreatedAt)
		return p, err
	})
}

// ListSales implements Reader.
func (r *Repository) ListSales(ctx context.Context, rng Range) ([]SaleTransaction, error) {
	if r == nil {
		return nil, errors.New("journal repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, tx_date, qty, unit_price, revenue, cogs, note, COALESCE(ref, ''), created_at
FROM sales
WHERE ($1::date IS NULL OR tx_date >= $1) AND ($2::date IS NULL OR tx_date <= $2)
ORDER BY tx_date DESC, id DESC`, nullDate(rng.From), nullDate(rng.To))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SaleTransaction, error) {
		var s SaleTransaction
		err := row.Scan(&s.ID, &s.ProductID, &s.Date, &s.Qty, &s.UnitPrice, &s.Revenue, &s.COGS, &s.Note, &s.Ref, &s.CreatedAt)
		return s, err
	})
}

// ListOthers implements Reader.
func (r *Repository) ListOthers(ctx context.Context, rng Range) ([]OtherEntry, error) {
	if r == nil {
		return nil, errors.New("journal repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, entry_date, kind, category, amount, note, created_at
FROM other_entries
WHERE ($1::date IS NULL OR entry_date >= $1) AND ($2::date IS NULL OR entry_date <= $2)
ORDER BY entry_date DESC, id DESC`, nullDate(rng.From), nullDate(rng.To))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (OtherEntry, error) {
		var e OtherEntry
		err := row.Scan(&e.ID, &e.Date, &e.Kind, &e.Category, &e.Amount, &e.Note, &e.CreatedAt)
		return e, err
	})
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
