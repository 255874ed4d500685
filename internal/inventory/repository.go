package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateProduct(ctx context.Context, p Product) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

// TxRepository exposes the operations of one unit of work.
type TxRepository interface {
	journal.Writer
	GetProductForUpdate(ctx context.Context, id int64) (Product, error)
	UpdateProduct(ctx context.Context, p Product) error
}

// Repository persists products in PostgreSQL and journals through the same transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	journal.Writer
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{Writer: journal.TxWriter(tx), tx: tx})
	})
}

// CreateProduct inserts p with zero stock.
func (r *Repository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if r == nil {
		return Product{}, errors.New("inventory repository not initialised")
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO products (sku, name, qty, avg_cost, created_at, updated_at)
VALUES ($1,$2,0,0,NOW(),NOW()) RETURNING id, sku, name, qty, avg_cost, created_at, updated_at`, p.SKU, p.Name).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Qty, &p.AvgCost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Product{}, ErrDuplicateProductKey
		}
		return Product{}, fmt.Errorf("inventory: create product: %w", err)
	}
	return p, nil
}

// GetProduct loads one product.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	if r == nil {
		return Product{}, errors.New("inventory repository not initialised")
	}
	return scanProduct(r.pool.QueryRow(ctx, `SELECT id, sku, name, qty, avg_cost, created_at, updated_at FROM products WHERE id=$1`, id))
}

// ListProducts returns every product ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	if r == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, sku, name, qty, avg_cost, created_at, updated_at FROM products ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		return scanProduct(row)
	})
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.tx.QueryRow(ctx, `SELECT id, sku, name, qty, avg_cost, created_at, updated_at FROM products WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET qty=$2, avg_cost=$3, updated_at=NOW() WHERE id=$1`, p.ID, p.Qty, p.AvgCost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Qty, &p.AvgCost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}
