package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

// MemoryRepository keeps products in memory and journals into a journal.MemoryStore.
// Units of work are serialised; staged changes are discarded when the callback fails.
type MemoryRepository struct {
	txMu     sync.Mutex
	mu       sync.RWMutex
	products map[int64]Product
	skus     map[string]int64
	nextID   int64
	journal  *journal.MemoryStore
	now      func() time.Time
}

// NewMemoryRepository constructs an empty repository journaling into store.
func NewMemoryRepository(store *journal.MemoryStore) *MemoryRepository {
	if store == nil {
		store = journal.NewMemoryStore()
	}
	return &MemoryRepository{
		products: make(map[int64]Product),
		skus:     make(map[string]int64),
		journal:  store,
		now:      time.Now,
	}
}

// Journal returns the journal store the repository writes to.
func (r *MemoryRepository) Journal() *journal.MemoryStore {
	return r.journal
}

// WithTx runs fn against a staged view and commits only when fn succeeds.
func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &memoryTx{repo: r, batch: r.journal.Begin(), staged: make(map[int64]Product)}
	if err := fn(ctx, tx); err != nil {
		tx.batch.Rollback()
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range tx.staged {
		r.products[id] = p
	}
	tx.batch.Commit()
	return nil
}

// CreateProduct registers p with zero stock.
func (r *MemoryRepository) CreateProduct(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.skus[p.SKU]; exists {
		return Product{}, ErrDuplicateProductKey
	}
	r.nextID++
	now := r.now().UTC()
	p.ID = r.nextID
	p.Qty = decimal.Zero
	p.AvgCost = decimal.Zero
	p.CreatedAt = now
	p.UpdatedAt = now
	r.products[p.ID] = p
	r.skus[p.SKU] = p.ID
	return p, nil
}

// GetProduct loads one product.
func (r *MemoryRepository) GetProduct(_ context.Context, id int64) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

// ListProducts returns every product ordered by name.
func (r *MemoryRepository) ListProducts(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memoryTx struct {
	repo   *MemoryRepository
	batch  *journal.Batch
	staged map[int64]Product
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, id int64) (Product, error) {
	if p, ok := tx.staged[id]; ok {
		return p, nil
	}
	return tx.repo.GetProduct(ctx, id)
}

func (tx *memoryTx) UpdateProduct(ctx context.Context, p Product) error {
	current, err := tx.GetProductForUpdate(ctx, p.ID)
	if err != nil {
		return err
	}
	current.Qty = p.Qty
	current.AvgCost = p.AvgCost
	current.UpdatedAt = tx.repo.now().UTC()
	tx.staged[p.ID] = current
	return nil
}

func (tx *memoryTx) InsertPurchase(ctx context.Context, p journal.PurchaseTransaction) (int64, error) {
	return tx.batch.InsertPurchase(ctx, p)
}

func (tx *memoryTx) InsertSale(ctx context.Context, s journal.SaleTransaction) (int64, error) {
	return tx.batch.InsertSale(ctx, s)
}

func (tx *memoryTx) InsertOther(ctx context.Context, e journal.OtherEntry) (int64, error) {
	return tx.batch.InsertOther(ctx, e)
}
