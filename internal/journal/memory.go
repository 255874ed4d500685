package journal

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps the journal in process memory. IDs are reserved on insert,
// so a rolled-back batch leaves gaps the way a database sequence does.
type MemoryStore struct {
	mu        sync.Mutex
	purchases []PurchaseTransaction
	sales     []SaleTransaction
	others    []OtherEntry
	nextID    map[string]int64
	now       func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: make(map[string]int64), now: time.Now}
}

func (s *MemoryStore) reserve(table string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID[table]++
	return s.nextID[table]
}

// InsertPurchase appends p immediately.
func (s *MemoryStore) InsertPurchase(ctx context.Context, p PurchaseTransaction) (int64, error) {
	b := s.Begin()
	id, err := b.InsertPurchase(ctx, p)
	if err != nil {
		b.Rollback()
		return 0, err
	}
	b.Commit()
	return id, nil
}

// InsertSale appends sale immediately.
func (s *MemoryStore) InsertSale(ctx context.Context, sale SaleTransaction) (int64, error) {
	b := s.Begin()
	id, err := b.InsertSale(ctx, sale)
	if err != nil {
		b.Rollback()
		return 0, err
	}
	b.Commit()
	return id, nil
}

// InsertOther appends e immediately.
func (s *MemoryStore) InsertOther(ctx context.Context, e OtherEntry) (int64, error) {
	b := s.Begin()
	id, err := b.InsertOther(ctx, e)
	if err != nil {
		b.Rollback()
		return 0, err
	}
	b.Commit()
	return id, nil
}

// ListPurchases implements Reader.
func (s *MemoryStore) ListPurchases(_ context.Context, r Range) ([]PurchaseTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []PurchaseTransaction{}
	for _, p := range s.purchases {
		if r.Contains(p.Date) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].Date, out[i].ID, out[j].Date, out[j].ID) })
	return out, nil
}

// ListSales implements Reader.
func (s *MemoryStore) ListSales(_ context.Context, r Range) ([]SaleTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []SaleTransaction{}
	for _, sale := range s.sales {
		if r.Contains(sale.Date) {
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].Date, out[i].ID, out[j].Date, out[j].ID) })
	return out, nil
}

// ListOthers implements Reader.
func (s *MemoryStore) ListOthers(_ context.Context, r Range) ([]OtherEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []OtherEntry{}
	for _, e := range s.others {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].Date, out[i].ID, out[j].Date, out[j].ID) })
	return out, nil
}

func newestFirst(di time.Time, idi int64, dj time.Time, idj int64) bool {
	if !di.Equal(dj) {
		return di.After(dj)
	}
	return idi > idj
}

// Batch stages writes until Commit. Nothing becomes visible to readers before that.
type Batch struct {
	store     *MemoryStore
	purchases []PurchaseTransaction
	sales     []SaleTransaction
	others    []OtherEntry
}

// Begin opens a staging batch.
func (s *MemoryStore) Begin() *Batch {
	return &Batch{store: s}
}

// InsertPurchase stages p.
func (b *Batch) InsertPurchase(_ context.Context, p PurchaseTransaction) (int64, error) {
	p.ID = b.store.reserve("purchases")
	p.CreatedAt = b.store.now().UTC()
	b.purchases = append(b.purchases, p)
	return p.ID, nil
}

// InsertSale stages sale.
func (b *Batch) InsertSale(_ context.Context, sale SaleTransaction) (int64, error) {
	sale.ID = b.store.reserve("sales")
	sale.CreatedAt = b.store.now().UTC()
	b.sales = append(b.sales, sale)
	return sale.ID, nil
}

// InsertOther stages e.
func (b *Batch) InsertOther(_ context.Context, e OtherEntry) (int64, error) {
	e.ID = b.store.reserve("other_entries")
	e.CreatedAt = b.store.now().UTC()
	b.others = append(b.others, e)
	return e.ID, nil
}

// Commit publishes the staged records.
func (b *Batch) Commit() {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = append(s.purchases, b.purchases...)
	s.sales = append(s.sales, b.sales...)
	s.others = append(s.others, b.others...)
	b.purchases, b.sales, b.others = nil, nil, nil
}

// Rollback drops the staged records.
func (b *Batch) Rollback() {
	b.purchases, b.sales, b.others = nil, nil, nil
}
