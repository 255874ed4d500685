package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
)

const listEntriesSQL = `SELECT id, occurred_at, COALESCE(actor_id, 0), action, entity, entity_id, meta
FROM audit_logs
WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR occurred_at < $2)
  AND ($3::text IS NULL OR entity = $3)
  AND ($4::text IS NULL OR action = $4)
ORDER BY occurred_at DESC, id DESC
OFFSET $5 LIMIT $6`

// PgRepository reads audit_logs through pgx.
type PgRepository struct {
	q db.Querier
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

// ListEntries implements Repository.
func (r *PgRepository) ListEntries(ctx context.Context, q Query) ([]Entry, error) {
	var limit any
	if q.Limit > 0 {
		limit = q.Limit
	}
	rows, err := r.q.Query(ctx, listEntriesSQL,
		optionalTime(q.From), optionalTime(q.To), optionalText(q.Entity), optionalText(q.Action), q.Offset, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: list entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("audit: scan entries: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.CollectableRow) (Entry, error) {
	var (
		e    Entry
		meta []byte
	)
	if err := row.Scan(&e.ID, &e.At, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &meta); err != nil {
		return Entry{}, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.Meta); err != nil {
			return Entry{}, fmt.Errorf("decode meta of entry %d: %w", e.ID, err)
		}
	}
	e.At = e.At.UTC()
	return e, nil
}

func optionalTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func optionalText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
