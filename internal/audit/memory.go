package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// MemoryLog records audit entries in process memory and mirrors them to a logger.
// It serves as both the write port and the Repository when no database is configured.
type MemoryLog struct {
	mu      sync.Mutex
	entries []Entry
	nextID  int64
	logger  *slog.Logger
	now     func() time.Time
}

// NewMemoryLog builds an empty log. A nil logger disables mirroring.
func NewMemoryLog(logger *slog.Logger) *MemoryLog {
	return &MemoryLog{logger: logger, now: time.Now}
}

// Record stores the entry.
func (m *MemoryLog) Record(ctx context.Context, log shared.AuditLog) error {
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	at := log.At
	if at.IsZero() {
		at = m.now()
	}
	m.mu.Lock()
	m.nextID++
	e := Entry{
		ID:       m.nextID,
		At:       at.UTC(),
		ActorID:  log.ActorID,
		Action:   log.Action,
		Entity:   log.Entity,
		EntityID: log.EntityID,
		Meta:     maps.Clone(log.Meta),
	}
	m.entries = append(m.entries, e)
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.DebugContext(ctx, "audit",
			slog.String("action", e.Action),
			slog.String("entity", e.Entity),
			slog.String("entity_id", e.EntityID),
			slog.Any("meta", e.Meta))
	}
	return nil
}

// ListEntries implements Repository.
func (m *MemoryLog) ListEntries(_ context.Context, q Query) ([]Entry, error) {
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("audit: negative offset or limit")
	}
	m.mu.Lock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.After(out[j].At)
		}
		return out[i].ID > out[j].ID
	})
	if q.Offset >= len(out) {
		return []Entry{}, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}
