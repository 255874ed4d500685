package journal

import (
	"context"
	"time"
)

// EntryRecordedEvent is emitted after an other entry is committed.
type EntryRecordedEvent struct {
	ID     int64
	Date   time.Time
	Kind   EntryKind
	Amount string
}

// IntegrationHandler receives journal events after commit.
type IntegrationHandler interface {
	HandleEntryRecorded(ctx context.Context, evt EntryRecordedEvent) error
}
