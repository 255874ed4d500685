//go:build integration

package audit

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/db/pgtest"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func TestPostgresTimeline(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	writer := shared.NewAuditLogger(pool)
	for i := 0; i < 5; i++ {
		entity := "sale"
		if i%2 == 0 {
			entity = "purchase"
		}
		require.NoError(t, writer.Record(ctx, shared.AuditLog{
			ActorID:  int64(i),
			Action:   "inventory:" + entity,
			Entity:   entity,
			EntityID: strconv.Itoa(i + 1),
			Meta:     map[string]any{"qty": strconv.Itoa(i + 1)},
			At:       base.Add(time.Duration(i) * time.Hour),
		}))
	}
	svc := NewService(NewRepository(pool))

	res, err := svc.Timeline(ctx, Filters{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	require.True(t, res.Paging.HasNext)
	require.Equal(t, "5", res.Entries[0].EntityID)
	require.Equal(t, "4", res.Entries[1].EntityID)
	require.Equal(t, int64(4), res.Entries[0].ActorID)
	require.Equal(t, "5", res.Entries[0].Meta["qty"])
	require.True(t, base.Add(4*time.Hour).Equal(res.Entries[0].At))

	res, err = svc.Timeline(ctx, Filters{PageSize: 2, Page: 3})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.False(t, res.Paging.HasNext)
	// actor 0 is stored as NULL
	require.Zero(t, res.Entries[0].ActorID)

	res, err = svc.Timeline(ctx, Filters{Entity: "sale"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)

	// To is exclusive
	entries, err := svc.Export(ctx, Filters{From: base.Add(time.Hour), To: base.Add(3 * time.Hour), Action: "inventory:purchase"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "3", entries[0].EntityID)
}
