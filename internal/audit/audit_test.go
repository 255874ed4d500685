package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

var base = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func seeded(t *testing.T, n int) *MemoryLog {
	t.Helper()
	log := NewMemoryLog(nil)
	for i := 0; i < n; i++ {
		entity := "sale"
		if i%2 == 0 {
			entity = "purchase"
		}
		require.NoError(t, log.Record(context.Background(), shared.AuditLog{
			Action:   "inventory:" + entity,
			Entity:   entity,
			EntityID: strconv.Itoa(i + 1),
			Meta:     map[string]any{"qty": strconv.Itoa(i + 1)},
			At:       base.Add(time.Duration(i) * time.Hour),
		}))
	}
	return log
}

func TestTimelinePaging(t *testing.T) {
	svc := NewService(seeded(t, 25))
	ctx := context.Background()

	first, err := svc.Timeline(ctx, Filters{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, first.Entries, 10)
	require.Equal(t, Paging{Page: 1, PageSize: 10, HasNext: true, NextPage: 2}, first.Paging)
	require.Equal(t, "25", first.Entries[0].EntityID)

	last, err := svc.Timeline(ctx, Filters{Page: 3, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, last.Entries, 5)
	require.False(t, last.Paging.HasNext)
	require.Equal(t, 2, last.Paging.PrevPage)
	require.Equal(t, "1", last.Entries[4].EntityID)

	capped, err := svc.Timeline(ctx, Filters{PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, maxPageSize, capped.Paging.PageSize)
}

func TestTimelineFilters(t *testing.T) {
	svc := NewService(seeded(t, 10))
	ctx := context.Background()

	sales, err := svc.Export(ctx, Filters{Entity: " sale "})
	require.NoError(t, err)
	require.Len(t, sales, 5)
	for _, e := range sales {
		require.Equal(t, "sale", e.Entity)
	}

	window, err := svc.Export(ctx, Filters{From: base.Add(2 * time.Hour), To: base.Add(4 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, window, 2)
	require.Equal(t, "4", window[0].EntityID)
	require.Equal(t, "3", window[1].EntityID)

	none, err := svc.Export(ctx, Filters{Action: "journal:other"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestMemoryLogRejectsIncompleteEntries(t *testing.T) {
	log := NewMemoryLog(nil)
	require.Error(t, log.Record(context.Background(), shared.AuditLog{Action: "x", Entity: "y"}))
}

func TestServiceWithoutRepository(t *testing.T) {
	_, err := NewService(nil).Timeline(context.Background(), Filters{})
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Entry{
		{ID: 7, At: base, ActorID: 3, Action: "inventory:sale", Entity: "sale", EntityID: "4", Meta: map[string]any{"qty": "2", "cogs": "10"}},
		{ID: 8, At: base, Action: "journal:other", Entity: "other_entry", EntityID: "1"},
	}))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"7", "2024-05-10T09:00:00Z", "3", "inventory:sale", "sale", "4", `{"cogs":"10","qty":"2"}`}, records[1])
	require.Equal(t, "", records[2][2])
	require.Equal(t, "", records[2][6])
}

func serve(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerTimeline(t *testing.T) {
	h := NewHandler(nil, NewService(seeded(t, 30)))
	h.now = func() time.Time { return base.Add(48 * time.Hour) }

	rec := serve(t, h, "/audit?from=2024-05-10&to=2024-05-10&entity=sale")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	// entries 1..15 fall on 2024-05-10 (09:00..23:00); odd indexes are sales
	require.Len(t, result.Entries, 7)

	rec = serve(t, h, "/audit")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Entries, defaultPageSize)
	require.True(t, result.Paging.HasNext)

	rec = serve(t, h, "/audit?from=2024-01-01&to=2024-05-10")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "90 days")

	rec = serve(t, h, "/audit?page=zero")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "page")

	rec = serve(t, h, "/audit?from=2024-05-11&to=2024-05-10")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCSV(t *testing.T) {
	h := NewHandler(nil, NewService(seeded(t, 3)))
	rec := serve(t, h, "/audit?from=2024-05-01&to=2024-05-31&format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, "ID", records[0][0])
}
