package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/pnl"
)

type recordingRefresher struct {
	ranges []journal.Range
	err    error
}

func (r *recordingRefresher) Refresh(_ context.Context, rng journal.Range) (pnl.Summary, error) {
	r.ranges = append(r.ranges, rng)
	return pnl.Summary{}, r.err
}

type recordingCleaner struct {
	olderThan time.Duration
}

func (c *recordingCleaner) Cleanup(_ context.Context, olderThan time.Duration) error {
	c.olderThan = olderThan
	return nil
}

func TestPnLWarmupDefaultRanges(t *testing.T) {
	refresher := &recordingRefresher{}
	job := NewPnLWarmupJob(refresher, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return time.Date(2024, 3, 17, 15, 4, 0, 0, time.UTC) }

	task, err := NewPnLWarmupTask(PnLWarmupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, refresher.ranges, 2)
	require.Equal(t, "2024-03-01:2024-03-17", refresher.ranges[0].Key())
	require.True(t, refresher.ranges[1].IsUnbounded())
}

func TestPnLWarmupExplicitRange(t *testing.T) {
	refresher := &recordingRefresher{}
	job := NewPnLWarmupJob(refresher, nil, nil)

	task, err := NewPnLWarmupTask(PnLWarmupPayload{From: "2024-01-01", To: "2024-01-31"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, refresher.ranges, 1)
	require.Equal(t, "2024-01-01:2024-01-31", refresher.ranges[0].Key())

	bad, err := NewPnLWarmupTask(PnLWarmupPayload{From: "2024-02-01", To: "2024-01-01"})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)

	garbage := asynq.NewTask(TaskPnLWarmup, []byte("{"))
	require.ErrorIs(t, job.Handle(context.Background(), garbage), asynq.SkipRetry)
}

func TestPnLWarmupPropagatesFailure(t *testing.T) {
	refresher := &recordingRefresher{err: errors.New("redis down")}
	job := NewPnLWarmupJob(refresher, nil, nil)

	task, err := NewPnLWarmupTask(PnLWarmupPayload{})
	require.NoError(t, err)
	require.ErrorContains(t, job.Handle(context.Background(), task), "redis down")
	require.Len(t, refresher.ranges, 1)
}

func TestIdempotencyCleanupDefaultsRetention(t *testing.T) {
	cleaner := &recordingCleaner{}
	job := &IdempotencyCleanupJob{Store: cleaner}
	require.NoError(t, job.Handle(context.Background(), NewIdempotencyCleanupTask()))
	require.Equal(t, 7*24*time.Hour, cleaner.olderThan)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func healthOf(t *testing.T, h *Handler) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}

func TestHealthWithoutInspector(t *testing.T) {
	rec := healthOf(t, NewHandler(nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body QueueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, QueueHealth{Queue: QueueDefault}, body)
}

func TestHealthReportsQueueInfo(t *testing.T) {
	rec := healthOf(t, NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3, Retry: 1}}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body QueueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Available)
	require.Equal(t, 3, body.Pending)
	require.Equal(t, 1, body.Retry)

	rec = healthOf(t, NewHandler(stubInspector{err: errors.New("redis down")}, nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestNewWorkerRejectsBadRegistrations(t *testing.T) {
	noop := func(context.Context, *asynq.Task) error { return nil }
	_, err := NewWorker(WorkerConfig{Handlers: []TaskHandler{{Type: TaskPnLWarmup, Handler: noop}, {Type: TaskPnLWarmup, Handler: noop}}})
	require.ErrorContains(t, err, "duplicate handler")

	_, err = NewWorker(WorkerConfig{Handlers: []TaskHandler{{Type: "", Handler: noop}}})
	require.Error(t, err)

	_, err = NewWorker(WorkerConfig{Cron: []CronRegistration{{Spec: "@hourly"}}})
	require.Error(t, err)
}
