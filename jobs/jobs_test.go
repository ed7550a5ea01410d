package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/coopsales/console/internal/jobs"
	"github.com/coopsales/console/internal/sales/products"
)

type stubCatalog struct {
	refreshed  int
	refreshErr error
	list       []products.Product
}

func (s *stubCatalog) Refresh(context.Context) error {
	s.refreshed++
	return s.refreshErr
}

func (s *stubCatalog) All(context.Context) ([]products.Product, error) {
	return s.list, nil
}

type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault, Type: task.Type()}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestNewCatalogWarmupTaskDefaultsReason(t *testing.T) {
	task, err := NewCatalogWarmupTask("  ")
	require.NoError(t, err)
	assert.Equal(t, TaskCatalogWarmup, task.Type())

	var payload CatalogWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "manual", payload.Reason)

	_, err = NewTask("mail:send", "")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestCatalogWarmupHandleRecordsMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	catalog := &stubCatalog{list: []products.Product{{ID: 1}, {ID: 2}, {ID: 3}}}
	job := NewCatalogWarmupJob(catalog, nil, metrics)

	task, err := NewCatalogWarmupTask("cron")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 1, catalog.refreshed)
	assert.Equal(t, 1, testutil.CollectAndCount(registry, "console_jobs_total"))
	assert.InDelta(t, 3, gaugeValue(t, registry, "console_catalog_products"), 0.001)
}

func gaugeValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name && len(family.GetMetric()) > 0 {
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestCatalogWarmupFailureIsReturned(t *testing.T) {
	registry := prometheus.NewRegistry()
	catalog := &stubCatalog{refreshErr: errors.New("backend down")}
	job := NewCatalogWarmupJob(catalog, nil, jobmetrics.NewMetrics(registry))

	err := job.Run(context.Background(), "test")
	require.Error(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(registry, "console_jobs_failures_total"))
}

func TestCatalogWarmupRejectsBadPayload(t *testing.T) {
	job := NewCatalogWarmupJob(&stubCatalog{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskCatalogWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var unset *CatalogWarmupJob
	assert.Error(t, unset.Handle(context.Background(), asynq.NewTask(TaskCatalogWarmup, nil)))
}

func TestClientEnqueue(t *testing.T) {
	enq := &stubEnqueuer{}
	client := NewClientWith(enq)

	info, err := client.EnqueueCatalogWarmup(context.Background(), "deploy")
	require.NoError(t, err)
	assert.Equal(t, "task-1", info.ID)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskCatalogWarmup, enq.tasks[0].Type())

	_, err = client.Enqueue(context.Background(), "unknown", "")
	assert.ErrorIs(t, err, ErrUnknownTask)
	assert.Len(t, enq.tasks, 1)
}

func TestHandlerRoutes(t *testing.T) {
	enq := &stubEnqueuer{}
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4}}, NewClientWith(enq), nil)
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":4}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/catalog:warmup?reason=ui", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enq.tasks, 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/mail:send", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerHealthUnavailable(t *testing.T) {
	h := NewHandler(stubInspector{err: errors.New("redis down")}, nil, nil)
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/catalog:warmup", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
