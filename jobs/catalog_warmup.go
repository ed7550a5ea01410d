package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/coopsales/console/internal/jobs"
	"github.com/coopsales/console/internal/sales/products"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CatalogSource is the product catalog refreshed by the warmup.
type CatalogSource interface {
	Refresh(ctx context.Context) error
	All(ctx context.Context) ([]products.Product, error)
}

// CatalogWarmupJob invalidates and reloads the cached product catalog.
type CatalogWarmupJob struct {
	Catalog CatalogSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewCatalogWarmupJob wires dependencies for the warmup handler.
func NewCatalogWarmupJob(catalog CatalogSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogWarmupJob {
	return &CatalogWarmupJob{Catalog: catalog, Logger: logger, Metrics: metrics, Timeout: time.Minute}
}

// Handle processes catalog warmup tasks.
func (j *CatalogWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Catalog == nil {
		return errors.New("catalog warmup: handler not configured")
	}
	var payload CatalogWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	return j.Run(ctx, payload.Reason)
}

// Run refreshes the catalog outside the queue, as the CLI and server
// startup do.
func (j *CatalogWarmupJob) Run(ctx context.Context, reason string) (resultErr error) {
	tracker := j.metrics().Track(TaskCatalogWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", reason))
	started := time.Now()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	if err := j.Catalog.Refresh(ctx); err != nil {
		logger.Error("refresh catalog", slog.Any("error", err))
		return err
	}
	list, err := j.Catalog.All(ctx)
	if err != nil {
		logger.Error("read catalog", slog.Any("error", err))
		return err
	}
	j.metrics().SetCatalogSize(len(list))
	logger.Info("catalog warmed", slog.Int("products", len(list)), slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *CatalogWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogWarmup))
	}
	return slog.Default().With(slog.String("job", TaskCatalogWarmup))
}

func (j *CatalogWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
