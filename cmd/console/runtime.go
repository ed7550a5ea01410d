package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coopsales/console/internal/app"
	"github.com/coopsales/console/internal/backend"
	"github.com/coopsales/console/internal/conversion"
	"github.com/coopsales/console/internal/observability"
	"github.com/coopsales/console/internal/platform/cache"
	"github.com/coopsales/console/internal/platform/db"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/products"
	"github.com/coopsales/console/internal/shared"
)

// runtime holds the collaborators shared by every subcommand.
type runtime struct {
	cfg     *app.Config
	logger  *slog.Logger
	metrics *observability.Metrics

	redis *redis.Client
	pool  *pgxpool.Pool

	productCache *cache.Versioned
	catalog      *products.Catalog
	orders       *backend.OrderStore
	customers    *backend.CustomerStore
	locations    *backend.LocationStore
	list         *orders.Store
	coordinator  *conversion.Coordinator
}

func newRuntime(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger, metrics: observability.NewMetrics(), list: orders.NewStore()}

	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
	}, nil, logger)
	if err != nil {
		return nil, err
	}
	rt.orders = backend.NewOrderStore(client)
	rt.customers = backend.NewCustomerStore(client)
	rt.locations = backend.NewLocationStore(client)
	productStore := backend.NewProductStore(client)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", slog.Any("error", err))
	} else {
		rt.redis = redisClient
	}
	rt.productCache = cache.NewVersioned(rt.redis, "console:catalog", cfg.CatalogTTL)
	rt.catalog = products.NewCatalog(productStore.LoadAll, rt.productCache, logger)

	committer, err := conversion.NewCommitter(cfg.ConsoleCommitMode, rt.orders, backend.NewSaleStore(client))
	if err != nil {
		rt.Close()
		return nil, err
	}

	deps := conversion.Deps{
		Orders:    rt.orders,
		Catalog:   rt.catalog,
		Committer: committer,
		List:      rt.list,
		Metrics:   rt.metrics,
		Logger:    logger,
	}
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect audit database: %w", err)
		}
		rt.pool = pool
		if err := db.Migrate(ctx, pool, shared.AuditSchema); err != nil {
			rt.Close()
			return nil, err
		}
		deps.Audit = shared.NewAuditLogger(pool)
	}
	rt.coordinator = conversion.NewCoordinator(deps)
	return rt, nil
}

// Close releases connections in reverse order of creation.
func (rt *runtime) Close() {
	if rt.pool != nil {
		rt.pool.Close()
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.logger.Warn("redis close", slog.Any("error", err))
		}
	}
}
