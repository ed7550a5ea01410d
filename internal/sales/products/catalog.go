package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/coopsales/console/internal/platform/cache"
)

// ErrLoaderRequired is returned when a catalog is built without a loader.
var ErrLoaderRequired = errors.New("products: loader required")

// Loader fetches the full product list from the backend.
type Loader func(ctx context.Context) ([]Product, error)

// Catalog keeps the product list cached in Redis and indexed in memory.
type Catalog struct {
	load   Loader
	cache  *cache.Versioned
	logger *slog.Logger
	group  singleflight.Group

	mu   sync.RWMutex
	byID map[int64]Product
}

// NewCatalog constructs the catalog. A nil cache loads on every call.
func NewCatalog(load Loader, c *cache.Versioned, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{load: load, cache: c, logger: logger, byID: make(map[int64]Product)}
}

// All returns the product list, populating the cache when cold. Concurrent
// callers share one backend round trip.
func (c *Catalog) All(ctx context.Context) ([]Product, error) {
	if c.load == nil {
		return nil, ErrLoaderRequired
	}
	v, err, _ := c.group.Do("all", func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	list := v.([]Product)
	out := make([]Product, len(list))
	copy(out, list)
	return out, nil
}

func (c *Catalog) fetch(ctx context.Context) ([]Product, error) {
	var loadErr error
	loader := func(ctx context.Context) (any, error) {
		list, err := c.load(ctx)
		loadErr = err
		return list, err
	}

	var list []Product
	key, err := c.cache.BuildKey(ctx, "products", "all")
	if err == nil {
		err = c.cache.FetchJSON(ctx, key, &list, loader)
	}
	if err != nil {
		if loadErr != nil {
			return nil, fmt.Errorf("load products: %w", loadErr)
		}
		c.logger.WarnContext(ctx, "product cache unavailable", slog.Any("error", err))
		list, err = c.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
	}

	index := make(map[int64]Product, len(list))
	for _, p := range list {
		index[p.ID] = p
	}
	c.mu.Lock()
	c.byID = index
	c.mu.Unlock()
	return list, nil
}

// Lookup returns the indexed product for id.
func (c *Catalog) Lookup(id int64) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Resolve completes a product reference from the catalog, including
// embedded references that carry a name and price but no stock unit.
// Unknown references are returned unchanged.
func (c *Catalog) Resolve(ref Product) Product {
	full, ok := c.Lookup(ref.ID)
	if !ok {
		return ref
	}
	return ref.Merge(full)
}

// Refresh invalidates the cached list and reloads it.
func (c *Catalog) Refresh(ctx context.Context) error {
	if err := c.cache.Bump(ctx); err != nil {
		c.logger.WarnContext(ctx, "product cache bump failed", slog.Any("error", err))
	}
	_, err := c.All(ctx)
	return err
}
