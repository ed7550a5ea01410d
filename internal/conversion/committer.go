package conversion

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/coopsales/console/internal/backend"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/receipts"
)

// Commit modes accepted by NewCommitter.
const (
	ModeOrderCompletion = "order"
	ModeLegacySale      = "legacy"
)

// CommitRequest carries everything a committer may need.
type CommitRequest struct {
	Order   orders.Order
	Draft   []orders.Line
	Payload orders.UpdatePayload
}

// Committer turns a completed draft into a sale on the backend.
type Committer interface {
	Commit(ctx context.Context, req CommitRequest) (backend.Result[orders.Order], error)
}

// OrderUpdater is the order write side of the backend.
type OrderUpdater interface {
	Update(ctx context.Context, id int64, payload orders.UpdatePayload) (backend.Result[orders.Order], error)
}

// SaleWriter is the sale side of the backend used by the legacy path.
type SaleWriter interface {
	Create(ctx context.Context, req receipts.CreateSaleRequest) (backend.Result[receipts.Sale], error)
	CreateDetail(ctx context.Context, req receipts.CreateDetailRequest) (backend.Result[receipts.Line], error)
	DetailsBySaleID(ctx context.Context, saleID int64) (backend.Result[[]receipts.Line], error)
}

// NewCommitter selects the commit strategy for mode. Empty means order
// completion.
func NewCommitter(mode string, updater OrderUpdater, sales SaleWriter) (Committer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeOrderCompletion:
		return &OrderCompletion{Orders: updater}, nil
	case ModeLegacySale:
		return NewLegacySale(updater, sales), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommitMode, mode)
	}
}

// OrderCompletion commits with a single full-state order update. The backend
// creates the sale as part of completing the order, and the update replaces
// the order lines, so retries never duplicate anything.
type OrderCompletion struct {
	Orders OrderUpdater
}

// Commit implements Committer.
func (c *OrderCompletion) Commit(ctx context.Context, req CommitRequest) (backend.Result[orders.Order], error) {
	return c.Orders.Update(ctx, req.Order.ID, req.Payload)
}

// LegacySale creates the sale and its details explicitly before completing
// the order. The sale id created for an order is remembered and its existing
// detail products are skipped, so a retry after a partial failure does not
// insert the same line twice.
type LegacySale struct {
	Orders OrderUpdater
	Sales  SaleWriter

	mu    sync.Mutex
	sales map[int64]int64
}

// NewLegacySale constructs the legacy committer.
func NewLegacySale(updater OrderUpdater, sales SaleWriter) *LegacySale {
	return &LegacySale{Orders: updater, Sales: sales, sales: make(map[int64]int64)}
}

// Commit implements Committer.
func (c *LegacySale) Commit(ctx context.Context, req CommitRequest) (backend.Result[orders.Order], error) {
	orderID := req.Order.ID
	sale := receipts.FromOrder(req.Order, ValidLines(req.Draft), req.Payload.PaymentMethod)

	saleID, known := c.createdSale(orderID)
	if !known {
		res, err := c.Sales.Create(ctx, sale.CreateRequest())
		if err != nil || !res.Success {
			return failedWith[orders.Order](res.Status, res.Error), wrapCommit("create sale", err)
		}
		if res.Data.ID <= 0 {
			return failedWith[orders.Order](res.Status, FallbackMessage), nil
		}
		saleID = res.Data.ID
		c.remember(orderID, saleID)
	}

	existing, err := c.Sales.DetailsBySaleID(ctx, saleID)
	if err != nil || !existing.Success {
		return failedWith[orders.Order](existing.Status, existing.Error), wrapCommit("list sale details", err)
	}
	for _, detail := range sale.DetailRequests(saleID, receipts.ProductIDs(existing.Data)) {
		res, err := c.Sales.CreateDetail(ctx, detail)
		if err != nil || !res.Success {
			return failedWith[orders.Order](res.Status, res.Error), wrapCommit("create sale detail", err)
		}
	}

	res, err := c.Orders.Update(ctx, orderID, req.Payload)
	if err == nil && res.Success {
		c.forget(orderID)
	}
	return res, err
}

func (c *LegacySale) createdSale(orderID int64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.sales[orderID]
	return id, ok
}

func (c *LegacySale) remember(orderID, saleID int64) {
	c.mu.Lock()
	c.sales[orderID] = saleID
	c.mu.Unlock()
}

func (c *LegacySale) forget(orderID int64) {
	c.mu.Lock()
	delete(c.sales, orderID)
	c.mu.Unlock()
}

func failedWith[T any](status int, message string) backend.Result[T] {
	return backend.Result[T]{Status: status, Error: message}
}

func wrapCommit(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", step, err)
}
