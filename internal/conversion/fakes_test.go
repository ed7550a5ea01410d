package conversion

import (
	"context"
	"sync"
	"time"

	"github.com/coopsales/console/internal/backend"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/products"
	"github.com/coopsales/console/internal/sales/receipts"
	"github.com/coopsales/console/internal/shared"
)

type fakeOrders struct {
	mu     sync.Mutex
	calls  int
	result backend.Result[orders.Order]
	err    error
	block  chan struct{}
}

func (f *fakeOrders) Get(ctx context.Context, id int64) (backend.Result[orders.Order], error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.result, f.err
}

func (f *fakeOrders) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCatalog struct {
	byID map[int64]products.Product
	err  error
}

func (f *fakeCatalog) All(ctx context.Context) ([]products.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]products.Product, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) Resolve(ref products.Product) products.Product {
	if full, ok := f.byID[ref.ID]; ok {
		return ref.Merge(full)
	}
	return ref
}

type commitCall struct {
	req CommitRequest
	key string
}

type fakeCommitter struct {
	mu      sync.Mutex
	calls   []commitCall
	results []backend.Result[orders.Order]
	errs    []error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeCommitter) Commit(ctx context.Context, req CommitRequest) (backend.Result[orders.Order], error) {
	f.mu.Lock()
	i := len(f.calls)
	f.calls = append(f.calls, commitCall{req: req, key: idempotencyFromContext(ctx)})
	entered, release := f.entered, f.release
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	var res backend.Result[orders.Order]
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func (f *fakeCommitter) Calls() []commitCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]commitCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func idempotencyFromContext(ctx context.Context) string {
	return backend.IdempotencyKeyFrom(ctx)
}

type recordedNote struct {
	orderID int64
	note    Notification
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []recordedNote
}

func (f *fakeNotifier) Notify(ctx context.Context, orderID int64, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, recordedNote{orderID: orderID, note: n})
}

func (f *fakeNotifier) Last() Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.notes) == 0 {
		return Notification{}
	}
	return f.notes[len(f.notes)-1].note
}

type fakeAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (f *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, log)
	return nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (f *fakeMetrics) ObserveConversion(outcome string, took time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
}

type fakeSales struct {
	created       int
	details       []receipts.CreateDetailRequest
	existing      []receipts.Line
	failDetailFor int64
	failOnce      bool
	missingID     bool
}

func (f *fakeSales) Create(ctx context.Context, req receipts.CreateSaleRequest) (backend.Result[receipts.Sale], error) {
	f.created++
	if f.missingID {
		return backend.Result[receipts.Sale]{Success: true, Status: 201, Data: receipts.Sale{OrderID: req.Order}}, nil
	}
	return backend.Result[receipts.Sale]{Success: true, Status: 201, Data: receipts.Sale{ID: 77, OrderID: req.Order, Total: req.TotalPrice}}, nil
}

func (f *fakeSales) CreateDetail(ctx context.Context, req receipts.CreateDetailRequest) (backend.Result[receipts.Line], error) {
	f.details = append(f.details, req)
	if req.Product == f.failDetailFor && f.failOnce {
		f.failOnce = false
		return backend.Result[receipts.Line]{Status: 400, Error: "producto sin stock"}, nil
	}
	f.existing = append(f.existing, receipts.Line{SaleID: req.Sale, ProductID: req.Product, Quantity: req.Quantity})
	return backend.Result[receipts.Line]{Success: true, Status: 201, Data: receipts.Line{SaleID: req.Sale, ProductID: req.Product}}, nil
}

func (f *fakeSales) DetailsBySaleID(ctx context.Context, saleID int64) (backend.Result[[]receipts.Line], error) {
	out := make([]receipts.Line, len(f.existing))
	copy(out, f.existing)
	return backend.Result[[]receipts.Line]{Success: true, Status: 200, Data: out}, nil
}

type fakeUpdater struct {
	calls    []orders.UpdatePayload
	result   backend.Result[orders.Order]
	resultFn func(n int) backend.Result[orders.Order]
}

func (f *fakeUpdater) Update(ctx context.Context, id int64, payload orders.UpdatePayload) (backend.Result[orders.Order], error) {
	f.calls = append(f.calls, payload)
	if f.resultFn != nil {
		return f.resultFn(len(f.calls)), nil
	}
	return f.result, nil
}
