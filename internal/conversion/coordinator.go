package conversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coopsales/console/internal/backend"
	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/products"
	"github.com/coopsales/console/internal/shared"
)

// OrderReader fetches the authoritative order detail.
type OrderReader interface {
	Get(ctx context.Context, id int64) (backend.Result[orders.Order], error)
}

// Catalog resolves partial product references.
type Catalog interface {
	All(ctx context.Context) ([]products.Product, error)
	Resolve(ref products.Product) products.Product
}

// ListStore is the order list shown to operators. The coordinator is its
// only writer during conversions.
type ListStore interface {
	Get(id int64) (orders.Order, bool)
	Upsert(o orders.Order)
	MarkState(id int64, state orders.State) error
	MarkCompleted(id int64) error
}

// AuditRecorder persists conversion outcomes.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics observes conversion outcomes.
type Metrics interface {
	ObserveConversion(outcome string, took time.Duration)
}

// Deps wires the coordinator collaborators. Notifier, Audit and Metrics are
// optional.
type Deps struct {
	Orders    OrderReader
	Catalog   Catalog
	Committer Committer
	List      ListStore
	Notifier  Notifier
	Audit     AuditRecorder
	Metrics   Metrics
	Logger    *slog.Logger
}

// Snapshot is a read-only view of one workflow.
type Snapshot struct {
	OrderID       int64           `json:"order_id"`
	State         State           `json:"state"`
	Loading       bool            `json:"loading"`
	Order         orders.Order    `json:"order"`
	Draft         []orders.Line   `json:"draft"`
	PaymentMethod payments.Method `json:"payment_method"`
	Attempts      int             `json:"attempts"`
	LastOutcome   State           `json:"last_outcome,omitempty"`
	Notifications []Notification  `json:"notifications"`
}

type workflow struct {
	orderID       int64
	generation    uint64
	state         State
	loading       bool
	order         orders.Order
	draft         []orders.Line
	paymentMethod payments.Method
	attempts      int
	lastOutcome   State
	notifications []Notification
}

// Coordinator owns one conversion workflow per order id. Operations on the
// same order are serialised; backend calls run outside the lock and their
// results are dropped when the workflow was closed meanwhile.
type Coordinator struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	nextGen uint64
	flows   map[int64]*workflow
}

// NewCoordinator constructs a coordinator.
func NewCoordinator(deps Deps) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{Logger: logger}
	}
	return &Coordinator{deps: deps, logger: logger, now: time.Now, flows: make(map[int64]*workflow)}
}

// Begin opens the conversion of orderID. Cancelled or completed orders are
// refused from the cached list without contacting the backend; otherwise the
// detail and the catalog are fetched concurrently and the refreshed state is
// checked again before the draft is seeded.
func (c *Coordinator) Begin(ctx context.Context, orderID int64) (Snapshot, error) {
	if orderID <= 0 {
		return Snapshot{State: StateIdle}, ErrNoTarget
	}

	c.mu.Lock()
	if flow, ok := c.flows[orderID]; ok {
		snap := flow.snapshot()
		c.mu.Unlock()
		return snap, nil
	}
	if cached, ok := c.deps.List.Get(orderID); ok {
		if err := guardState(cached.State); err != nil {
			snap := c.refuse(ctx, orderID, cached, err)
			c.mu.Unlock()
			return snap, err
		}
	}
	c.nextGen++
	flow := &workflow{orderID: orderID, generation: c.nextGen, state: StateDrafting, loading: true}
	c.flows[orderID] = flow
	gen := flow.generation
	c.mu.Unlock()

	var (
		detail    backend.Result[orders.Order]
		detailErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		detail, detailErr = c.deps.Orders.Get(gctx, orderID)
		return nil
	})
	g.Go(func() error {
		if _, err := c.deps.Catalog.All(gctx); err != nil {
			c.logger.WarnContext(ctx, "catalog unavailable for draft", slog.Int64("order_id", orderID), slog.Any("error", err))
		}
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.flows[orderID]; !ok || current.generation != gen {
		c.logger.DebugContext(ctx, "discarding stale order detail", slog.Int64("order_id", orderID))
		return Snapshot{OrderID: orderID, State: StateIdle}, ErrStale
	}

	if detailErr != nil || !detail.Success {
		delete(c.flows, orderID)
		msg := failureMessage(detail.Error, detailErr)
		n := c.notify(ctx, flow, LevelError, fmt.Sprintf("No se pudo cargar el pedido #%d: %s", orderID, msg))
		snap := Snapshot{OrderID: orderID, State: StateIdle, Notifications: []Notification{n}}
		if detailErr != nil {
			return snap, fmt.Errorf("fetch order %d: %w", orderID, detailErr)
		}
		return snap, fmt.Errorf("fetch order %d: %w", orderID, detail.Err())
	}

	order := detail.Data
	if order.ID == 0 {
		order.ID = orderID
	}
	if err := guardState(order.State); err != nil {
		delete(c.flows, orderID)
		if markErr := c.deps.List.MarkState(orderID, order.State); markErr != nil {
			c.deps.List.Upsert(order)
		}
		return c.refuse(ctx, orderID, order, err), err
	}

	flow.order = order
	flow.paymentMethod = order.PaymentMethod
	flow.draft = make([]orders.Line, 0, len(order.Lines))
	for _, line := range order.Lines {
		line.Product = c.deps.Catalog.Resolve(line.Product)
		flow.draft = append(flow.draft, line)
	}
	flow.loading = false
	return flow.snapshot(), nil
}

func guardState(state orders.State) error {
	switch state {
	case orders.StateCancelled:
		return ErrOrderCancelled
	case orders.StateCompleted:
		return ErrOrderCompleted
	}
	return nil
}

// refuse emits the guard warning and reports the workflow as idle. Callers
// hold c.mu.
func (c *Coordinator) refuse(ctx context.Context, orderID int64, order orders.Order, reason error) Snapshot {
	msg := fmt.Sprintf("El pedido #%d ya fue completado", orderID)
	if errors.Is(reason, ErrOrderCancelled) {
		msg = fmt.Sprintf("El pedido #%d está cancelado y no puede convertirse en venta", orderID)
	}
	n := c.notify(ctx, &workflow{orderID: orderID}, LevelWarning, msg)
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObserveConversion("refused", 0)
	}
	return Snapshot{OrderID: orderID, State: StateIdle, Order: order, Notifications: []Notification{n}}
}

// Snapshot returns the current view of an open workflow.
func (c *Coordinator) Snapshot(orderID int64) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	flow, ok := c.flows[orderID]
	if !ok {
		return Snapshot{OrderID: orderID, State: StateIdle}, false
	}
	return flow.snapshot(), true
}

// Close abandons the workflow. Fetches still in flight are discarded when
// they return.
func (c *Coordinator) Close(orderID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.flows[orderID]; !ok {
		return false
	}
	delete(c.flows, orderID)
	return true
}

// ReplaceDraft swaps every draft line.
func (c *Coordinator) ReplaceDraft(orderID int64, lines []orders.Line) (Snapshot, error) {
	return c.edit(orderID, func(flow *workflow) error {
		flow.draft = make([]orders.Line, 0, len(lines))
		for _, l := range lines {
			l.Product = c.deps.Catalog.Resolve(l.Product)
			flow.draft = append(flow.draft, l)
		}
		return nil
	})
}

// AddItem appends a line, resolving its product through the catalog.
func (c *Coordinator) AddItem(orderID int64, line orders.Line) (Snapshot, error) {
	return c.edit(orderID, func(flow *workflow) error {
		line.Product = c.deps.Catalog.Resolve(line.Product)
		flow.draft = append(flow.draft, line)
		return nil
	})
}

// RemoveItem drops the line at index.
func (c *Coordinator) RemoveItem(orderID int64, index int) (Snapshot, error) {
	return c.edit(orderID, func(flow *workflow) error {
		if index < 0 || index >= len(flow.draft) {
			return ErrLineOutOfRange
		}
		flow.draft = append(flow.draft[:index:index], flow.draft[index+1:]...)
		return nil
	})
}

// SetQuantity changes the quantity of the line at index.
func (c *Coordinator) SetQuantity(orderID int64, index int, quantity float64) (Snapshot, error) {
	return c.edit(orderID, func(flow *workflow) error {
		if index < 0 || index >= len(flow.draft) {
			return ErrLineOutOfRange
		}
		flow.draft[index].Quantity = quantity
		return nil
	})
}

// SetPaymentMethod records the operator's payment choice on the draft.
func (c *Coordinator) SetPaymentMethod(orderID int64, method string) (Snapshot, error) {
	return c.edit(orderID, func(flow *workflow) error {
		flow.paymentMethod = payments.Normalize(method)
		return nil
	})
}

func (c *Coordinator) edit(orderID int64, fn func(*workflow) error) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	flow, ok := c.flows[orderID]
	if !ok {
		return Snapshot{OrderID: orderID, State: StateIdle}, ErrNoTarget
	}
	if flow.state != StateDrafting || flow.loading {
		return flow.snapshot(), ErrNotDrafting
	}
	if err := fn(flow); err != nil {
		return flow.snapshot(), err
	}
	return flow.snapshot(), nil
}

// Submit commits the draft. An empty paymentMethod uses the one recorded on
// the draft. Validation failures make no backend call and keep the draft;
// backend failures return the workflow to drafting with the draft intact so
// the same payload can be retried.
func (c *Coordinator) Submit(ctx context.Context, orderID int64, paymentMethod string) (Snapshot, error) {
	c.mu.Lock()
	flow, ok := c.flows[orderID]
	if !ok {
		c.mu.Unlock()
		return Snapshot{OrderID: orderID, State: StateIdle}, ErrNoTarget
	}
	if flow.state == StateSubmitting {
		snap := flow.snapshot()
		c.mu.Unlock()
		return snap, ErrSubmitInFlight
	}
	if flow.state != StateDrafting || flow.loading {
		snap := flow.snapshot()
		c.mu.Unlock()
		return snap, ErrNotDrafting
	}
	if paymentMethod != "" {
		flow.paymentMethod = payments.Normalize(paymentMethod)
	}
	payload, err := BuildPayload(flow.order, flow.draft, string(flow.paymentMethod))
	if err != nil {
		c.notify(ctx, flow, LevelError, validationMessage(err))
		snap := flow.snapshot()
		c.mu.Unlock()
		return snap, err
	}
	flow.state = StateSubmitting
	flow.attempts++
	req := CommitRequest{Order: flow.order.Clone(), Draft: cloneLines(flow.draft), Payload: payload}
	c.mu.Unlock()

	start := c.now()
	ctx = backend.WithIdempotencyKey(ctx, IdempotencyKey(orderID, payload))
	res, commitErr := c.deps.Committer.Commit(ctx, req)
	took := c.now().Sub(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.flows[orderID] == flow

	if commitErr == nil && res.Success {
		if err := c.deps.List.MarkCompleted(orderID); err != nil {
			completed := req.Order
			completed.State = orders.StateCompleted
			completed.PaymentMethod = payload.PaymentMethod
			c.deps.List.Upsert(completed)
		}
		flow.state = StateCompleted
		flow.lastOutcome = StateCompleted
		c.notify(ctx, flow, LevelInfo, fmt.Sprintf("Venta registrada para el pedido #%d", orderID))
		snap := flow.snapshot()
		if current {
			delete(c.flows, orderID)
		}
		c.observe(ctx, orderID, "completed", took, payload, "")
		return snap, nil
	}

	msg := failureMessage(res.Error, commitErr)
	flow.state = StateDrafting
	flow.lastOutcome = StateFailed
	c.notify(ctx, flow, LevelError, msg)
	c.observe(ctx, orderID, "failed", took, payload, msg)
	snap := flow.snapshot()
	snap.State = StateFailed
	if commitErr != nil {
		return snap, fmt.Errorf("commit order %d: %w", orderID, commitErr)
	}
	return snap, fmt.Errorf("commit order %d: %w", orderID, res.Err())
}

// Convert runs a whole conversion with the order's current lines, for
// callers without an interactive draft.
func (c *Coordinator) Convert(ctx context.Context, orderID int64, paymentMethod string) (Snapshot, error) {
	if snap, err := c.Begin(ctx, orderID); err != nil {
		return snap, err
	}
	snap, err := c.Submit(ctx, orderID, paymentMethod)
	if err != nil && snap.State != StateCompleted {
		c.Close(orderID)
	}
	return snap, err
}

func (c *Coordinator) notify(ctx context.Context, flow *workflow, level Level, msg string) Notification {
	n := Notification{Level: level, Message: msg, At: c.now()}
	flow.notifications = append(flow.notifications, n)
	c.deps.Notifier.Notify(ctx, flow.orderID, n)
	return n
}

func (c *Coordinator) observe(ctx context.Context, orderID int64, outcome string, took time.Duration, payload orders.UpdatePayload, message string) {
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObserveConversion(outcome, took)
	}
	if c.deps.Audit == nil {
		return
	}
	meta := map[string]any{
		"payment_method": payload.PaymentMethod,
		"lines":          len(payload.Detail),
		"duration_ms":    took.Milliseconds(),
	}
	if message != "" {
		meta["error"] = message
	}
	err := c.deps.Audit.Record(ctx, shared.AuditLog{
		Action:   "order.conversion." + outcome,
		Entity:   "order",
		EntityID: strconv.FormatInt(orderID, 10),
		Meta:     meta,
		At:       c.now(),
	})
	if err != nil {
		c.logger.WarnContext(ctx, "audit conversion", slog.Int64("order_id", orderID), slog.Any("error", err))
	}
}

func failureMessage(envelope string, err error) string {
	if envelope != "" {
		return envelope
	}
	var backendErr *backend.Error
	if errors.As(err, &backendErr) && backendErr.Message != "" {
		return backendErr.Message
	}
	return FallbackMessage
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyDraft):
		return "Agregá al menos un producto con cantidad mayor a cero"
	case errors.Is(err, ErrNoTarget):
		return "No hay un pedido seleccionado"
	default:
		return "Los datos de la venta no son válidos"
	}
}

func (w *workflow) snapshot() Snapshot {
	notes := make([]Notification, len(w.notifications))
	copy(notes, w.notifications)
	return Snapshot{
		OrderID:       w.orderID,
		State:         w.state,
		Loading:       w.loading,
		Order:         w.order.Clone(),
		Draft:         cloneLines(w.draft),
		PaymentMethod: w.paymentMethod,
		Attempts:      w.attempts,
		LastOutcome:   w.lastOutcome,
		Notifications: notes,
	}
}

func cloneLines(lines []orders.Line) []orders.Line {
	if lines == nil {
		return []orders.Line{}
	}
	out := make([]orders.Line, len(lines))
	copy(out, lines)
	return out
}
