// Package console serves the JSON API behind the sales console.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/coopsales/console/internal/backend"
	"github.com/coopsales/console/internal/conversion"
	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/platform/httpx"
	"github.com/coopsales/console/internal/sales/customers"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/products"
	"github.com/coopsales/console/internal/shared"
	"github.com/coopsales/console/internal/units"
)

// OrderSource lists orders from the backend.
type OrderSource interface {
	List(ctx context.Context) (backend.Result[[]orders.Order], error)
}

// CustomerSource lists clients from the backend.
type CustomerSource interface {
	All(ctx context.Context) (backend.Result[[]customers.Customer], error)
}

// LocationSource lists delivery locations from the backend.
type LocationSource interface {
	All(ctx context.Context) (backend.Result[[]orders.Location], error)
}

// Conversions is the conversion workflow as seen by the API.
type Conversions interface {
	Begin(ctx context.Context, orderID int64) (conversion.Snapshot, error)
	Snapshot(orderID int64) (conversion.Snapshot, bool)
	Close(orderID int64) bool
	ReplaceDraft(orderID int64, lines []orders.Line) (conversion.Snapshot, error)
	AddItem(orderID int64, line orders.Line) (conversion.Snapshot, error)
	RemoveItem(orderID int64, index int) (conversion.Snapshot, error)
	SetQuantity(orderID int64, index int, quantity float64) (conversion.Snapshot, error)
	SetPaymentMethod(orderID int64, method string) (conversion.Snapshot, error)
	Submit(ctx context.Context, orderID int64, paymentMethod string) (conversion.Snapshot, error)
}

// Params wires the handler. Customers and Locations are optional.
type Params struct {
	Logger      *slog.Logger
	Orders      OrderSource
	Customers   CustomerSource
	Locations   LocationSource
	List        *orders.Store
	Directory   *customers.Directory
	Conversions Conversions
	Locale      language.Tag
}

// Handler serves the console API.
type Handler struct {
	logger      *slog.Logger
	orders      OrderSource
	customers   CustomerSource
	locations   LocationSource
	list        *orders.Store
	conversions Conversions
	present     presenter
}

// NewHandler constructs the handler.
func NewHandler(p Params) *Handler {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	locale := p.Locale
	if locale == language.Und {
		locale = units.DefaultLocale
	}
	directory := p.Directory
	if directory == nil {
		directory = customers.NewDirectory(nil)
	}
	return &Handler{
		logger:      logger,
		orders:      p.Orders,
		customers:   p.Customers,
		locations:   p.Locations,
		list:        p.List,
		conversions: p.Conversions,
		present:     presenter{formatter: units.NewFormatter(locale), directory: directory},
	}
}

// ListOrders returns the order list, reloading it from the backend when the
// store is empty or refresh=1 is passed. state filters the rows; page and
// per_page window them.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("refresh") == "1" || len(h.list.List()) == 0 {
		if err := h.reload(r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "reload orders", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}
	filter := orders.State("")
	if raw := strings.TrimSpace(q.Get("state")); raw != "" {
		filter = orders.ParseState(raw)
	}
	rows := make([]OrderView, 0)
	for _, o := range h.list.List() {
		if filter != "" && o.State != filter {
			continue
		}
		rows = append(rows, h.present.order(o))
	}
	page := shared.ParsePagination(q.Get("page"), q.Get("per_page"), len(rows))
	start, end := page.Bounds()
	httpx.JSON(w, http.StatusOK, map[string]any{"data": rows[start:end], "total": len(rows), "pagination": page})
}

func (h *Handler) reload(ctx context.Context) error {
	var (
		list      []orders.Order
		clients   []customers.Customer
		locations []orders.Location
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := h.orders.List(gctx)
		if err != nil {
			return fmt.Errorf("%w: list orders: %v", httpx.ErrUpstream, err)
		}
		if !res.Success {
			return fmt.Errorf("%w: list orders: %s", httpx.ErrUpstream, res.Error)
		}
		list = res.Data
		return nil
	})
	if h.customers != nil {
		g.Go(func() error {
			res, err := h.customers.All(gctx)
			if err != nil || !res.Success {
				h.logger.WarnContext(ctx, "list clients", slog.Any("error", err), slog.String("message", res.Error))
				return nil
			}
			clients = res.Data
			return nil
		})
	}
	if h.locations != nil {
		g.Go(func() error {
			res, err := h.locations.All(gctx)
			if err != nil || !res.Success {
				h.logger.WarnContext(ctx, "list locations", slog.Any("error", err), slog.String("message", res.Error))
				return nil
			}
			locations = res.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if clients != nil {
		h.present.directory.Replace(clients)
	}
	orders.ResolveLocations(list, locations)
	h.list.Replace(list)
	return nil
}

// PaymentMethods lists the selectable payment methods.
func (h *Handler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"data": payments.Options(), "default": payments.Default})
}

// BeginConversion opens the conversion dialog for an order.
func (h *Handler) BeginConversion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	snap, err := h.conversions.Begin(r.Context(), id)
	h.respond(w, r, http.StatusOK, snap, err)
}

// GetConversion returns the dialog state.
func (h *Handler) GetConversion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	snap, open := h.conversions.Snapshot(id)
	if !open {
		httpx.RespondError(w, fmt.Errorf("%w: no conversion open for order %d", httpx.ErrNotFound, id))
		return
	}
	httpx.JSON(w, http.StatusOK, h.present.conversion(snap))
}

// CloseConversion abandons the dialog.
func (h *Handler) CloseConversion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	h.conversions.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceDraft swaps the draft lines and optionally the payment method.
func (h *Handler) ReplaceDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req DraftRequest
	if !h.decode(w, r, &req) {
		return
	}
	lines := make([]orders.Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, orders.Line{Product: products.Product{ID: item.ProductID}, Quantity: item.Quantity})
	}
	snap, err := h.conversions.ReplaceDraft(id, lines)
	if err == nil && req.PaymentMethod != "" {
		snap, err = h.conversions.SetPaymentMethod(id, req.PaymentMethod)
	}
	h.respond(w, r, http.StatusOK, snap, err)
}

// AddItem appends a draft line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req AddItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	snap, err := h.conversions.AddItem(id, orders.Line{Product: products.Product{ID: req.ProductID}, Quantity: req.Quantity})
	h.respond(w, r, http.StatusCreated, snap, err)
}

// RemoveItem drops a draft line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	index, ok := h.lineIndex(w, r)
	if !ok {
		return
	}
	snap, err := h.conversions.RemoveItem(id, index)
	h.respond(w, r, http.StatusOK, snap, err)
}

// SetQuantity edits the quantity of a draft line.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	index, ok := h.lineIndex(w, r)
	if !ok {
		return
	}
	var req QuantityRequest
	if !h.decode(w, r, &req) {
		return
	}
	snap, err := h.conversions.SetQuantity(id, index, *req.Quantity)
	h.respond(w, r, http.StatusOK, snap, err)
}

// Submit commits the draft.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req SubmitRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	snap, err := h.conversions.Submit(r.Context(), id, req.PaymentMethod)
	h.respond(w, r, http.StatusOK, snap, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, snap conversion.Snapshot, err error) {
	view := h.present.conversion(snap)
	if err == nil {
		httpx.JSON(w, status, view)
		return
	}
	mapped := mapError(err)
	if errors.Is(mapped, httpx.ErrUpstream) {
		h.logger.WarnContext(r.Context(), "conversion failed", slog.Int64("order_id", snap.OrderID), slog.Any("error", err))
	}
	httpx.RespondErrorWith(w, mapped, view)
}

func mapError(err error) error {
	var backendErr *backend.Error
	switch {
	case errors.Is(err, conversion.ErrNoTarget):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, conversion.ErrOrderCancelled),
		errors.Is(err, conversion.ErrOrderCompleted),
		errors.Is(err, conversion.ErrSubmitInFlight),
		errors.Is(err, conversion.ErrNotDrafting),
		errors.Is(err, conversion.ErrStale):
		return fmt.Errorf("%w: %v", httpx.ErrConflict, err)
	case errors.Is(err, conversion.ErrEmptyDraft),
		errors.Is(err, conversion.ErrLineOutOfRange),
		errors.Is(err, orders.ErrInvalidPayload):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	case errors.As(err, &backendErr):
		if backendErr.Message != "" {
			return fmt.Errorf("%w: %s", httpx.ErrUpstream, backendErr.Message)
		}
		return fmt.Errorf("%w: %s", httpx.ErrUpstream, conversion.FallbackMessage)
	case errors.Is(err, backend.ErrTransport):
		return fmt.Errorf("%w: %s", httpx.ErrUpstream, conversion.FallbackMessage)
	}
	return err
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := validateRequest(dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid order id", httpx.ErrBadRequest))
		return 0, false
	}
	return id, true
}

func (h *Handler) lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid line index", httpx.ErrBadRequest))
		return 0, false
	}
	return index, true
}
