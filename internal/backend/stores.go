package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/coopsales/console/internal/sales/customers"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/products"
	"github.com/coopsales/console/internal/sales/receipts"
)

// OrderStore reads and updates orders.
type OrderStore struct {
	client *Client
}

// NewOrderStore wraps client.
func NewOrderStore(client *Client) *OrderStore {
	return &OrderStore{client: client}
}

// List returns every order.
func (s *OrderStore) List(ctx context.Context) (Result[[]orders.Order], error) {
	res, err := s.client.List(ctx, "orders/", nil)
	return mapResult(res, orders.ListFromJSON), err
}

// Get returns the full order detail.
func (s *OrderStore) Get(ctx context.Context, id int64) (Result[orders.Order], error) {
	res, err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("orders/%d/", id), nil, nil)
	return mapResult(res, orders.FromJSON), err
}

// Update replaces the order's state, lines and payment method. Updating to
// completed makes the backend create the sale in the same call.
func (s *OrderStore) Update(ctx context.Context, id int64, payload orders.UpdatePayload) (Result[orders.Order], error) {
	res, err := s.client.Do(ctx, http.MethodPut, fmt.Sprintf("orders/%d/", id), nil, payload)
	return mapResult(res, orders.FromJSON), err
}

// SaleStore creates sales and sale details.
type SaleStore struct {
	client *Client
}

// NewSaleStore wraps client.
func NewSaleStore(client *Client) *SaleStore {
	return &SaleStore{client: client}
}

// Create posts a sale header.
func (s *SaleStore) Create(ctx context.Context, req receipts.CreateSaleRequest) (Result[receipts.Sale], error) {
	res, err := s.client.Do(ctx, http.MethodPost, "sales/", nil, req)
	return mapResult(res, receipts.FromJSON), err
}

// CreateDetail posts one sale line.
func (s *SaleStore) CreateDetail(ctx context.Context, req receipts.CreateDetailRequest) (Result[receipts.Line], error) {
	res, err := s.client.Do(ctx, http.MethodPost, "sale-details/", nil, req)
	return mapResult(res, receipts.LineFromJSON), err
}

// DetailsBySaleID lists the lines already stored for a sale.
func (s *SaleStore) DetailsBySaleID(ctx context.Context, saleID int64) (Result[[]receipts.Line], error) {
	res, err := s.client.List(ctx, "sale-details/", url.Values{"sale": {strconv.FormatInt(saleID, 10)}})
	return mapResult(res, func(items []gjson.Result) []receipts.Line {
		out := make([]receipts.Line, 0, len(items))
		for _, item := range items {
			line := receipts.LineFromJSON(item)
			if line.SaleID != 0 && line.SaleID != saleID {
				continue
			}
			out = append(out, line)
		}
		return out
	}), err
}

// ProductStore lists products.
type ProductStore struct {
	client *Client
}

// NewProductStore wraps client.
func NewProductStore(client *Client) *ProductStore {
	return &ProductStore{client: client}
}

// All returns every product.
func (s *ProductStore) All(ctx context.Context) (Result[[]products.Product], error) {
	res, err := s.client.List(ctx, "products/", nil)
	return mapResult(res, products.ListFromJSON), err
}

// LoadAll adapts All to products.Loader.
func (s *ProductStore) LoadAll(ctx context.Context) ([]products.Product, error) {
	res, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// CustomerStore lists clients.
type CustomerStore struct {
	client *Client
}

// NewCustomerStore wraps client.
func NewCustomerStore(client *Client) *CustomerStore {
	return &CustomerStore{client: client}
}

// All returns every client.
func (s *CustomerStore) All(ctx context.Context) (Result[[]customers.Customer], error) {
	res, err := s.client.List(ctx, "clients/", nil)
	return mapResult(res, customers.ListFromJSON), err
}

// LocationStore lists delivery locations.
type LocationStore struct {
	client *Client
}

// NewLocationStore wraps client.
func NewLocationStore(client *Client) *LocationStore {
	return &LocationStore{client: client}
}

// All returns every location.
func (s *LocationStore) All(ctx context.Context) (Result[[]orders.Location], error) {
	res, err := s.client.List(ctx, "locations/", nil)
	return mapResult(res, orders.LocationsFromJSON), err
}
