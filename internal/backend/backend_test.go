package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/receipts"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{BaseURL: srv.URL + "/api", Token: "secret", Timeout: time.Second}, nil, nil)
	require.NoError(t, err)
	return client
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "/api"}, nil, nil)
	require.Error(t, err)
}

func TestOrderGetSendsHeaders(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/42/", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{"id": 42, "state": "pending", "detail": [{"product_id": 5, "quantity": 2}]}`)
	}))

	res, err := NewOrderStore(client).Get(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(42), res.Data.ID)
	require.Len(t, res.Data.Lines, 1)
	assert.Equal(t, int64(5), res.Data.Lines[0].Product.ID)
}

func TestOrderUpdateFailureEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "completed", body["state"])
		assert.Equal(t, []any{map[string]any{"product_id": float64(5), "quantity": float64(2)}}, body["detail"])
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": "stock insuficiente"}`)
	}))

	ctx := WithIdempotencyKey(context.Background(), "key-1")
	res, err := NewOrderStore(client).Update(ctx, 42, orders.UpdatePayload{
		State:         orders.StateCompleted,
		Detail:        []orders.LinePayload{{ProductID: 5, Quantity: 2}},
		PaymentMethod: payments.Cash,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "stock insuficiente", res.Error)

	var backendErr *Error
	require.ErrorAs(t, res.Err(), &backendErr)
	assert.Equal(t, http.StatusBadRequest, backendErr.Status)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client, err := NewClient(Config{BaseURL: srv.URL}, nil, nil)
	require.NoError(t, err)
	srv.Close()

	res, err := NewOrderStore(client).Get(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, res.Success)
}

func TestListFollowsNext(t *testing.T) {
	var calls atomic.Int32
	var srvURL string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("page") {
		case "":
			_, _ = fmt.Fprintf(w, `{"count": 3, "next": "%s/api/products/?page=2", "results": [{"id": 1}, {"id": 2}]}`, srvURL)
		case "2":
			_, _ = io.WriteString(w, `{"count": 3, "next": null, "results": [{"id": 3, "stock_unit": "kg"}]}`)
		}
	}))
	srvURL = "http://" + client.baseURL.Host

	res, err := NewProductStore(client).All(context.Background())
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Data, 3)
	assert.Equal(t, int64(3), res.Data[2].ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListFollowsRootRelativeNext(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path != "/api/orders/" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("page") {
		case "":
			_, _ = io.WriteString(w, `{"next": "/api/orders/?page=2", "results": [{"id": 41}]}`)
		case "2":
			_, _ = io.WriteString(w, `{"next": null, "results": [{"id": 42}]}`)
		}
	}))

	res, err := client.List(context.Background(), "orders/", nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Data, 2)
	assert.Equal(t, int64(42), res.Data[1].Get("id").Int())
	assert.Equal(t, []string{"/api/orders/", "/api/orders/"}, paths)
}

func TestListStopsOnRepeatedNext(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"next": "clients/", "results": [{"id": 1, "name": "Ana"}]}`)
	}))

	res, err := NewCustomerStore(client).All(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(1), calls.Load())
}

func TestListBareArray(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id": 1, "name": "Paraná", "postal_code": "3100"}]`)
	}))
	res, err := NewLocationStore(client).All(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "3100", res.Data[0].PostalCode)
}

func TestSaleStore(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/sales/":
			_, _ = io.WriteString(w, `{"id": 77, "order": 42, "total_price": "200.00"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/sale-details/":
			_, _ = io.WriteString(w, `{"id": 1, "sale": 77, "product": 5, "quantity": 2}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/sale-details/":
			assert.Equal(t, "77", r.URL.Query().Get("sale"))
			_, _ = io.WriteString(w, `[{"id": 1, "sale": 77, "product": 5}, {"id": 2, "sale": 78, "product": 6}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	store := NewSaleStore(client)
	ctx := context.Background()

	sale, err := store.Create(ctx, receipts.CreateSaleRequest{Order: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(77), sale.Data.ID)
	assert.Equal(t, int64(42), sale.Data.OrderID)

	detail, err := store.CreateDetail(ctx, receipts.CreateDetailRequest{Sale: 77, Product: 5, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), detail.Data.ProductID)

	details, err := store.DetailsBySaleID(ctx, 77)
	require.NoError(t, err)
	require.Len(t, details.Data, 1)
	assert.Equal(t, int64(5), details.Data[0].ProductID)
}

func TestProductLoadAllFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	_, err := NewProductStore(client).LoadAll(context.Background())
	var backendErr *Error
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "Service Unavailable", backendErr.Message)
}

func TestExtractMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"error": "stock insuficiente"}`, "stock insuficiente"},
		{`{"error": {"message": "sin permiso"}}`, "sin permiso"},
		{`{"detail": "Not found."}`, "Not found."},
		{`{"non_field_errors": ["fecha inválida"]}`, "fecha inválida"},
		{`{"quantity": ["Debe ser mayor a cero."]}`, "quantity: Debe ser mayor a cero."},
		{`"texto plano"`, "texto plano"},
		{`algo salió mal`, "algo salió mal"},
		{`<html>boom</html>`, "Internal Server Error"},
		{``, "Internal Server Error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractMessage([]byte(tc.body), http.StatusInternalServerError), tc.body)
	}
}
