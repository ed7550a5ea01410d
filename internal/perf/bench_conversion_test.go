package perf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coopsales/console/internal/backend"
	"github.com/coopsales/console/internal/conversion"
	"github.com/coopsales/console/internal/observability"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/products"
	"github.com/coopsales/console/internal/units"
)

// backendStub answers every order as pending with two lines and accepts
// every update.
func backendStub(updates *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/products/":
			_, _ = io.WriteString(w, `[{"id": 5, "name": "Queso", "price": "1000", "stock_unit": "kg"}, {"id": 6, "name": "Pan", "price": "300"}]`)
		case strings.HasPrefix(r.URL.Path, "/orders/") && r.Method == http.MethodGet:
			id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/orders/"), "/")
			_, _ = fmt.Fprintf(w, `{"id": %s, "client": 1, "state": "pending", "detail": [{"product_id": 5, "quantity": 1.25}, {"product_id": 6, "quantity": 3}]}`, id)
		case strings.HasPrefix(r.URL.Path, "/orders/") && r.Method == http.MethodPut:
			updates.Add(1)
			_, _ = io.WriteString(w, `{"state": "completed"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newCoordinator(tb testing.TB, metrics *observability.Metrics) (*conversion.Coordinator, *atomic.Int64) {
	tb.Helper()
	updates := new(atomic.Int64)
	srv := httptest.NewServer(backendStub(updates))
	tb.Cleanup(srv.Close)

	client, err := backend.NewClient(backend.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil, nil)
	if err != nil {
		tb.Fatalf("client: %v", err)
	}
	orderStore := backend.NewOrderStore(client)
	committer, err := conversion.NewCommitter(conversion.ModeOrderCompletion, orderStore, backend.NewSaleStore(client))
	if err != nil {
		tb.Fatalf("committer: %v", err)
	}
	deps := conversion.Deps{
		Orders:    orderStore,
		Catalog:   products.NewCatalog(backend.NewProductStore(client).LoadAll, nil, nil),
		Committer: committer,
		List:      orders.NewStore(),
		Notifier:  discardNotifier{},
	}
	if metrics != nil {
		deps.Metrics = metrics
	}
	return conversion.NewCoordinator(deps), updates
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, int64, conversion.Notification) {}

func TestConversionLatencyBudget(t *testing.T) {
	metrics := observability.NewMetrics()
	coord, updates := newCoordinator(t, metrics)

	samples := make([]time.Duration, 0, 30)
	for id := int64(1); id <= 30; id++ {
		started := time.Now()
		if _, err := coord.Convert(context.Background(), id, "cash"); err != nil {
			t.Fatalf("convert %d: %v", id, err)
		}
		samples = append(samples, time.Since(started))
	}
	if p95 := percentile95(samples); p95 > time.Second {
		t.Fatalf("conversion latency regression: p95=%s", p95)
	}
	if updates.Load() != 30 {
		t.Fatalf("expected one update per conversion, got %d", updates.Load())
	}

	families, err := metrics.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if completed := metricValue(t, families, "console_conversions_total", map[string]string{"outcome": "completed"}); completed != 30 {
		t.Fatalf("completed conversions = %v", completed)
	}
	if mean := histogramMean(t, families, "console_conversion_commit_seconds", map[string]string{"outcome": "completed"}); mean > 0.5 {
		t.Fatalf("commit duration above budget: %f", mean)
	}
}

func BenchmarkConvert(b *testing.B) {
	coord, _ := newCoordinator(b, nil)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := coord.Convert(ctx, int64(i+1), "transfer"); err != nil {
			b.Fatalf("convert: %v", err)
		}
	}
}

func BenchmarkFormatUnitValue(b *testing.B) {
	f := units.NewFormatter(units.DefaultLocale)
	for i := 0; i < b.N; i++ {
		_ = f.FormatUnitValue(float64(i)/7, "kg")
		_ = f.FormatUnitValue(i, "unidad")
	}
}
