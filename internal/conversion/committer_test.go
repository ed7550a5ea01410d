package conversion

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopsales/console/internal/backend"
	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/products"
)

func TestNewCommitter(t *testing.T) {
	c, err := NewCommitter("", &fakeUpdater{}, &fakeSales{})
	require.NoError(t, err)
	assert.IsType(t, &OrderCompletion{}, c)

	c, err = NewCommitter(" Legacy ", &fakeUpdater{}, &fakeSales{})
	require.NoError(t, err)
	assert.IsType(t, &LegacySale{}, c)

	_, err = NewCommitter("batch", &fakeUpdater{}, &fakeSales{})
	require.ErrorIs(t, err, ErrUnknownCommitMode)
}

func TestOrderCompletionIssuesSingleUpdate(t *testing.T) {
	updater := &fakeUpdater{result: backend.Result[orders.Order]{Success: true, Data: orders.Order{ID: 42}}}
	c := &OrderCompletion{Orders: updater}
	payload := orders.UpdatePayload{State: orders.StateCompleted, Detail: []orders.LinePayload{{ProductID: 5, Quantity: 2}}, PaymentMethod: payments.Cash}

	res, err := c.Commit(context.Background(), CommitRequest{Order: orders.Order{ID: 42}, Payload: payload})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, updater.calls, 1)
	assert.Equal(t, payload, updater.calls[0])
}

func legacyRequest() CommitRequest {
	draft := []orders.Line{
		{Product: products.Product{ID: 5, Price: decimal.NewFromInt(100)}, Quantity: 2},
		{Product: products.Product{ID: 6, Price: decimal.NewFromInt(50)}, Quantity: 1},
		{Product: products.Product{ID: 0}, Quantity: 4},
	}
	order := orders.Order{ID: 42, State: orders.StatePending}
	payload, _ := BuildPayload(order, draft, "cash")
	return CommitRequest{Order: order, Draft: draft, Payload: payload}
}

func TestLegacySaleDedupesDetailsOnRetry(t *testing.T) {
	sales := &fakeSales{failDetailFor: 6, failOnce: true}
	updater := &fakeUpdater{result: backend.Result[orders.Order]{Success: true, Data: orders.Order{ID: 42, State: orders.StateCompleted}}}
	c := NewLegacySale(updater, sales)
	req := legacyRequest()

	res, err := c.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "producto sin stock", res.Error)
	assert.Empty(t, updater.calls)

	res, err = c.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Success)

	assert.Equal(t, 1, sales.created)
	var ids []int64
	for _, d := range sales.details {
		ids = append(ids, d.Product)
	}
	assert.Equal(t, []int64{5, 6, 6}, ids)
	assert.Equal(t, "200", sales.details[0].Subtotal.String())
	require.Len(t, updater.calls, 1)
	assert.Equal(t, req.Payload, updater.calls[0])
}

func TestLegacySaleCreatesFreshSaleAfterSuccess(t *testing.T) {
	sales := &fakeSales{}
	updater := &fakeUpdater{result: backend.Result[orders.Order]{Success: true}}
	c := NewLegacySale(updater, sales)

	_, err := c.Commit(context.Background(), legacyRequest())
	require.NoError(t, err)
	_, known := c.createdSale(42)
	assert.False(t, known)
	assert.Equal(t, 1, sales.created)
}

func TestLegacySaleKeepsSaleWhenOrderUpdateFails(t *testing.T) {
	sales := &fakeSales{}
	updater := &fakeUpdater{resultFn: func(n int) backend.Result[orders.Order] {
		if n == 1 {
			return backend.Result[orders.Order]{Status: 409, Error: "conflicto"}
		}
		return backend.Result[orders.Order]{Success: true}
	}}
	c := NewLegacySale(updater, sales)
	req := legacyRequest()

	res, err := c.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	res, err = c.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Success)

	assert.Equal(t, 1, sales.created)
	assert.Len(t, sales.details, 2)
}

func TestLegacySaleRejectsSaleWithoutID(t *testing.T) {
	sales := &fakeSales{missingID: true}
	updater := &fakeUpdater{result: backend.Result[orders.Order]{Success: true}}
	c := NewLegacySale(updater, sales)

	res, err := c.Commit(context.Background(), legacyRequest())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, FallbackMessage, res.Error)
	assert.Empty(t, sales.details)
	assert.Empty(t, updater.calls)
	_, known := c.createdSale(42)
	assert.False(t, known)
}
