package receipts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/products"
)

func line(id int64, qty float64, price string) orders.Line {
	return orders.Line{Product: products.Product{ID: id, Price: decimal.RequireFromString(price)}, Quantity: qty}
}

func TestFromOrderTotals(t *testing.T) {
	order := orders.Order{ID: 42, Date: "2024-05-02"}
	sale := FromOrder(order, []orders.Line{
		line(5, 2, "100"),
		line(0, 3, "50"),
		line(6, 1.255, "10.10"),
		line(7, 0, "10"),
	}, payments.Debit)

	require.Len(t, sale.Lines, 2)
	assert.Equal(t, "200", sale.Lines[0].Subtotal.String())
	assert.Equal(t, "12.68", sale.Lines[1].Subtotal.String())
	assert.Equal(t, "212.68", sale.Total.String())
	assert.Equal(t, payments.Debit, sale.PaymentMethod)
	assert.Equal(t, int64(42), sale.CreateRequest().Order)
}

func TestDetailRequestsSkipExisting(t *testing.T) {
	sale := FromOrder(orders.Order{ID: 1}, []orders.Line{line(5, 1, "1"), line(6, 1, "1")}, payments.Cash)
	existing := ProductIDs([]Line{{ProductID: 5}, {ProductID: 0}})
	reqs := sale.DetailRequests(77, existing)
	require.Len(t, reqs, 1)
	assert.Equal(t, int64(6), reqs[0].Product)
	assert.Equal(t, int64(77), reqs[0].Sale)
}

func TestLineFromJSON(t *testing.T) {
	l := LineFromJSON(gjson.Parse(`{"id": 1, "sale": 9, "product": {"id": 4}, "quantity": "2", "unit_price": 3.5, "subtotal": "7.00"}`))
	assert.Equal(t, int64(9), l.SaleID)
	assert.Equal(t, int64(4), l.ProductID)
	assert.InDelta(t, 2, l.Quantity, 1e-9)
	assert.True(t, l.Subtotal.Equal(decimal.NewFromInt(7)))
}
