package receipts

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/orders"
	salesshared "github.com/coopsales/console/internal/sales/shared"
	"github.com/coopsales/console/internal/shared"
)

// Sale is a fulfilled transaction derived from exactly one order.
type Sale struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	Total         decimal.Decimal `json:"total"`
	Date          string          `json:"date"`
	PaymentMethod payments.Method `json:"payment_method"`
	Lines         []Line          `json:"lines"`
}

// Line is one sold product.
type Line struct {
	ID        int64           `json:"id,omitempty"`
	SaleID    int64           `json:"sale_id,omitempty"`
	ProductID int64           `json:"product_id"`
	Quantity  float64         `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// FromOrder builds the sale for an order draft. Invalid lines are dropped
// and the total is the sum of the remaining subtotals.
func FromOrder(order orders.Order, lines []orders.Line, method payments.Method) Sale {
	sale := Sale{OrderID: order.ID, Date: order.Date, PaymentMethod: method}
	subtotals := make([]decimal.Decimal, 0, len(lines))
	for _, l := range lines {
		if !l.Valid() {
			continue
		}
		line := Line{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.Price,
			Subtotal:  salesshared.CalculateLineSubtotal(l.Quantity, l.Product.Price),
		}
		subtotals = append(subtotals, line.Subtotal)
		sale.Lines = append(sale.Lines, line)
	}
	sale.Total = salesshared.SumSubtotals(subtotals...)
	return sale
}

// CreateSaleRequest is the body of POST /sales/.
type CreateSaleRequest struct {
	Order         int64           `json:"order"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Date          string          `json:"date,omitempty"`
	PaymentMethod payments.Method `json:"payment_method"`
}

// CreateDetailRequest is the body of POST /sale-details/.
type CreateDetailRequest struct {
	Sale      int64           `json:"sale"`
	Product   int64           `json:"product"`
	Quantity  float64         `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CreateRequest maps the sale header.
func (s Sale) CreateRequest() CreateSaleRequest {
	return CreateSaleRequest{Order: s.OrderID, TotalPrice: s.Total, Date: s.Date, PaymentMethod: s.PaymentMethod}
}

// DetailRequests maps every line against saleID, skipping products listed
// in existing.
func (s Sale) DetailRequests(saleID int64, existing map[int64]struct{}) []CreateDetailRequest {
	out := make([]CreateDetailRequest, 0, len(s.Lines))
	for _, l := range s.Lines {
		if _, ok := existing[l.ProductID]; ok {
			continue
		}
		out = append(out, CreateDetailRequest{
			Sale:      saleID,
			Product:   l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return out
}

// FromJSON adapts a backend sale object.
func FromJSON(r gjson.Result) Sale {
	id, _ := shared.FirstInt(r, "id", "pk")
	orderID, _ := shared.FirstInt(r, "order", "order_id", "order.id", "pedido")
	sale := Sale{
		ID:            id,
		OrderID:       orderID,
		Total:         shared.FirstDecimal(r, "total_price", "total"),
		Date:          shared.FirstString(r, "date", "fecha"),
		PaymentMethod: payments.Normalize(shared.FirstString(r, "payment_method")),
	}
	for _, item := range shared.FirstArray(r, "details", "detail", "detalle", "lines") {
		sale.Lines = append(sale.Lines, LineFromJSON(item))
	}
	return sale
}

// LineFromJSON adapts a backend sale detail object.
func LineFromJSON(r gjson.Result) Line {
	id, _ := shared.FirstInt(r, "id", "pk")
	saleID, _ := shared.FirstInt(r, "sale", "sale_id", "sale.id")
	productID, _ := shared.FirstInt(r, "product", "product_id", "product.id", "product_id.id")
	qty, _ := shared.FirstFloat(r, "quantity", "cantidad")
	return Line{
		ID:        id,
		SaleID:    saleID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: shared.FirstDecimal(r, "unit_price", "price"),
		Subtotal:  shared.FirstDecimal(r, "subtotal"),
	}
}

// ProductIDs returns the set of products already present on lines.
func ProductIDs(lines []Line) map[int64]struct{} {
	out := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if l.ProductID > 0 {
			out[l.ProductID] = struct{}{}
		}
	}
	return out
}
