package console

import (
	"github.com/shopspring/decimal"

	"github.com/coopsales/console/internal/conversion"
	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/customers"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/receipts"
	"github.com/coopsales/console/internal/units"
)

// LineView is an order or draft line ready for display.
type LineView struct {
	Index         int             `json:"index"`
	ProductID     int64           `json:"product_id"`
	Product       string          `json:"product"`
	Unit          units.Unit      `json:"unit"`
	Quantity      float64         `json:"quantity"`
	QuantityLabel string          `json:"quantity_label"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Valid         bool            `json:"valid"`
}

// OrderView is one row of the order list.
type OrderView struct {
	ID            int64           `json:"id"`
	Customer      string          `json:"customer"`
	Date          string          `json:"date"`
	State         orders.State    `json:"state"`
	PaymentMethod payments.Method `json:"payment_method"`
	PaymentLabel  string          `json:"payment_label"`
	Address       string          `json:"address"`
	Observations  string          `json:"observations,omitempty"`
	Convertible   bool            `json:"convertible"`
	Lines         []LineView      `json:"lines"`
}

// ConversionView is the conversion dialog state.
type ConversionView struct {
	OrderID       int64                     `json:"order_id"`
	State         conversion.State          `json:"state"`
	Loading       bool                      `json:"loading"`
	Attempts      int                       `json:"attempts"`
	LastOutcome   conversion.State          `json:"last_outcome,omitempty"`
	PaymentMethod payments.Method           `json:"payment_method"`
	PaymentLabel  string                    `json:"payment_label"`
	Order         *OrderView                `json:"order,omitempty"`
	Draft         []LineView                `json:"draft"`
	Total         decimal.Decimal           `json:"total"`
	Notifications []conversion.Notification `json:"notifications"`
}

type presenter struct {
	formatter *units.Formatter
	directory *customers.Directory
}

func (p presenter) line(i int, l orders.Line) LineView {
	name := l.Product.Name
	if name == "" {
		name = "-"
	}
	return LineView{
		Index:         i,
		ProductID:     l.Product.ID,
		Product:       name,
		Unit:          units.Normalize(string(l.Product.StockUnit)),
		Quantity:      l.Quantity,
		QuantityLabel: p.formatter.FormatUnitValue(l.Quantity, string(l.Product.StockUnit)),
		UnitPrice:     l.Product.Price,
		Valid:         l.Valid(),
	}
}

func (p presenter) lines(src []orders.Line) []LineView {
	out := make([]LineView, 0, len(src))
	for i, l := range src {
		out = append(out, p.line(i, l))
	}
	return out
}

func (p presenter) order(o orders.Order) OrderView {
	customer := o.CustomerName
	if customer == "" {
		customer = "-"
	}
	return OrderView{
		ID:            o.ID,
		Customer:      p.directory.Name(o.CustomerID, customer),
		Date:          o.Date,
		State:         o.State,
		PaymentMethod: payments.Normalize(string(o.PaymentMethod)),
		PaymentLabel:  payments.Format(string(o.PaymentMethod)),
		Address:       orders.FormatAddress(o.ShippingAddress),
		Observations:  o.Observations,
		Convertible:   !o.State.Terminal(),
		Lines:         p.lines(o.Lines),
	}
}

func (p presenter) conversion(s conversion.Snapshot) ConversionView {
	view := ConversionView{
		OrderID:       s.OrderID,
		State:         s.State,
		Loading:       s.Loading,
		Attempts:      s.Attempts,
		LastOutcome:   s.LastOutcome,
		PaymentMethod: payments.Normalize(string(s.PaymentMethod)),
		PaymentLabel:  payments.Format(string(s.PaymentMethod)),
		Draft:         p.lines(s.Draft),
		Total:         receipts.FromOrder(s.Order, s.Draft, s.PaymentMethod).Total,
		Notifications: s.Notifications,
	}
	if view.Notifications == nil {
		view.Notifications = []conversion.Notification{}
	}
	if s.Order.ID != 0 {
		o := p.order(s.Order)
		view.Order = &o
	}
	return view
}
