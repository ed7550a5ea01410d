package orders

import (
	"strings"

	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/products"
)

// State is the lifecycle state of an order.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// ParseState normalises backend state strings, including the Spanish
// spellings some deployments still return. Unknown values are pending.
func ParseState(raw string) State {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "completado", "completada", "complete":
		return StateCompleted
	case "cancelled", "canceled", "cancelado", "cancelada":
		return StateCancelled
	default:
		return StatePending
	}
}

// Terminal reports whether the state forbids conversion.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Order is the canonical order record.
type Order struct {
	ID                int64           `json:"id"`
	CustomerID        *int64          `json:"customer_id,omitempty"`
	CustomerName      string          `json:"customer_name,omitempty"`
	Date              string          `json:"date,omitempty"`
	Observations      string          `json:"observations,omitempty"`
	State             State           `json:"state"`
	PaymentMethod     payments.Method `json:"payment_method"`
	ShippingAddress   *Address        `json:"shipping_address,omitempty"`
	ShippingAddressID *int64          `json:"shipping_address_id,omitempty"`
	Lines             []Line          `json:"lines"`
}

// Line is one requested product on an order.
type Line struct {
	Product  products.Product `json:"product"`
	Quantity float64          `json:"quantity"`
}

// Valid reports whether the line can be submitted.
func (l Line) Valid() bool {
	return l.Product.ID > 0 && l.Quantity > 0
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	out := o
	if o.CustomerID != nil {
		id := *o.CustomerID
		out.CustomerID = &id
	}
	if o.ShippingAddressID != nil {
		id := *o.ShippingAddressID
		out.ShippingAddressID = &id
	}
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		out.ShippingAddress = &addr
	}
	if o.Lines != nil {
		out.Lines = make([]Line, len(o.Lines))
		copy(out.Lines, o.Lines)
	}
	return out
}
