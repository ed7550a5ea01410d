package orders

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/coopsales/console/internal/payments"
)

var validate = validator.New()

// LinePayload is one line of an order update. Pricing is never sent; the
// backend prices lines at commit time.
type LinePayload struct {
	ProductID int64   `json:"product_id" validate:"gt=0"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
}

// UpdatePayload is the body of PUT /orders/{id}/.
type UpdatePayload struct {
	State             State           `json:"state" validate:"required,oneof=pending completed cancelled"`
	Detail            []LinePayload   `json:"detail" validate:"required,min=1,dive"`
	PaymentMethod     payments.Method `json:"payment_method" validate:"required,oneof=cash transfer debit"`
	CustomerID        *int64          `json:"customer_id,omitempty"`
	Date              string          `json:"date,omitempty"`
	Observations      string          `json:"observations,omitempty"`
	ShippingAddressID *int64          `json:"shipping_address_id,omitempty"`
}

// Validate checks the payload before it leaves the process.
func (p UpdatePayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
