package console

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/coopsales/console/internal/platform/httpx"
)

var validate = validator.New()

// DraftItemRequest is one line sent by the dialog. Lines without a product or
// quantity are kept in the draft and dropped at submission.
type DraftItemRequest struct {
	ProductID int64   `json:"product_id" validate:"gte=0"`
	Quantity  float64 `json:"quantity"`
}

// DraftRequest replaces the whole draft.
type DraftRequest struct {
	Items         []DraftItemRequest `json:"items" validate:"dive"`
	PaymentMethod string             `json:"payment_method,omitempty" validate:"omitempty,max=32"`
}

// AddItemRequest appends one line.
type AddItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
}

// QuantityRequest changes the quantity of one line.
type QuantityRequest struct {
	Quantity *float64 `json:"quantity" validate:"required"`
}

// SubmitRequest commits the draft.
type SubmitRequest struct {
	PaymentMethod string `json:"payment_method" validate:"omitempty,max=32"`
}

func validateRequest(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}
