package conversion

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/orders"
)

var idempotencyNamespace = uuid.MustParse("0d6f3c0e-7f1e-4c55-9b8a-5a0f3f1f2b11")

// ValidLines returns the draft lines that can be submitted, in draft order.
func ValidLines(draft []orders.Line) []orders.Line {
	out := make([]orders.Line, 0, len(draft))
	for _, l := range draft {
		if l.Valid() {
			out = append(out, l)
		}
	}
	return out
}

// BuildPayload reduces a draft to the order update that completes it. Lines
// without a product or with a non-positive quantity are dropped; prices are
// never sent. The result depends only on its inputs.
func BuildPayload(order orders.Order, draft []orders.Line, paymentMethod string) (orders.UpdatePayload, error) {
	if order.ID <= 0 {
		return orders.UpdatePayload{}, ErrNoTarget
	}
	valid := ValidLines(draft)
	if len(valid) == 0 {
		return orders.UpdatePayload{}, ErrEmptyDraft
	}
	detail := make([]orders.LinePayload, 0, len(valid))
	for _, l := range valid {
		detail = append(detail, orders.LinePayload{ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	payload := orders.UpdatePayload{
		State:             orders.StateCompleted,
		Detail:            detail,
		PaymentMethod:     payments.Normalize(paymentMethod),
		CustomerID:        order.CustomerID,
		Date:              order.Date,
		Observations:      order.Observations,
		ShippingAddressID: order.ShippingAddressID,
	}
	if err := payload.Validate(); err != nil {
		return orders.UpdatePayload{}, fmt.Errorf("build payload: %w", err)
	}
	return payload, nil
}

// IdempotencyKey derives a stable key from the order id and payload, so a
// retry of the same draft carries the same key.
func IdempotencyKey(orderID int64, payload orders.UpdatePayload) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(strconv.FormatInt(orderID, 10))
	}
	name := append([]byte(strconv.FormatInt(orderID, 10)+":"), raw...)
	return uuid.NewSHA1(idempotencyNamespace, name).String()
}
