package orders

import "errors"

var (
	// ErrNotFound indicates the order is not in the list store.
	ErrNotFound = errors.New("orders: not found")
	// ErrInvalidPayload indicates an update payload failed validation.
	ErrInvalidPayload = errors.New("orders: invalid update payload")
)
