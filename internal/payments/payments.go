// Package payments normalises payment methods coming from the backend or
// typed by operators into the closed set the sales backend accepts.
package payments

import "strings"

// Method is a canonical payment method key.
type Method string

const (
	Cash     Method = "cash"
	Transfer Method = "transfer"
	Debit    Method = "debit"
)

// Default is used whenever input cannot be matched.
const Default = Cash

// Option pairs a method with its display label.
type Option struct {
	Value Method `json:"value"`
	Label string `json:"label"`
}

var options = []Option{
	{Value: Cash, Label: "Efectivo"},
	{Value: Transfer, Label: "Transferencia"},
	{Value: Debit, Label: "Débito"},
}

// Options returns the selectable methods in display order.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Normalize maps a key or label to a canonical method, falling back to
// Default.
func Normalize(value string) Method {
	candidate := strings.ToLower(strings.TrimSpace(value))
	if candidate == "" {
		return Default
	}
	for _, opt := range options {
		if string(opt.Value) == candidate {
			return opt.Value
		}
	}
	for _, opt := range options {
		if strings.EqualFold(opt.Label, candidate) {
			return opt.Value
		}
	}
	return Default
}

// Format returns the display label of the normalised method.
func Format(value string) string {
	method := Normalize(value)
	for _, opt := range options {
		if opt.Value == method {
			return opt.Label
		}
	}
	return options[0].Label
}

// Label is an alias of Format.
func Label(value string) string {
	return Format(value)
}

// Valid reports whether value is already a canonical key.
func (m Method) Valid() bool {
	for _, opt := range options {
		if opt.Value == m {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (m Method) String() string {
	return string(m)
}
