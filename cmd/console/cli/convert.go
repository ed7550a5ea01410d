// Package cli holds the headless command implementations behind the console
// binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coopsales/console/internal/conversion"
	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/orders"
	"github.com/coopsales/console/internal/sales/receipts"
)

// Exit codes of the convert command.
const (
	ExitOK       = 0
	ExitUsage    = 1
	ExitRefused  = 2
	ExitRejected = 3
	ExitBackend  = 4
)

// Converter runs a whole order to sale conversion.
type Converter interface {
	Convert(ctx context.Context, orderID int64, paymentMethod string) (conversion.Snapshot, error)
}

// ConvertOptions defines the flags of the convert command.
type ConvertOptions struct {
	OrderID       int64
	PaymentMethod string
	JSONOutput    bool
	Stdout        io.Writer
	Stderr        io.Writer
}

// ConvertSummary is the JSON output of convert.
type ConvertSummary struct {
	OK            bool                      `json:"ok"`
	OrderID       int64                     `json:"order_id"`
	State         conversion.State          `json:"state"`
	PaymentMethod payments.Method           `json:"payment_method"`
	Total         string                    `json:"total"`
	Lines         int                       `json:"lines"`
	Error         string                    `json:"error,omitempty"`
	Notifications []conversion.Notification `json:"notifications"`
}

// ConversionCLI wraps a Converter for the command line.
type ConversionCLI struct {
	converter Converter
}

// NewConversionCLI validates dependencies.
func NewConversionCLI(converter Converter) (*ConversionCLI, error) {
	if converter == nil {
		return nil, errors.New("convert cli: converter required")
	}
	return &ConversionCLI{converter: converter}, nil
}

// ConvertCommand converts one order and prints the outcome.
func (c *ConversionCLI) ConvertCommand(ctx context.Context, opts ConvertOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.OrderID <= 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "convert: --order is required and must be positive")
		return ExitUsage
	}
	method := strings.TrimSpace(opts.PaymentMethod)
	if method != "" && !knownMethod(method) {
		_, _ = fmt.Fprintf(opts.Stderr, "convert: unknown payment method %q\n", method)
		return ExitUsage
	}

	snap, err := c.converter.Convert(ctx, opts.OrderID, method)
	summary := summarize(opts.OrderID, snap, err)
	code := exitCode(err)

	if opts.JSONOutput {
		if encErr := json.NewEncoder(opts.Stdout).Encode(summary); encErr != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "convert: encode json: %v\n", encErr)
			return ExitUsage
		}
		return code
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "convert: order %d: %s\n", opts.OrderID, summary.Error)
		return code
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Order #%d converted: %d line(s), total %s, paid by %s\n",
		opts.OrderID, summary.Lines, summary.Total, payments.Format(string(summary.PaymentMethod)))
	return code
}

func summarize(orderID int64, snap conversion.Snapshot, err error) ConvertSummary {
	sale := receipts.FromOrder(snap.Order, snap.Draft, snap.PaymentMethod)
	summary := ConvertSummary{
		OK:            err == nil,
		OrderID:       orderID,
		State:         snap.State,
		PaymentMethod: payments.Normalize(string(snap.PaymentMethod)),
		Total:         sale.Total.StringFixed(2),
		Lines:         len(sale.Lines),
		Notifications: snap.Notifications,
	}
	if summary.Notifications == nil {
		summary.Notifications = []conversion.Notification{}
	}
	if err != nil {
		summary.Error = errorMessage(snap, err)
	}
	return summary
}

func errorMessage(snap conversion.Snapshot, err error) string {
	for i := len(snap.Notifications) - 1; i >= 0; i-- {
		if snap.Notifications[i].Level != conversion.LevelInfo {
			return snap.Notifications[i].Message
		}
	}
	return err.Error()
}

func knownMethod(value string) bool {
	for _, opt := range payments.Options() {
		if strings.EqualFold(string(opt.Value), value) || strings.EqualFold(opt.Label, value) {
			return true
		}
	}
	return false
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, conversion.ErrOrderCancelled), errors.Is(err, conversion.ErrOrderCompleted):
		return ExitRefused
	case errors.Is(err, conversion.ErrEmptyDraft), errors.Is(err, orders.ErrInvalidPayload):
		return ExitRejected
	default:
		return ExitBackend
	}
}
