package units

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is rendered for values that cannot be formatted.
const Placeholder = "-"

// DefaultLocale is the locale used by the package level helpers.
var DefaultLocale = language.MustParse("es-AR")

type formatOptions struct {
	withSuffix bool
}

// Option customises quantity formatting.
type Option func(*formatOptions)

// WithSuffix toggles the unit suffix (enabled by default).
func WithSuffix(enabled bool) Option {
	return func(o *formatOptions) {
		o.withSuffix = enabled
	}
}

// WithoutSuffix renders the bare number.
func WithoutSuffix() Option {
	return WithSuffix(false)
}

// Formatter renders quantities with locale aware digit grouping.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a formatter for the given locale.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

var defaultFormatter = NewFormatter(DefaultLocale)

// FormatUnitValue formats value using the default locale.
func FormatUnitValue(value any, unit string, opts ...Option) string {
	return defaultFormatter.FormatUnitValue(value, unit, opts...)
}

// FormatQuantityFromSource formats quantity using the unit carried by source.
func FormatQuantityFromSource(quantity any, source gjson.Result, opts ...Option) string {
	return defaultFormatter.FormatQuantityFromSource(quantity, source, opts...)
}

// FormatUnitValue renders value as a kg magnitude with exactly three decimals
// or as a whole count truncated toward zero.
func (f *Formatter) FormatUnitValue(value any, unit string, opts ...Option) string {
	options := formatOptions{withSuffix: true}
	for _, opt := range opts {
		opt(&options)
	}

	v, ok := toFloat(value)
	if !ok {
		return Placeholder
	}

	var rendered string
	u := Normalize(unit)
	if u == Kg {
		rendered = f.printer.Sprintf("%v", number.Decimal(v,
			number.MinFractionDigits(3),
			number.MaxFractionDigits(3),
		))
	} else {
		whole := math.Trunc(v)
		if whole == 0 {
			whole = 0 // drop negative zero
		}
		rendered = f.printer.Sprintf("%v", number.Decimal(whole,
			number.MinFractionDigits(0),
			number.MaxFractionDigits(0),
		))
	}

	if !options.withSuffix {
		return rendered
	}
	return rendered + " " + u.Suffix()
}

// FormatQuantityFromSource composes ExtractStockUnit and FormatUnitValue.
func (f *Formatter) FormatQuantityFromSource(quantity any, source gjson.Result, opts ...Option) string {
	return f.FormatUnitValue(quantity, string(ExtractStockUnit(source)), opts...)
}

func toFloat(value any) (float64, bool) {
	var v float64
	switch n := value.(type) {
	case nil:
		return 0, false
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint:
		v = float64(n)
	case uint32:
		v = float64(n)
	case uint64:
		v = float64(n)
	case decimal.Decimal:
		v = n.InexactFloat64()
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = parsed
	case gjson.Result:
		switch n.Type {
		case gjson.Number:
			v = n.Num
		case gjson.String:
			return parseFloat(n.Str)
		default:
			return 0, false
		}
	case string:
		return parseFloat(n)
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseFloat(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
