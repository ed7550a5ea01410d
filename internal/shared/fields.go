package shared

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// FirstString returns the first non-blank string found at paths.
func FirstString(r gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := r.Get(path); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return strings.TrimSpace(v.Str)
		}
	}
	return ""
}

// FirstInt returns the first integer found at paths. Numeric strings count.
func FirstInt(r gjson.Result, paths ...string) (int64, bool) {
	for _, path := range paths {
		if n, ok := AsInt(r.Get(path)); ok {
			return n, true
		}
	}
	return 0, false
}

// AsInt reads a JSON number or numeric string as an integer.
func AsInt(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Int(), true
	case gjson.String:
		if n := gjson.Parse(strings.TrimSpace(v.Str)); n.Type == gjson.Number {
			return n.Int(), true
		}
	}
	return 0, false
}

// FirstFloat returns the first number found at paths. Numeric strings count.
func FirstFloat(r gjson.Result, paths ...string) (float64, bool) {
	for _, path := range paths {
		v := r.Get(path)
		switch v.Type {
		case gjson.Number:
			return v.Float(), true
		case gjson.String:
			if n := gjson.Parse(strings.TrimSpace(v.Str)); n.Type == gjson.Number {
				return n.Float(), true
			}
		}
	}
	return 0, false
}

// FirstDecimal returns the first decimal found at paths, or zero.
func FirstDecimal(r gjson.Result, paths ...string) decimal.Decimal {
	for _, path := range paths {
		v := r.Get(path)
		if v.Type != gjson.Number && v.Type != gjson.String {
			continue
		}
		if d, err := decimal.NewFromString(strings.TrimSpace(v.String())); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// FirstArray returns the elements of the first array found at paths.
func FirstArray(r gjson.Result, paths ...string) []gjson.Result {
	for _, path := range paths {
		if v := r.Get(path); v.IsArray() {
			return v.Array()
		}
	}
	return nil
}
