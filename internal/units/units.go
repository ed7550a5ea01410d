// Package units normalises stock units reported by the sales backend and
// formats quantities according to them.
package units

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Unit is a canonical stock unit tag. The set is half-open: unknown tags
// reported by the backend are preserved lowercased.
type Unit string

const (
	// Kg marks products sold by weight (three decimal places).
	Kg Unit = "kg"
	// Count marks products sold by discrete units.
	Count Unit = "unit"
)

// stockUnitPaths lists the candidate fields in probing order.
var stockUnitPaths = []string{
	"stock_unit",
	"stockUnit",
	"product.stock_unit",
	"product.stockUnit",
	"product_id.stock_unit",
	"product_id.stockUnit",
}

// Normalize maps a raw unit string to its canonical tag.
func Normalize(raw string) Unit {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		return Count
	case "kg":
		return Kg
	case "unit", "units", "unidad":
		return Count
	default:
		return Unit(value)
	}
}

// ExtractStockUnit inspects a line-item or product record and returns the
// first non-empty unit it carries. Records without any unit field default to
// Count.
func ExtractStockUnit(source gjson.Result) Unit {
	if !source.IsObject() {
		return Count
	}
	for _, path := range stockUnitPaths {
		candidate := source.Get(path)
		if candidate.Type != gjson.String {
			continue
		}
		if trimmed := strings.TrimSpace(candidate.Str); trimmed != "" {
			return Normalize(trimmed)
		}
	}
	return Count
}

// IsKg reports whether the unit is weight based.
func (u Unit) IsKg() bool {
	return Normalize(string(u)) == Kg
}

// Suffix returns the short display suffix for the unit.
func (u Unit) Suffix() string {
	if u.IsKg() {
		return "kg"
	}
	return "u"
}
