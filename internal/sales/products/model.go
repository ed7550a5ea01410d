package products

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/coopsales/console/internal/shared"
	"github.com/coopsales/console/internal/units"
)

// Product is the canonical product record used across the console.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	StockUnit units.Unit      `json:"stock_unit"`
}

// Merge fills the missing fields of p with the values of full. A stock unit
// that only carries the Count default yields to the catalog's unit.
func (p Product) Merge(full Product) Product {
	if p.ID == 0 {
		p.ID = full.ID
	}
	if p.Name == "" {
		p.Name = full.Name
	}
	if p.Price.IsZero() {
		p.Price = full.Price
	}
	if p.StockUnit == "" || (p.StockUnit == units.Count && full.StockUnit != "") {
		p.StockUnit = full.StockUnit
	}
	return p
}

// FromJSON adapts a backend product object.
func FromJSON(r gjson.Result) Product {
	id, _ := shared.FirstInt(r, "id", "pk")
	return Product{
		ID:        id,
		Name:      shared.FirstString(r, "name", "nombre", "display_name"),
		Price:     shared.FirstDecimal(r, "price", "unit_price", "precio"),
		StockUnit: units.ExtractStockUnit(r),
	}
}

// RefFromJSON adapts a product reference that may be a bare id or an
// embedded object.
func RefFromJSON(r gjson.Result) Product {
	if r.IsObject() {
		return FromJSON(r)
	}
	if id, ok := shared.AsInt(r); ok {
		return Product{ID: id, StockUnit: units.Count}
	}
	return Product{StockUnit: units.Count}
}

// ListFromJSON adapts every element of a JSON array.
func ListFromJSON(items []gjson.Result) []Product {
	out := make([]Product, 0, len(items))
	for _, item := range items {
		out = append(out, FromJSON(item))
	}
	return out
}
