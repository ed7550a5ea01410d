package orders

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/coopsales/console/internal/payments"
	"github.com/coopsales/console/internal/sales/products"
	"github.com/coopsales/console/internal/shared"
	"github.com/coopsales/console/internal/units"
)

var linePaths = []string{"detail", "detalle", "details", "items", "lines"}

// FromJSON adapts a backend order object into the canonical shape. Every
// optional spelling the backend has used is resolved here and nowhere else.
func FromJSON(r gjson.Result) Order {
	id, _ := shared.FirstInt(r, "id", "pk")
	order := Order{
		ID:            id,
		Date:          shared.FirstString(r, "date", "fecha", "created_at"),
		Observations:  shared.FirstString(r, "observations", "observaciones", "notes"),
		State:         ParseState(shared.FirstString(r, "state", "status", "estado")),
		PaymentMethod: payments.Normalize(shared.FirstString(r, "payment_method", "paymentMethod", "metodo_pago")),
	}
	order.CustomerID, order.CustomerName = customerFromJSON(r)
	order.ShippingAddress, order.ShippingAddressID = addressFromJSON(r)
	if order.ShippingAddress == nil {
		order.ShippingAddress = AddressFromObservations(order.Observations)
	}
	for _, item := range shared.FirstArray(r, linePaths...) {
		order.Lines = append(order.Lines, LineFromJSON(item))
	}
	return order
}

// ListFromJSON adapts every element of a JSON array.
func ListFromJSON(items []gjson.Result) []Order {
	out := make([]Order, 0, len(items))
	for _, item := range items {
		out = append(out, FromJSON(item))
	}
	return out
}

// LineFromJSON adapts one order line. The product reference may be an
// embedded object or a bare id.
func LineFromJSON(r gjson.Result) Line {
	ref := gjson.Result{}
	for _, path := range []string{"product", "product_id", "producto"} {
		if v := r.Get(path); v.Exists() && v.Type != gjson.Null {
			ref = v
			break
		}
	}
	product := products.RefFromJSON(ref)
	if unit := units.ExtractStockUnit(r); unit != units.Count {
		product.StockUnit = unit
	}
	if product.Name == "" {
		product.Name = shared.FirstString(r, "product_name", "name")
	}
	if product.Price.IsZero() {
		product.Price = shared.FirstDecimal(r, "price", "unit_price", "precio")
	}
	qty, _ := shared.FirstFloat(r, "quantity", "cantidad", "qty")
	return Line{Product: product, Quantity: qty}
}

func customerFromJSON(r gjson.Result) (*int64, string) {
	name := shared.FirstString(r, "customer_name", "client_name")
	for _, path := range []string{"customer_id", "client_id", "customer", "client", "cliente"} {
		v := r.Get(path)
		if v.IsObject() {
			id, ok := shared.FirstInt(v, "id", "pk")
			if name == "" {
				name = shared.FirstString(v, "name", "nombre", "full_name")
			}
			if ok {
				return &id, name
			}
			continue
		}
		if id, ok := shared.AsInt(v); ok {
			return &id, name
		}
	}
	return nil, name
}

func addressFromJSON(r gjson.Result) (*Address, *int64) {
	var addrID *int64
	if id, ok := shared.FirstInt(r, "shipping_address_id"); ok {
		addrID = &id
	}
	v := r.Get("shipping_address")
	if !v.Exists() {
		v = r.Get("address")
	}
	if !v.IsObject() {
		if id, ok := shared.AsInt(v); ok {
			if addrID == nil {
				addrID = &id
			}
			return nil, addrID
		}
		if raw := strings.TrimSpace(v.String()); v.Type == gjson.String && raw != "" {
			return &Address{Raw: raw}, addrID
		}
		return nil, addrID
	}
	addr := &Address{
		Street:     shared.FirstString(v, "street", "calle"),
		Number:     scalar(v, "number", "numero"),
		City:       shared.FirstString(v, "city", "ciudad"),
		Province:   shared.FirstString(v, "province", "provincia"),
		PostalCode: scalar(v, "postal_code", "zip", "codigo_postal"),
	}
	loc := v.Get("location")
	if !loc.Exists() {
		loc = v.Get("localidad")
	}
	if loc.IsObject() {
		addr.LocationID, _ = shared.FirstInt(loc, "id", "pk")
		addr.ApplyLocation(LocationsFromJSON([]gjson.Result{loc})[0])
	} else if id, ok := shared.AsInt(loc); ok {
		addr.LocationID = id
	}
	if id, ok := shared.FirstInt(v, "id", "pk"); ok {
		addr.ID = id
		if addrID == nil {
			addrID = &id
		}
	}
	if addr.Empty() {
		return nil, addrID
	}
	return addr, addrID
}

// scalar returns the first string or number at paths as text. Street numbers
// and postal codes arrive either way.
func scalar(r gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := r.Get(path); v.Type == gjson.Number || v.Type == gjson.String {
			if text := strings.TrimSpace(v.String()); text != "" {
				return text
			}
		}
	}
	return ""
}
