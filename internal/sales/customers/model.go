package customers

import (
	"sync"

	"github.com/tidwall/gjson"

	"github.com/coopsales/console/internal/shared"
)

// Customer is the canonical client record.
type Customer struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	TaxID      string `json:"tax_id,omitempty"`
	LocationID *int64 `json:"location_id,omitempty"`
}

// FromJSON adapts a backend client object.
func FromJSON(r gjson.Result) Customer {
	id, _ := shared.FirstInt(r, "id", "pk")
	c := Customer{
		ID:    id,
		Name:  shared.FirstString(r, "name", "nombre", "full_name", "business_name"),
		Email: shared.FirstString(r, "email", "mail"),
		Phone: shared.FirstString(r, "phone", "telefono"),
		TaxID: shared.FirstString(r, "cuit", "tax_id", "dni"),
	}
	if loc, ok := shared.FirstInt(r, "location", "location_id", "location.id", "localidad"); ok {
		c.LocationID = &loc
	}
	return c
}

// ListFromJSON adapts every element of a JSON array.
func ListFromJSON(items []gjson.Result) []Customer {
	out := make([]Customer, 0, len(items))
	for _, item := range items {
		out = append(out, FromJSON(item))
	}
	return out
}

// Directory resolves customer names for list rows.
type Directory struct {
	mu    sync.RWMutex
	names map[int64]string
}

// NewDirectory indexes the given customers.
func NewDirectory(list []Customer) *Directory {
	d := &Directory{}
	d.Replace(list)
	return d
}

// Replace swaps the indexed customers.
func (d *Directory) Replace(list []Customer) {
	names := make(map[int64]string, len(list))
	for _, c := range list {
		names[c.ID] = c.Name
	}
	d.mu.Lock()
	d.names = names
	d.mu.Unlock()
}

// Name returns the customer's name, or fallback when unknown.
func (d *Directory) Name(id *int64, fallback string) string {
	if id == nil || d == nil {
		return fallback
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if name, ok := d.names[*id]; ok && name != "" {
		return name
	}
	return fallback
}
