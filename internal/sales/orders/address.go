package orders

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/coopsales/console/internal/shared"
)

// Address is a structured shipping address. Raw holds the free text parsed
// from observations when the backend sends no structured address.
type Address struct {
	ID         int64  `json:"id,omitempty"`
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	LocationID int64  `json:"location_id,omitempty"`
	Raw        string `json:"raw,omitempty"`
}

// Empty reports whether the address carries nothing to display.
func (a Address) Empty() bool {
	return a.Street == "" && a.Number == "" && a.City == "" && a.Province == "" && a.PostalCode == "" && a.Raw == "" && a.LocationID == 0
}

// Format renders the address as "street number, city, province (CP postal)".
func (a Address) Format() string {
	if a.Raw != "" && a.Street == "" && a.City == "" {
		return a.Raw
	}
	var parts []string
	if line := strings.TrimSpace(strings.Join(nonEmpty(a.Street, a.Number), " ")); line != "" {
		parts = append(parts, line)
	}
	parts = append(parts, nonEmpty(a.City, a.Province)...)
	out := strings.Join(parts, ", ")
	if a.PostalCode != "" {
		cp := fmt.Sprintf("(CP %s)", a.PostalCode)
		if out == "" {
			return cp
		}
		out += " " + cp
	}
	return out
}

// FormatAddress renders a possibly nil address, returning "-" when empty.
func FormatAddress(a *Address) string {
	if a == nil || a.Empty() {
		return "-"
	}
	return a.Format()
}

// Location is a delivery locality known to the backend.
type Location struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// LocationsFromJSON adapts a list of backend location objects.
func LocationsFromJSON(items []gjson.Result) []Location {
	out := make([]Location, 0, len(items))
	for _, r := range items {
		id, _ := shared.FirstInt(r, "id", "pk")
		out = append(out, Location{
			ID:         id,
			Name:       shared.FirstString(r, "name", "nombre", "city"),
			Province:   shared.FirstString(r, "province", "provincia"),
			PostalCode: scalar(r, "postal_code", "zip", "codigo_postal"),
		})
	}
	return out
}

// ApplyLocation fills the city, province and postal code left empty by the
// backend from the referenced location.
func (a *Address) ApplyLocation(loc Location) {
	if a.City == "" {
		a.City = loc.Name
	}
	if a.Province == "" {
		a.Province = loc.Province
	}
	if a.PostalCode == "" {
		a.PostalCode = loc.PostalCode
	}
}

// ResolveLocations applies locations to every order address that references
// one.
func ResolveLocations(list []Order, locations []Location) {
	byID := make(map[int64]Location, len(locations))
	for _, loc := range locations {
		byID[loc.ID] = loc
	}
	for i := range list {
		addr := list[i].ShippingAddress
		if addr == nil || addr.LocationID == 0 {
			continue
		}
		if loc, ok := byID[addr.LocationID]; ok {
			addr.ApplyLocation(loc)
		}
	}
}

var observationAddress = regexp.MustCompile(`(?im)^\s*(?:direcci[oó]n|env[ií]o)\s*:\s*(.+?)\s*$`)

// AddressFromObservations extracts an address line such as
// "Dirección: San Martín 123, Paraná" from free-text observations.
func AddressFromObservations(observations string) *Address {
	m := observationAddress.FindStringSubmatch(observations)
	if m == nil {
		return nil
	}
	return &Address{Raw: m[1]}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
