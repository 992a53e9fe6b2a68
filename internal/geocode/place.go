// Package geocode resolves trip endpoints into human-readable place
// names using a Nominatim-style reverse geocoding service.
package geocode

// Address holds the address components of a geocoded place. Only the
// components used for labeling are decoded.
type Address struct {
	Leisure          string `json:"leisure,omitempty"`
	Village          string `json:"village,omitempty"`
	Hamlet           string `json:"hamlet,omitempty"`
	IsolatedDwelling string `json:"isolated_dwelling,omitempty"`
	Suburb           string `json:"suburb,omitempty"`
	City             string `json:"city,omitempty"`
	Town             string `json:"town,omitempty"`
	Municipality     string `json:"municipality,omitempty"`
}

// Place is a reverse-geocoding result
type Place struct {
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

// Label reduces a place to a single display string. Smaller, more
// specific names are preferred over municipal ones; the service's
// generic display name is the last resort.
func (p *Place) Label() string {
	if p.Address.Leisure != "" {
		return p.Address.Leisure
	}
	if p.Address.Village != "" {
		return p.Address.Village
	}
	if p.Address.Hamlet != "" {
		return p.Address.Hamlet
	}
	if p.Address.IsolatedDwelling != "" {
		return p.Address.IsolatedDwelling
	}

	city := p.Address.City
	if city == "" {
		city = p.Address.Town
	}
	if city != "" {
		if p.Address.Suburb != "" {
			return p.Address.Suburb + ", " + city
		}
		return city
	}

	return p.DisplayName
}
