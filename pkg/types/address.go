package types

import "strings"

// Address is the destination shape the shipping resolver consumes. State
// doubles as the governorate for countries that use that division.
type Address struct {
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
	PostalCode string `json:"postal_code,omitempty"`
}

// NormalizedCity returns the city lowercased and trimmed for table lookup.
func (a Address) NormalizedCity() string {
	return strings.ToLower(strings.TrimSpace(a.City))
}

// NormalizedState returns the state/governorate lowercased and trimmed.
func (a Address) NormalizedState() string {
	return strings.ToLower(strings.TrimSpace(a.State))
}

// NormalizedCountry returns the upper-case ISO country code.
func (a Address) NormalizedCountry() string {
	return strings.ToUpper(strings.TrimSpace(a.Country))
}

// NormalizedPostalCode strips whitespace from the postal code.
func (a Address) NormalizedPostalCode() string {
	return strings.ReplaceAll(strings.TrimSpace(a.PostalCode), " ", "")
}
