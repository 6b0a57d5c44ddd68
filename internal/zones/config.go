package zones

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/souqly/souqly-backend/pkg/enums"
)

// Config holds the immutable shipping-zone lookup tables. A Config is built
// once from the deploy-provided table file and never mutated afterwards, so
// it is safe for unlimited concurrent readers.
type Config struct {
	countries map[string]countryTable
}

type countryTable struct {
	supported           bool
	supportsPostalCodes bool
	defaultZone         enums.ShippingZone
	sameDayCities       map[string]struct{}
	expressCities       map[string]struct{}
	postalZones         map[string]enums.ShippingZone
	cityZones           map[string]enums.ShippingZone
	stateZones          map[string]enums.ShippingZone
	countryZone         enums.ShippingZone
}

// tableFile mirrors the on-disk JSON shape of the zone tables.
type tableFile struct {
	Countries map[string]countryFile `json:"countries"`
}

type countryFile struct {
	Supported           bool              `json:"supported"`
	SupportsPostalCodes bool              `json:"supports_postal_codes"`
	DefaultZone         string            `json:"default_zone,omitempty"`
	CountryZone         string            `json:"country_zone,omitempty"`
	SameDayCities       []string          `json:"same_day_cities,omitempty"`
	ExpressCities       []string          `json:"express_cities,omitempty"`
	PostalZones         map[string]string `json:"postal_zones,omitempty"`
	CityZones           map[string]string `json:"city_zones,omitempty"`
	StateZones          map[string]string `json:"state_zones,omitempty"`
}

// LoadConfig reads and validates the zone table file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone tables: %w", err)
	}
	var file tableFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing zone tables: %w", err)
	}
	return buildConfig(file)
}

func buildConfig(file tableFile) (*Config, error) {
	cfg := &Config{countries: make(map[string]countryTable, len(file.Countries))}
	for code, entry := range file.Countries {
		country := strings.ToUpper(strings.TrimSpace(code))
		if country == "" {
			return nil, fmt.Errorf("zone tables contain an empty country code")
		}

		table := countryTable{
			supported:           entry.Supported,
			supportsPostalCodes: entry.SupportsPostalCodes,
			defaultZone:         enums.ZoneNational,
			sameDayCities:       citySet(entry.SameDayCities),
			expressCities:       citySet(entry.ExpressCities),
		}

		if entry.DefaultZone != "" {
			zone, err := parseSupportedZone(country, "default_zone", entry.DefaultZone)
			if err != nil {
				return nil, err
			}
			table.defaultZone = zone
		}
		if entry.CountryZone != "" {
			zone, err := parseSupportedZone(country, "country_zone", entry.CountryZone)
			if err != nil {
				return nil, err
			}
			table.countryZone = zone
		}

		var err error
		if table.postalZones, err = zoneMap(country, "postal_zones", entry.PostalZones, normalizePostal); err != nil {
			return nil, err
		}
		if table.cityZones, err = zoneMap(country, "city_zones", entry.CityZones, normalizeKey); err != nil {
			return nil, err
		}
		if table.stateZones, err = zoneMap(country, "state_zones", entry.StateZones, normalizeKey); err != nil {
			return nil, err
		}

		cfg.countries[country] = table
	}
	return cfg, nil
}

func (c *Config) country(code string) (countryTable, bool) {
	if c == nil {
		return countryTable{}, false
	}
	table, ok := c.countries[code]
	if !ok || !table.supported {
		return countryTable{}, false
	}
	return table, true
}

// SupportedCountries lists the ISO codes present and marked supported.
func (c *Config) SupportedCountries() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.countries))
	for code, table := range c.countries {
		if table.supported {
			out = append(out, code)
		}
	}
	return out
}

// Store holds the active Config snapshot. Hot reload swaps in a fresh
// immutable snapshot atomically; readers never observe a partial update.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore seeds the store with an initial snapshot.
func NewStore(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("zone config required")
	}
	s := &Store{}
	s.current.Store(cfg)
	return s, nil
}

// Current returns the active snapshot.
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Swap replaces the active snapshot.
func (s *Store) Swap(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("zone config required")
	}
	s.current.Store(cfg)
	return nil
}

// Reload loads the table file and swaps it in.
func (s *Store) Reload(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	return s.Swap(cfg)
}

func citySet(cities []string) map[string]struct{} {
	if len(cities) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(cities))
	for _, city := range cities {
		if key := normalizeKey(city); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func zoneMap(country, field string, raw map[string]string, normalize func(string) string) (map[string]enums.ShippingZone, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]enums.ShippingZone, len(raw))
	for key, value := range raw {
		zone, err := parseSupportedZone(country, field, value)
		if err != nil {
			return nil, err
		}
		if normalized := normalize(key); normalized != "" {
			out[normalized] = zone
		}
	}
	return out, nil
}

func parseSupportedZone(country, field, value string) (enums.ShippingZone, error) {
	zone, err := enums.ParseShippingZone(value)
	if err != nil {
		return "", fmt.Errorf("country %s %s: %w", country, field, err)
	}
	if !zone.IsSupported() {
		return "", fmt.Errorf("country %s %s: zone %s cannot be mapped", country, field, zone)
	}
	return zone, nil
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizePostal(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), " ", "")
}
