package enums

import "fmt"

// ShippingZone is a discrete shipping-speed category used for fee and
// duration lookup. Zones are ordered by increasing delivery duration;
// ZoneNotSupported is terminal and carries no fee or duration.
type ShippingZone string

const (
	ZoneSameDay       ShippingZone = "same_day"
	ZoneExpress       ShippingZone = "express"
	ZoneLocal         ShippingZone = "local"
	ZoneRegional      ShippingZone = "regional"
	ZoneNational      ShippingZone = "national"
	ZoneRemote        ShippingZone = "remote"
	ZoneInternational ShippingZone = "international"
	ZoneNotSupported  ShippingZone = "not_supported"
)

// validShippingZones is ordered fastest to slowest; the position is the rank.
var validShippingZones = []ShippingZone{
	ZoneSameDay,
	ZoneExpress,
	ZoneLocal,
	ZoneRegional,
	ZoneNational,
	ZoneRemote,
	ZoneInternational,
}

// String implements fmt.Stringer.
func (z ShippingZone) String() string {
	return string(z)
}

// IsValid reports whether the value is a known ShippingZone.
func (z ShippingZone) IsValid() bool {
	if z == ZoneNotSupported {
		return true
	}
	for _, candidate := range validShippingZones {
		if candidate == z {
			return true
		}
	}
	return false
}

// IsSupported reports whether the zone can carry shipments.
func (z ShippingZone) IsSupported() bool {
	return z.IsValid() && z != ZoneNotSupported
}

// Rank returns the zone's position in the speed ordering, fastest first.
// ZoneNotSupported and unknown values rank after every supported zone.
func (z ShippingZone) Rank() int {
	for i, candidate := range validShippingZones {
		if candidate == z {
			return i
		}
	}
	return len(validShippingZones)
}

// SupportedZones returns the supported zones ordered fastest to slowest.
func SupportedZones() []ShippingZone {
	out := make([]ShippingZone, len(validShippingZones))
	copy(out, validShippingZones)
	return out
}

// ParseShippingZone converts raw input into a ShippingZone.
func ParseShippingZone(value string) (ShippingZone, error) {
	if value == string(ZoneNotSupported) {
		return ZoneNotSupported, nil
	}
	for _, candidate := range validShippingZones {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping zone %q", value)
}
