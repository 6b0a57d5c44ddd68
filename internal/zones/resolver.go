package zones

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/types"
)

// zoneMultipliers scales delivery-duration estimates per zone. Values rise
// monotonically with zone rank.
var zoneMultipliers = map[enums.ShippingZone]float64{
	enums.ZoneSameDay:       0.5,
	enums.ZoneExpress:       0.7,
	enums.ZoneLocal:         1.0,
	enums.ZoneRegional:      1.2,
	enums.ZoneNational:      1.5,
	enums.ZoneRemote:        2.0,
	enums.ZoneInternational: 2.5,
}

// zoneDeliveryHours estimates end-to-end delivery duration per zone. Values
// rise monotonically with zone rank.
var zoneDeliveryHours = map[enums.ShippingZone]float64{
	enums.ZoneSameDay:       8,
	enums.ZoneExpress:       16,
	enums.ZoneLocal:         24,
	enums.ZoneRegional:      48,
	enums.ZoneNational:      72,
	enums.ZoneRemote:        120,
	enums.ZoneInternational: 168,
}

// StoreShipping captures a store's own shipping configuration: the cities
// and governorates it covers (each mapped to a zone) and its per-zone fees.
type StoreShipping struct {
	StoreID      uuid.UUID
	Cities       map[string]enums.ShippingZone
	Governorates map[string]enums.ShippingZone
	Fees         map[enums.ShippingZone]types.Money
}

// StoreConfigProvider loads a store's shipping configuration. A nil result
// with a nil error means the store has not configured shipping.
type StoreConfigProvider interface {
	StoreShipping(ctx context.Context, storeID uuid.UUID) (*StoreShipping, error)
}

// Resolver answers zone, multiplier, duration, and fee questions against the
// active zone-table snapshot.
//
// When a store has its own shipping configuration, that configuration is
// authoritative for the (store, destination) pair; the country/city heuristic
// applies only to stores with no configuration of their own.
type Resolver struct {
	store     *Store
	storeCfgs StoreConfigProvider
	logg      *logger.Logger
}

// NewResolver builds a resolver over the zone-table store. The store config
// provider may be nil when no store-level configuration source exists.
func NewResolver(store *Store, storeCfgs StoreConfigProvider, logg *logger.Logger) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("zone table store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{store: store, storeCfgs: storeCfgs, logg: logg}, nil
}

// DetermineZone resolves a destination to a zone using the layered country
// tables. It is total: every destination yields exactly one zone, and
// unsupported geography degrades to ZoneNotSupported.
func (r *Resolver) DetermineZone(dest types.Address) enums.ShippingZone {
	cfg := r.store.Current()
	country, ok := cfg.country(dest.NormalizedCountry())
	if !ok {
		return enums.ZoneNotSupported
	}

	city := dest.NormalizedCity()
	if _, ok := country.sameDayCities[city]; ok {
		return enums.ZoneSameDay
	}
	if _, ok := country.expressCities[city]; ok {
		return enums.ZoneExpress
	}

	if country.supportsPostalCodes {
		if postal := dest.NormalizedPostalCode(); postal != "" {
			if zone, ok := country.postalZones[postal]; ok {
				return zone
			}
		}
	}

	if zone, ok := country.cityZones[city]; ok {
		return zone
	}
	if zone, ok := country.stateZones[dest.NormalizedState()]; ok {
		return zone
	}
	if country.countryZone != "" {
		return country.countryZone
	}
	return country.defaultZone
}

// DetermineStoreZone resolves a zone for a (store, destination) pair. Store
// configuration wins when present; a configured store that does not cover
// the destination resolves to ZoneNotSupported. The returned error is only
// ever an infrastructure failure from the configuration provider.
func (r *Resolver) DetermineStoreZone(ctx context.Context, storeID uuid.UUID, dest types.Address) (enums.ShippingZone, error) {
	if r.storeCfgs == nil || storeID == uuid.Nil {
		return r.DetermineZone(dest), nil
	}

	shipping, err := r.storeCfgs.StoreShipping(ctx, storeID)
	if err != nil {
		return enums.ZoneNotSupported, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store shipping config")
	}
	if shipping == nil {
		return r.DetermineZone(dest), nil
	}

	if zone, ok := shipping.Cities[dest.NormalizedCity()]; ok {
		return zone, nil
	}
	if zone, ok := shipping.Governorates[dest.NormalizedState()]; ok {
		return zone, nil
	}
	return enums.ZoneNotSupported, nil
}

// ZoneMultiplier returns the delivery-duration multiplier for a zone. Zones
// outside the table degrade to the neutral multiplier.
func (r *Resolver) ZoneMultiplier(zone enums.ShippingZone) float64 {
	if mult, ok := zoneMultipliers[zone]; ok {
		return mult
	}
	return 1.0
}

// EstimatedDeliveryHours returns the estimated delivery duration for a zone.
// Unsupported zones estimate to zero because no delivery occurs.
func (r *Resolver) EstimatedDeliveryHours(zone enums.ShippingZone) float64 {
	if hours, ok := zoneDeliveryHours[zone]; ok {
		return hours
	}
	return 0
}

// DeliveryFee returns the store's configured fee for a zone. A store without
// a configured fee ships at zero: the gap is an onboarding state to surface,
// not a price this engine may invent, so it is logged for audit.
func (r *Resolver) DeliveryFee(ctx context.Context, storeID uuid.UUID, zone enums.ShippingZone) (types.Money, error) {
	if !zone.IsSupported() {
		return types.ZeroMoney, pkgerrors.New(pkgerrors.CodeShippingUnavailable, "no delivery fee for unsupported zone").
			WithDetails(map[string]any{"store_id": storeID.String(), "zone": zone.String()})
	}
	if r.storeCfgs == nil || storeID == uuid.Nil {
		r.warnUnconfiguredFee(ctx, storeID, zone)
		return types.ZeroMoney, nil
	}

	shipping, err := r.storeCfgs.StoreShipping(ctx, storeID)
	if err != nil {
		return types.ZeroMoney, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store shipping config")
	}
	if shipping == nil {
		r.warnUnconfiguredFee(ctx, storeID, zone)
		return types.ZeroMoney, nil
	}
	fee, ok := shipping.Fees[zone]
	if !ok {
		r.warnUnconfiguredFee(ctx, storeID, zone)
		return types.ZeroMoney, nil
	}
	return fee, nil
}

func (r *Resolver) warnUnconfiguredFee(ctx context.Context, storeID uuid.UUID, zone enums.ShippingZone) {
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"store_id": storeID.String(),
		"zone":     zone.String(),
	})
	r.logg.Warn(logCtx, "store has no delivery fee configured for zone, charging zero")
}
