package estimates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/types"
)

// OrderSample is the read-only view of a historical order the estimator
// consumes. The estimator derives numbers from samples and persists nothing.
type OrderSample struct {
	OrderID     uuid.UUID
	Status      enums.OrderStatus
	CreatedAt   time.Time
	TotalAmount types.Money
}

const (
	defaultProcessingHours = 24.0
	defaultDeliveryHours   = 72.0

	minProcessingHours = 1.0
	maxProcessingHours = 120.0
	maxDeliveryHours   = 168.0

	minComposedMultiplier = 0.5
	maxComposedMultiplier = 3.0
)

// Estimator derives processing and delivery duration estimates from
// historical orders. Its aggregate methods always return a number; an
// internal fault degrades to the fixed defaults instead of propagating.
type Estimator struct {
	logg *logger.Logger
	now  func() time.Time
}

// NewEstimator builds the delivery-metrics estimator.
func NewEstimator(logg *logger.Logger) (*Estimator, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Estimator{logg: logg, now: time.Now}, nil
}

// ProcessingTime estimates how long a single order spends in processing,
// in hours. The base value is a per-status ceiling over the order's elapsed
// age; the result is clamped to [1, 120] hours.
func (e *Estimator) ProcessingTime(sample OrderSample) float64 {
	age := e.ageHours(sample)

	var hours float64
	switch sample.Status {
	case enums.OrderStatusPending:
		hours = min(age, 24)
	case enums.OrderStatusProcessing:
		hours = min(age, 48)
	case enums.OrderStatusConfirmed:
		hours = min(age, 72)
	case enums.OrderStatusShipped:
		hours = min(age*0.5, 48)
	case enums.OrderStatusDelivered:
		hours = min(age*0.4, 48)
	case enums.OrderStatusCancelled:
		hours = min(age, 24)
	default:
		hours = min(age, 72)
	}

	return clamp(hours, minProcessingHours, maxProcessingHours)
}

// DeliveryTime estimates in-transit duration for a single order, in hours.
// Orders not yet shipped contribute zero. The base value is scaled by the
// composed multiplier and the final estimate is clamped to [0, 168] hours.
func (e *Estimator) DeliveryTime(sample OrderSample) float64 {
	age := e.ageHours(sample)

	var hours float64
	switch sample.Status {
	case enums.OrderStatusShipped:
		hours = min(age*0.5, 72)
	case enums.OrderStatusDelivered:
		hours = min(age*0.6, 120)
	default:
		return 0
	}

	hours *= e.composedMultiplier(sample)
	return clamp(hours, 0, maxDeliveryHours)
}

// composedMultiplier multiplies five independently bounded factors and
// clamps the product to [0.5, 3.0].
func (e *Estimator) composedMultiplier(sample OrderSample) float64 {
	multiplier := valueFactor(sample.TotalAmount) *
		e.ageFactor(sample) *
		statusFactor(sample.Status) *
		seasonFactor(sample.CreatedAt) *
		weekendFactor(sample.CreatedAt)
	return clamp(multiplier, minComposedMultiplier, maxComposedMultiplier)
}

func valueFactor(total types.Money) float64 {
	value := total.InexactFloat64()
	switch {
	case value > 1000:
		return 1.2
	case value > 500:
		return 1.1
	default:
		return 1.0
	}
}

func (e *Estimator) ageFactor(sample OrderSample) float64 {
	days := e.ageHours(sample) / 24
	switch {
	case days > 30:
		return 1.3
	case days > 14:
		return 1.1
	default:
		return 1.0
	}
}

func statusFactor(status enums.OrderStatus) float64 {
	switch status {
	case enums.OrderStatusDelivered:
		return 0.9
	case enums.OrderStatusProcessing, enums.OrderStatusConfirmed:
		return 1.2
	case enums.OrderStatusShipped:
		return 1.0
	default:
		return 1.1
	}
}

func seasonFactor(createdAt time.Time) float64 {
	switch createdAt.UTC().Month() {
	case time.December, time.January:
		return 1.4
	case time.November:
		return 1.2
	default:
		return 1.0
	}
}

func weekendFactor(createdAt time.Time) float64 {
	switch createdAt.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return 1.1
	default:
		return 1.0
	}
}

// AverageProcessingTime averages the per-order processing estimate over
// samples that produced a positive value. It never fails; an empty batch or
// an internal fault yields the 24h default.
func (e *Estimator) AverageProcessingTime(ctx context.Context, samples []OrderSample) (hours float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logg.Error(ctx, "processing-time estimation fault, using default", fmt.Errorf("%v", r))
			hours = defaultProcessingHours
		}
	}()

	var sum float64
	var count int
	for _, sample := range samples {
		value := e.ProcessingTime(sample)
		if value <= 0 {
			continue
		}
		sum += value
		count++
	}
	if count == 0 {
		return defaultProcessingHours
	}
	return sum / float64(count)
}

// AverageDeliveryTime averages the per-order delivery estimate over shipped
// and delivered samples that produced a positive value. It never fails; an
// empty batch or an internal fault yields the 72h default.
func (e *Estimator) AverageDeliveryTime(ctx context.Context, samples []OrderSample) (hours float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logg.Error(ctx, "delivery-time estimation fault, using default", fmt.Errorf("%v", r))
			hours = defaultDeliveryHours
		}
	}()

	var sum float64
	var count int
	for _, sample := range samples {
		if sample.Status != enums.OrderStatusShipped && sample.Status != enums.OrderStatusDelivered {
			continue
		}
		value := e.DeliveryTime(sample)
		if value <= 0 {
			continue
		}
		sum += value
		count++
	}
	if count == 0 {
		return defaultDeliveryHours
	}
	return sum / float64(count)
}

func (e *Estimator) ageHours(sample OrderSample) float64 {
	age := e.now().UTC().Sub(sample.CreatedAt.UTC()).Hours()
	if age < 0 {
		return 0
	}
	return age
}

func clamp(value, lower, upper float64) float64 {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}
