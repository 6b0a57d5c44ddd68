package estimates

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/types"
)

// Friday noon UTC; samples aged from here land on a March weekday unless a
// test wants otherwise.
var estimatorNow = time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)

func testEstimator(t *testing.T) *Estimator {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "estimates-test", Output: io.Discard})
	est, err := NewEstimator(logg)
	if err != nil {
		t.Fatalf("building estimator: %v", err)
	}
	est.now = func() time.Time { return estimatorNow }
	return est
}

func sampleAged(age time.Duration, status enums.OrderStatus, total int64) OrderSample {
	return OrderSample{
		OrderID:     uuid.New(),
		Status:      status,
		CreatedAt:   estimatorNow.Add(-age),
		TotalAmount: types.MoneyFromInt(total),
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcessingTimePerStatus(t *testing.T) {
	est := testEstimator(t)

	cases := []struct {
		name   string
		status enums.OrderStatus
		age    time.Duration
		want   float64
	}{
		{"pending capped at 24", enums.OrderStatusPending, 100 * time.Hour, 24},
		{"pending under cap", enums.OrderStatusPending, 10 * time.Hour, 10},
		{"processing capped at 48", enums.OrderStatusProcessing, 100 * time.Hour, 48},
		{"confirmed capped at 72", enums.OrderStatusConfirmed, 100 * time.Hour, 72},
		{"shipped half of age", enums.OrderStatusShipped, 60 * time.Hour, 30},
		{"shipped capped at 48", enums.OrderStatusShipped, 200 * time.Hour, 48},
		{"delivered forty percent", enums.OrderStatusDelivered, 60 * time.Hour, 24},
		{"delivered capped at 48", enums.OrderStatusDelivered, 200 * time.Hour, 48},
		{"cancelled capped at 24", enums.OrderStatusCancelled, 100 * time.Hour, 24},
		{"unknown capped at 72", enums.OrderStatus("mystery"), 200 * time.Hour, 72},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := est.ProcessingTime(sampleAged(tc.age, tc.status, 100))
			if !almostEqual(got, tc.want) {
				t.Fatalf("expected %v hours, got %v", tc.want, got)
			}
		})
	}
}

func TestProcessingTimeFloorIsOneHour(t *testing.T) {
	est := testEstimator(t)
	got := est.ProcessingTime(sampleAged(30*time.Minute, enums.OrderStatusPending, 100))
	if !almostEqual(got, 1) {
		t.Fatalf("expected 1 hour floor, got %v", got)
	}
}

func TestProcessingTimeFutureCreatedAt(t *testing.T) {
	est := testEstimator(t)
	// Clock skew can put created_at ahead of now; age is treated as zero.
	got := est.ProcessingTime(sampleAged(-5*time.Hour, enums.OrderStatusPending, 100))
	if !almostEqual(got, 1) {
		t.Fatalf("expected 1 hour floor for future order, got %v", got)
	}
}

func TestDeliveryTimeZeroBeforeShipment(t *testing.T) {
	est := testEstimator(t)
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusProcessing,
		enums.OrderStatusConfirmed,
		enums.OrderStatusCancelled,
	} {
		if got := est.DeliveryTime(sampleAged(100*time.Hour, status, 100)); got != 0 {
			t.Fatalf("expected 0 for %s, got %v", status, got)
		}
	}
}

func TestDeliveryTimeShippedNeutralMultiplier(t *testing.T) {
	est := testEstimator(t)
	// 96h old, low value, weekday, March: every factor is 1.0.
	got := est.DeliveryTime(sampleAged(96*time.Hour, enums.OrderStatusShipped, 100))
	if !almostEqual(got, 48) {
		t.Fatalf("expected 48 hours, got %v", got)
	}
}

func TestDeliveryTimeDeliveredDiscount(t *testing.T) {
	est := testEstimator(t)
	// Base 0.6 × 96 = 57.6, delivered factor 0.9.
	got := est.DeliveryTime(sampleAged(96*time.Hour, enums.OrderStatusDelivered, 100))
	if !almostEqual(got, 57.6*0.9) {
		t.Fatalf("expected %v hours, got %v", 57.6*0.9, got)
	}
}

func TestDeliveryTimePeakSeasonClampedAtBound(t *testing.T) {
	est := testEstimator(t)
	// 90 days old, high value, December weekend creation: the multiplier
	// stack pushes the raw estimate past the bound.
	sample := OrderSample{
		OrderID:     uuid.New(),
		Status:      enums.OrderStatusDelivered,
		CreatedAt:   time.Date(2025, time.December, 20, 12, 0, 0, 0, time.UTC),
		TotalAmount: types.MoneyFromInt(1500),
	}
	if got := est.DeliveryTime(sample); !almostEqual(got, maxDeliveryHours) {
		t.Fatalf("expected clamp to %v hours, got %v", maxDeliveryHours, got)
	}
}

func TestDeliveryTimeAlwaysWithinBounds(t *testing.T) {
	est := testEstimator(t)

	statuses := []enums.OrderStatus{
		enums.OrderStatusPending, enums.OrderStatusProcessing, enums.OrderStatusConfirmed,
		enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled,
		enums.OrderStatus("mystery"),
	}
	createdAts := []time.Time{
		estimatorNow.Add(5 * time.Hour), // future
		estimatorNow.Add(-24 * time.Hour),
		time.Date(2025, time.December, 20, 12, 0, 0, 0, time.UTC), // peak season weekend
		time.Date(2025, time.November, 2, 12, 0, 0, 0, time.UTC),  // November Sunday
		estimatorNow.Add(-10 * 365 * 24 * time.Hour),              // extreme age
	}
	totals := []int64{0, 501, 1001, 10_000_000}

	for _, status := range statuses {
		for _, createdAt := range createdAts {
			for _, total := range totals {
				sample := OrderSample{Status: status, CreatedAt: createdAt, TotalAmount: types.MoneyFromInt(total)}
				got := est.DeliveryTime(sample)
				if got < 0 || got > maxDeliveryHours {
					t.Fatalf("delivery time %v out of bounds for status=%s created=%s total=%d",
						got, status, createdAt, total)
				}
			}
		}
	}
}

func TestComposedMultiplierFactors(t *testing.T) {
	est := testEstimator(t)

	t.Run("high value old order", func(t *testing.T) {
		// >1000 value ×1.2, >30 days ×1.3, shipped ×1.0, March weekday.
		sample := sampleAged(32*24*time.Hour, enums.OrderStatusShipped, 1500)
		if got := est.composedMultiplier(sample); !almostEqual(got, 1.2*1.3) {
			t.Fatalf("expected %v, got %v", 1.2*1.3, got)
		}
	})

	t.Run("december weekend", func(t *testing.T) {
		sample := OrderSample{
			Status:      enums.OrderStatusShipped,
			CreatedAt:   time.Date(2025, time.December, 20, 12, 0, 0, 0, time.UTC), // Saturday
			TotalAmount: types.MoneyFromInt(100),
		}
		// Over 30 days old relative to the pinned clock.
		want := 1.3 * 1.4 * 1.1
		if got := est.composedMultiplier(sample); !almostEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("mid value tier", func(t *testing.T) {
		sample := sampleAged(24*time.Hour, enums.OrderStatusShipped, 600)
		if got := est.composedMultiplier(sample); !almostEqual(got, 1.1) {
			t.Fatalf("expected 1.1, got %v", got)
		}
	})
}

func TestComposedMultiplierAlwaysBounded(t *testing.T) {
	est := testEstimator(t)

	statuses := []enums.OrderStatus{
		enums.OrderStatusPending, enums.OrderStatusProcessing, enums.OrderStatusConfirmed,
		enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled,
		enums.OrderStatus("mystery"),
	}
	ages := []time.Duration{0, 24 * time.Hour, 20 * 24 * time.Hour, 60 * 24 * time.Hour, 365 * 24 * time.Hour}
	totals := []int64{0, 100, 501, 1001, 100000}

	for _, status := range statuses {
		for _, age := range ages {
			for _, total := range totals {
				got := est.composedMultiplier(sampleAged(age, status, total))
				if got < minComposedMultiplier || got > maxComposedMultiplier {
					t.Fatalf("multiplier %v out of bounds for status=%s age=%s total=%d", got, status, age, total)
				}
			}
		}
	}
}

func TestAverageProcessingTime(t *testing.T) {
	est := testEstimator(t)

	samples := []OrderSample{
		sampleAged(10*time.Hour, enums.OrderStatusPending, 100),    // 10
		sampleAged(100*time.Hour, enums.OrderStatusProcessing, 100), // 48
	}
	got := est.AverageProcessingTime(context.Background(), samples)
	if !almostEqual(got, 29) {
		t.Fatalf("expected 29 hours, got %v", got)
	}
}

func TestAverageProcessingTimeEmptyBatch(t *testing.T) {
	est := testEstimator(t)
	if got := est.AverageProcessingTime(context.Background(), nil); !almostEqual(got, defaultProcessingHours) {
		t.Fatalf("expected %v default, got %v", defaultProcessingHours, got)
	}
}

func TestAverageDeliveryTimeSkipsUnshipped(t *testing.T) {
	est := testEstimator(t)

	samples := []OrderSample{
		sampleAged(96*time.Hour, enums.OrderStatusShipped, 100), // 48
		sampleAged(96*time.Hour, enums.OrderStatusPending, 100), // excluded
		sampleAged(96*time.Hour, enums.OrderStatusCancelled, 100), // excluded
	}
	got := est.AverageDeliveryTime(context.Background(), samples)
	if !almostEqual(got, 48) {
		t.Fatalf("expected 48 hours, got %v", got)
	}
}

func TestAverageDeliveryTimeFallsBackWithoutQualifyingOrders(t *testing.T) {
	est := testEstimator(t)

	samples := []OrderSample{
		sampleAged(10*time.Hour, enums.OrderStatusPending, 100),
		sampleAged(10*time.Hour, enums.OrderStatusCancelled, 100),
	}
	got := est.AverageDeliveryTime(context.Background(), samples)
	if !almostEqual(got, defaultDeliveryHours) {
		t.Fatalf("expected %v default, got %v", defaultDeliveryHours, got)
	}
}
