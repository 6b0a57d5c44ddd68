package estimates

import (
	"context"
	"fmt"
	"time"

	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// Cached estimate names; readers of the cache look these up by name.
const (
	CacheKeyProcessingAvg = "processing_avg_hours"
	CacheKeyDeliveryAvg   = "delivery_avg_hours"
)

type sampleReader interface {
	RecentSamples(ctx context.Context, since time.Time) ([]OrderSample, error)
}

type estimateCache interface {
	SetEstimate(ctx context.Context, name string, hours float64, ttl time.Duration) error
}

type averageEstimator interface {
	AverageProcessingTime(ctx context.Context, samples []OrderSample) float64
	AverageDeliveryTime(ctx context.Context, samples []OrderSample) float64
}

// JobParams configure the delivery-estimates batch job.
type JobParams struct {
	Logger    *logger.Logger
	Reader    sampleReader
	Cache     estimateCache
	Estimator averageEstimator
	Metrics   *metrics.JobMetrics
	Lookback  time.Duration
	CacheTTL  time.Duration
}

// Job recomputes the average processing and delivery estimates over the
// lookback window and caches both. It runs independently of the pricing path.
type Job struct {
	logg      *logger.Logger
	reader    sampleReader
	cache     estimateCache
	estimator averageEstimator
	metrics   *metrics.JobMetrics
	lookback  time.Duration
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewJob builds the estimates batch job.
func NewJob(params JobParams) (*Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("sample reader required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("estimate cache required")
	}
	if params.Estimator == nil {
		return nil, fmt.Errorf("estimator required")
	}
	if params.Lookback <= 0 {
		return nil, fmt.Errorf("lookback must be positive")
	}
	if params.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive")
	}
	return &Job{
		logg:      params.Logger,
		reader:    params.Reader,
		cache:     params.Cache,
		estimator: params.Estimator,
		metrics:   params.Metrics,
		lookback:  params.Lookback,
		cacheTTL:  params.CacheTTL,
		now:       time.Now,
	}, nil
}

func (j *Job) Name() string { return "delivery-estimates" }

// Run executes one batch pass. The two cache writes are independent; a
// failure in one does not stop the other, and both failures are reported.
func (j *Job) Run(ctx context.Context) error {
	started := j.now()
	err := j.run(ctx)
	j.metrics.ObserveDuration(j.Name(), j.now().Sub(started))
	if err != nil {
		j.metrics.IncFailure(j.Name())
		return err
	}
	j.metrics.IncSuccess(j.Name())
	return nil
}

func (j *Job) run(ctx context.Context) error {
	since := j.now().UTC().Add(-j.lookback)
	samples, err := j.reader.RecentSamples(ctx, since)
	if err != nil {
		return fmt.Errorf("load order samples: %w", err)
	}

	processing := j.estimator.AverageProcessingTime(ctx, samples)
	delivery := j.estimator.AverageDeliveryTime(ctx, samples)

	var errs []error
	if err := j.cache.SetEstimate(ctx, CacheKeyProcessingAvg, processing, j.cacheTTL); err != nil {
		errs = append(errs, fmt.Errorf("cache processing estimate: %w", err))
	}
	if err := j.cache.SetEstimate(ctx, CacheKeyDeliveryAvg, delivery, j.cacheTTL); err != nil {
		errs = append(errs, fmt.Errorf("cache delivery estimate: %w", err))
	}
	if combined := multierr.Combine(errs...); combined != nil {
		return combined
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"samples":              len(samples),
		"processing_avg_hours": processing,
		"delivery_avg_hours":   delivery,
	})
	j.logg.Info(logCtx, "delivery estimates refreshed")
	return nil
}
