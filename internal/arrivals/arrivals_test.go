package arrivals

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rate.report/internal/calibrator"
	"github.com/banshee-data/rate.report/internal/integrator"
	"github.com/banshee-data/rate.report/internal/ratemodel"
	"github.com/banshee-data/rate.report/internal/testutil"
)

// calibrated returns the lunch/dinner fixture scaled to its target.
func calibrated(t *testing.T) ratemodel.Config {
	t.Helper()
	cfg := testutil.LunchDinner()
	res, err := integrator.Evaluate(cfg, integrator.DefaultSamples)
	require.NoError(t, err)
	cal, err := calibrator.Calibrate(cfg, res.ExpectedCount)
	require.NoError(t, err)
	return cal.Apply(cfg)
}

func TestMaxRateBound(t *testing.T) {
	cfg := ratemodel.Config{BaseRate: 0.5, TimeWindow: 100, TargetCount: 10}
	testutil.AssertClose(t, "flat bound", MaxRateBound(cfg), 0.55, 1e-12)

	peaked := testutil.LunchDinner()
	bound := MaxRateBound(peaked)
	for _, tm := range []float64{0, 210, 390, 600} {
		assert.Greater(t, bound, peaked.Rate(tm))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := calibrated(t)
	ctx := context.Background()

	a, err := Sampler{Seed: 7}.Generate(ctx, cfg)
	require.NoError(t, err)
	b, err := Sampler{Seed: 7}.Generate(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Sampler{Seed: 8}.Generate(ctx, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerateBounds(t *testing.T) {
	cfg := calibrated(t)
	times, err := Sampler{Seed: 1}.Generate(context.Background(), cfg)
	require.NoError(t, err)

	// Poisson(200) capped at 200; falling below 140 is vanishingly unlikely.
	assert.LessOrEqual(t, len(times), 200)
	assert.Greater(t, len(times), 140)
	assert.True(t, sort.Float64sAreSorted(times))
	for _, tm := range times {
		assert.GreaterOrEqual(t, tm, 0.0)
		assert.LessOrEqual(t, tm, cfg.TimeWindow)
	}
}

func TestGenerateFollowsShape(t *testing.T) {
	// A single narrow peak far from the baseline: nearly every arrival
	// lands close to its centre.
	cfg := ratemodel.Config{
		BaseRate:    0,
		TimeWindow:  600,
		TargetCount: 500,
		Peaks:       []ratemodel.Peak{{Center: 300, Intensity: 2, Width: 200}},
	}
	times, err := Sampler{Seed: 3}.Generate(context.Background(), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, times)
	for _, tm := range times {
		assert.InDelta(t, 300, tm, 80)
	}
}

func TestGenerateZeroRate(t *testing.T) {
	cfg := ratemodel.Config{TimeWindow: 60, TargetCount: 5}
	times, err := Sampler{}.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, times)
}

func TestGenerateErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sampler{Seed: 1}.Generate(ctx, calibrated(t))
	assert.True(t, errors.Is(err, context.Canceled), "err = %v", err)

	_, err = Sampler{MaxRate: -1}.Generate(context.Background(), testutil.LunchDinner())
	assert.ErrorIs(t, err, ratemodel.ErrInvalidParameter)

	_, err = Sampler{}.Generate(context.Background(), ratemodel.Config{TimeWindow: -1, TargetCount: 1})
	assert.ErrorIs(t, err, ratemodel.ErrInvalidParameter)
}

func TestGenerateHugeTarget(t *testing.T) {
	cfg := testutil.LunchDinner()
	cfg.TargetCount = 1e19
	_, err := Sampler{Seed: 1}.Generate(context.Background(), cfg)
	assert.ErrorIs(t, err, ratemodel.ErrInvalidParameter)
	_, err = Sampler{Seed: 1}.Homogeneous(context.Background(), cfg)
	assert.ErrorIs(t, err, ratemodel.ErrInvalidParameter)

	// Large but accepted targets stop at the end of the window.
	cfg.TargetCount = 1e12
	times, err := Sampler{Seed: 1}.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Less(t, len(times), 1000)
	assert.LessOrEqual(t, cap(times), initialCap)
}

func TestAcceptsIsStrict(t *testing.T) {
	assert.False(t, accepts(0, 1, 0))
	assert.False(t, accepts(0.5, 1, 0.5))
	assert.True(t, accepts(0.5, 1, 0.5000001))
	assert.True(t, accepts(0, 2, 1e-300))

	cfg := ratemodel.Config{TimeWindow: 60, TargetCount: 5}
	times, err := Sampler{Seed: 3, MaxRate: 1}.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, times)
}

func TestHomogeneous(t *testing.T) {
	cfg := testutil.LunchDinner()
	times, err := Sampler{Seed: 11}.Homogeneous(context.Background(), cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(times), 200)
	assert.Greater(t, len(times), 140)
	assert.True(t, sort.Float64sAreSorted(times))
}

func TestHistogram(t *testing.T) {
	times := []float64{0, 5, 9.99, 10, 55, 100, 120, -1}
	bins, err := Histogram(times, 100, 10)
	require.NoError(t, err)
	require.Len(t, bins, 10)

	assert.Equal(t, 3, bins[0].Count)
	assert.Equal(t, 1, bins[1].Count)
	assert.Equal(t, 1, bins[5].Count)
	assert.Equal(t, 1, bins[9].Count, "arrival at the window edge goes in the last bin")
	assert.Equal(t, 90.0, bins[9].Start)
	assert.Equal(t, 100.0, bins[9].End)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 6, total)

	_, err = Histogram(times, 100, 0)
	assert.ErrorIs(t, err, ratemodel.ErrInvalidParameter)
	_, err = Histogram(times, 0, 4)
	assert.ErrorIs(t, err, ratemodel.ErrInvalidParameter)
}

func TestHistogramTotalsMatchArrivals(t *testing.T) {
	cfg := calibrated(t)
	times, err := Sampler{Seed: 5}.Generate(context.Background(), cfg)
	require.NoError(t, err)

	bins, err := Histogram(times, cfg.TimeWindow, 24)
	require.NoError(t, err)
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, len(times), total)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 9})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2.0, s.First)
	assert.Equal(t, 9.0, s.Last)
	assert.Equal(t, 3.0, s.MeanGap)

	assert.Equal(t, Summary{}, Summarize(nil))
}
