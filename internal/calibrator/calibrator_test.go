package calibrator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rate.report/internal/integrator"
	"github.com/banshee-data/rate.report/internal/ratemodel"
)

func TestCalibrateDefaults(t *testing.T) {
	t.Parallel()

	cfg := ratemodel.ResetDefaults()
	orig, err := integrator.Evaluate(cfg, integrator.DefaultSamples)
	require.NoError(t, err)
	require.Greater(t, orig.ExpectedCount, 0.0)

	cal, err := Calibrate(cfg, orig.ExpectedCount)
	require.NoError(t, err)
	assert.InDelta(t, 3.445011649264615, cal.ScaleFactor, 1e-9)
	assert.Equal(t, cfg.BaseRate*cal.ScaleFactor, cal.ScaledBaseRate)
	require.Len(t, cal.ScaledPeaks, 2)
	for i, p := range cal.ScaledPeaks {
		assert.Equal(t, cfg.Peaks[i].Intensity*cal.ScaleFactor, p.Intensity)
		assert.Equal(t, cfg.Peaks[i].Center, p.Center)
		assert.Equal(t, cfg.Peaks[i].Width, p.Width)
	}

	scaled, err := integrator.Evaluate(cal.Apply(cfg), integrator.DefaultSamples)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, scaled.ExpectedCount, Tolerance)
	assert.Equal(t, 200.0, scaled.Rounded().ExpectedCount)
	assert.True(t, Perfect(scaled.ExpectedCount, cfg.TargetCount))
}

func TestCalibrateRecoversTarget(t *testing.T) {
	t.Parallel()

	configs := []ratemodel.Config{
		ratemodel.ResetDefaults(),
		{BaseRate: 0.1, TimeWindow: 500, TargetCount: 300, Peaks: []ratemodel.Peak{{Center: 100, Intensity: 0.3, Width: 800}}},
		{BaseRate: 0, TimeWindow: 120, TargetCount: 45, Peaks: []ratemodel.Peak{{Center: 60, Intensity: 1, Width: 50}}},
		{BaseRate: 2, TimeWindow: 1440, TargetCount: 10, Peaks: []ratemodel.Peak{
			{Center: 480, Intensity: 0.5, Width: 3000},
			{Center: 720, Intensity: 2.5, Width: 900},
			{Center: 1140, Intensity: 0.1, Width: 20000},
		}},
	}
	for i, cfg := range configs {
		orig, err := integrator.Evaluate(cfg, integrator.DefaultSamples)
		require.NoError(t, err)
		cal, err := Calibrate(cfg, orig.ExpectedCount)
		require.NoError(t, err, "config %d", i)
		scaled, err := integrator.Evaluate(cal.Apply(cfg), integrator.DefaultSamples)
		require.NoError(t, err)
		assert.InDelta(t, cfg.TargetCount, scaled.ExpectedCount, Tolerance, "config %d", i)
	}
}

func TestCalibrateZeroRate(t *testing.T) {
	t.Parallel()

	cfg := ratemodel.ResetDefaults()
	cfg.BaseRate = 0
	for i := range cfg.Peaks {
		cfg.Peaks[i].Intensity = 0
	}
	orig, err := integrator.Evaluate(cfg, integrator.DefaultSamples)
	require.NoError(t, err)
	require.Equal(t, 0.0, orig.ExpectedCount)

	_, err = Calibrate(cfg, orig.ExpectedCount)
	assert.True(t, errors.Is(err, ErrDivisionByZero), "err = %v", err)
}

func TestCalibrateInvalid(t *testing.T) {
	t.Parallel()

	cfg := ratemodel.ResetDefaults()
	for _, observed := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := Calibrate(cfg, observed)
		assert.ErrorIs(t, err, ratemodel.ErrInvalidParameter, "observed=%v", observed)
	}

	cfg.TargetCount = 0
	_, err := Calibrate(cfg, 10)
	assert.ErrorIs(t, err, ratemodel.ErrInvalidParameter)

	cfg.TargetCount = math.MaxFloat64
	_, err = Calibrate(cfg, math.SmallestNonzeroFloat64)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestApplyDoesNotAlias(t *testing.T) {
	cfg := ratemodel.ResetDefaults()
	cal, err := Calibrate(cfg, 100)
	require.NoError(t, err)

	out := cal.Apply(cfg)
	out.Peaks[0].Intensity = 99
	assert.NotEqual(t, 99.0, cal.ScaledPeaks[0].Intensity)
	assert.Equal(t, 0.25, cfg.Peaks[0].Intensity)
	assert.Equal(t, cfg.TimeWindow, out.TimeWindow)
	assert.Equal(t, cfg.TargetCount, out.TargetCount)
}

func TestPerfectAndDifference(t *testing.T) {
	tests := []struct {
		expected, target float64
		perfect          bool
		diff             float64
	}{
		{200.0000001, 200, true, 0},
		{200.99, 200, true, 1},
		{201.2, 200, false, 1.2},
		{198.5, 200, false, -1.5},
	}
	for _, tt := range tests {
		if got := Perfect(tt.expected, tt.target); got != tt.perfect {
			t.Errorf("Perfect(%v, %v) = %v, want %v", tt.expected, tt.target, got, tt.perfect)
		}
		if got := Difference(tt.expected, tt.target); got != tt.diff {
			t.Errorf("Difference(%v, %v) = %v, want %v", tt.expected, tt.target, got, tt.diff)
		}
	}
}
