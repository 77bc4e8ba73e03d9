// Package calibrator derives the uniform scale factor that maps an observed
// expected count onto a target count.
//
// Calibration changes amplitude only: the baseline and every peak intensity
// are multiplied by the same factor, while peak centres and widths are
// preserved.
package calibrator

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/rate.report/internal/integrator"
	"github.com/banshee-data/rate.report/internal/ratemodel"
)

// ErrDivisionByZero is returned when the observed expected count is zero,
// which happens only when the baseline and all intensities are zero.
var ErrDivisionByZero = errors.New("observed expected count is zero")

// Tolerance is the largest acceptable gap between a recalibrated expected
// count and the target.
const Tolerance = 1.0

// Result is the outcome of a calibration.
type Result struct {
	ScaleFactor    float64          `json:"scale_factor"`
	ScaledBaseRate float64          `json:"scaled_base_rate"`
	ScaledPeaks    []ratemodel.Peak `json:"scaled_peaks"`
}

// Calibrate computes the factor TargetCount/observed and applies it to the
// baseline and to every peak intensity of cfg.
func Calibrate(cfg ratemodel.Config, observed float64) (Result, error) {
	if math.IsNaN(cfg.TargetCount) || math.IsInf(cfg.TargetCount, 0) || cfg.TargetCount <= 0 {
		return Result{}, fmt.Errorf("%w: target_count must be positive, got %v", ratemodel.ErrInvalidParameter, cfg.TargetCount)
	}
	if math.IsNaN(observed) || math.IsInf(observed, 0) || observed < 0 {
		return Result{}, fmt.Errorf("%w: observed expected count must be finite and non-negative, got %v", ratemodel.ErrInvalidParameter, observed)
	}
	if observed == 0 {
		return Result{}, ErrDivisionByZero
	}

	f := cfg.TargetCount / observed
	if math.IsInf(f, 0) {
		// A subnormal observed count can still overflow the quotient.
		return Result{}, fmt.Errorf("%w: scale factor overflows for observed count %v", ErrDivisionByZero, observed)
	}

	scaled := cfg.Scale(f)
	return Result{
		ScaleFactor:    f,
		ScaledBaseRate: scaled.BaseRate,
		ScaledPeaks:    scaled.Peaks,
	}, nil
}

// Apply returns cfg with the calibrated baseline and peaks substituted.
// The peaks are copied, so the result is independent of r.
func (r Result) Apply(cfg ratemodel.Config) ratemodel.Config {
	out := cfg.Clone()
	out.BaseRate = r.ScaledBaseRate
	out.Peaks = make([]ratemodel.Peak, len(r.ScaledPeaks))
	copy(out.Peaks, r.ScaledPeaks)
	return out
}

// Perfect reports whether expected, rounded for display, is within
// Tolerance of target.
func Perfect(expected, target float64) bool {
	return math.Abs(integrator.Round(expected, integrator.CountDecimals)-target) < Tolerance
}

// Difference is the signed gap between the displayed expected count and
// target, rounded to one decimal.
func Difference(expected, target float64) float64 {
	return integrator.Round(integrator.Round(expected, integrator.CountDecimals)-target, 1)
}
