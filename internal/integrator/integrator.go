// Package integrator samples a rate function over its time window and
// integrates it into an expected count.
//
// The integral is a left Riemann sum over numSamples+1 equally spaced
// points including both ends of the window. Recorded fixtures depend on
// this exact rule, so it must not be replaced with trapezoid or Simpson
// integration.
package integrator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/rate.report/internal/ratemodel"
)

// DefaultSamples is the number of intervals used by the analyser.
const DefaultSamples = 1000

// Sample is one point of a SampleSeries.
type Sample struct {
	Time       float64 `json:"time"`
	Rate       float64 `json:"rate"`
	Cumulative float64 `json:"cumulative"`
}

// Result holds a sampled series and its summary statistics.
type Result struct {
	Series        []Sample `json:"series"`
	ExpectedCount float64  `json:"expected_count"`
	MaxRate       float64  `json:"max_rate"`
	AvgRate       float64  `json:"avg_rate"`
}

// Evaluate samples cfg at numSamples+1 points over [0, TimeWindow].
// Values in the returned Result are unrounded; use Rounded for display.
func Evaluate(cfg ratemodel.Config, numSamples int) (Result, error) {
	if numSamples <= 0 {
		return Result{}, fmt.Errorf("%w: numSamples must be positive, got %d", ratemodel.ErrInvalidParameter, numSamples)
	}
	if !(cfg.TimeWindow > 0) || math.IsInf(cfg.TimeWindow, 1) {
		return Result{}, fmt.Errorf("%w: time_window must be positive and finite, got %v", ratemodel.ErrInvalidParameter, cfg.TimeWindow)
	}

	n := float64(numSamples)
	dt := cfg.TimeWindow / n
	series := make([]Sample, numSamples+1)
	rates := make([]float64, numSamples+1)

	var integral float64
	for i := range series {
		t := (float64(i) / n) * cfg.TimeWindow
		rate := cfg.Rate(t)
		integral += rate * dt
		rates[i] = rate
		series[i] = Sample{Time: t, Rate: rate, Cumulative: integral}
	}

	return Result{
		Series:        series,
		ExpectedCount: integral,
		MaxRate:       floats.Max(rates),
		AvgRate:       integral / cfg.TimeWindow,
	}, nil
}

// Rates returns the sampled rates in order.
func (r Result) Rates() []float64 {
	out := make([]float64, len(r.Series))
	for i, s := range r.Series {
		out[i] = s.Rate
	}
	return out
}

// Times returns the sample times in order.
func (r Result) Times() []float64 {
	out := make([]float64, len(r.Series))
	for i, s := range r.Series {
		out[i] = s.Time
	}
	return out
}
