// Package arrivals draws order arrival times from a rate model, the way the
// generator built from the rendered code would.
//
// Generate uses thinning: candidate arrivals come from a homogeneous
// Poisson process at MaxRate and each is kept with probability
// rate(t)/MaxRate.
package arrivals

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/rate.report/internal/ratemodel"
)

// boundSamples is the number of points sampled when deriving MaxRate.
const boundSamples = 1000

// MaxArrivals is the largest TargetCount a Sampler accepts.
const MaxArrivals = math.MaxInt32

// initialCap bounds the preallocated result so a large TargetCount in a
// short window does not reserve memory it will never use.
const initialCap = 4096

// BoundMargin inflates the sampled maximum so the envelope stays above the
// rate between sample points.
const BoundMargin = 1.1

// Sampler draws arrival times. The zero value is usable and seeded with 0.
type Sampler struct {
	Seed uint64
	// MaxRate is the thinning envelope. Zero derives it with MaxRateBound.
	MaxRate float64
}

// MaxRateBound returns the largest rate over boundSamples evenly spaced
// points of the window, times BoundMargin.
func MaxRateBound(cfg ratemodel.Config) float64 {
	ts := floats.Span(make([]float64, boundSamples), 0, cfg.TimeWindow)
	rates := make([]float64, len(ts))
	for i, t := range ts {
		rates[i] = cfg.Rate(t)
	}
	return floats.Max(rates) * BoundMargin
}

func (s Sampler) source() rand.Source {
	return rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15)
}

// Generate returns sorted arrival times in [0, TimeWindow], at most
// round(TargetCount) of them. TargetCount above MaxArrivals is rejected.
func (s Sampler) Generate(ctx context.Context, cfg ratemodel.Config) ([]float64, error) {
	if err := checkCount(cfg); err != nil {
		return nil, err
	}
	bound := s.MaxRate
	if bound == 0 {
		bound = MaxRateBound(cfg)
	}
	if math.IsNaN(bound) || math.IsInf(bound, 0) || bound < 0 {
		return nil, fmt.Errorf("%w: max_rate must be finite and non-negative, got %v", ratemodel.ErrInvalidParameter, bound)
	}
	if bound == 0 {
		return []float64{}, nil
	}

	src := s.source()
	gap := distuv.Exponential{Rate: bound, Src: src}
	accept := distuv.Uniform{Min: 0, Max: 1, Src: src}
	return draw(ctx, cfg, gap, func(t float64) bool {
		return accepts(accept.Rand(), bound, cfg.Rate(t))
	})
}

// accepts keeps a candidate when u, uniform on [0, 1), falls strictly
// below rate/bound. A zero rate never accepts.
func accepts(u, bound, rate float64) bool {
	return u*bound < rate
}

func checkCount(cfg ratemodel.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.TargetCount > MaxArrivals {
		return fmt.Errorf("%w: target_count %v exceeds %d arrivals", ratemodel.ErrInvalidParameter, cfg.TargetCount, MaxArrivals)
	}
	return nil
}

// Homogeneous returns arrivals from a constant-rate process at
// TargetCount/TimeWindow, ignoring the shape of cfg.
func (s Sampler) Homogeneous(ctx context.Context, cfg ratemodel.Config) ([]float64, error) {
	if err := checkCount(cfg); err != nil {
		return nil, err
	}
	gap := distuv.Exponential{Rate: cfg.TargetCount / cfg.TimeWindow, Src: s.source()}
	return draw(ctx, cfg, gap, func(float64) bool { return true })
}

func draw(ctx context.Context, cfg ratemodel.Config, gap distuv.Exponential, keep func(float64) bool) ([]float64, error) {
	limit := int(math.Round(cfg.TargetCount))
	out := make([]float64, 0, min(limit, initialCap))
	t := 0.0
	for len(out) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t += gap.Rand()
		if t > cfg.TimeWindow {
			break
		}
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}
