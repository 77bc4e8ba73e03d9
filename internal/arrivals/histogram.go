package arrivals

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/rate.report/internal/ratemodel"
)

// Bin is one interval of a Histogram.
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// Histogram counts arrivals in bins equal-width intervals over
// [0, window]. Arrivals outside the window are dropped; one exactly at
// window falls in the last bin.
func Histogram(times []float64, window float64, bins int) ([]Bin, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("%w: bins must be positive, got %d", ratemodel.ErrInvalidParameter, bins)
	}
	if !(window > 0) || math.IsInf(window, 0) {
		return nil, fmt.Errorf("%w: window must be positive, got %v", ratemodel.ErrInvalidParameter, window)
	}

	edges := floats.Span(make([]float64, bins+1), 0, window)
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(window, math.Inf(1))

	x := make([]float64, 0, len(times))
	for _, t := range times {
		if t >= 0 && t <= window {
			x = append(x, t)
		}
	}
	sort.Float64s(x)

	counts := stat.Histogram(nil, dividers, x, nil)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Start: edges[i], End: edges[i+1], Count: int(counts[i])}
	}
	return out, nil
}

// Summary describes a set of arrivals.
type Summary struct {
	Count   int     `json:"count"`
	First   float64 `json:"first"`
	Last    float64 `json:"last"`
	MeanGap float64 `json:"mean_gap"` // minutes between arrivals, counted from t=0
}

// Summarize reports the count, the first and last arrival and the mean
// inter-arrival gap of sorted arrival times.
func Summarize(times []float64) Summary {
	if len(times) == 0 {
		return Summary{}
	}
	gaps := make([]float64, len(times))
	prev := 0.0
	for i, t := range times {
		gaps[i] = t - prev
		prev = t
	}
	return Summary{
		Count:   len(times),
		First:   times[0],
		Last:    times[len(times)-1],
		MeanGap: stat.Mean(gaps, nil),
	}
}
