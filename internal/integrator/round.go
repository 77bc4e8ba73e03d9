package integrator

import (
	"math"
	"strconv"
)

// Display precision used at presentation boundaries.
const (
	RateDecimals  = 4
	CountDecimals = 2
)

// Round rounds v to the given number of decimal places using the same
// decimal conversion as fixed-point formatting, so Round(v, 4) parses back
// from FormatFixed(v, 4).
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatFixed formats v with exactly places decimals.
func FormatFixed(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}

// Rounded returns a presentation copy of r: rates and averages at four
// decimals, cumulative counts at two, and times at whole minutes. The
// receiver is not modified, and nothing computed from the copy should be
// fed back into further arithmetic.
func (r Result) Rounded() Result {
	out := Result{
		Series:        make([]Sample, len(r.Series)),
		ExpectedCount: Round(r.ExpectedCount, CountDecimals),
		MaxRate:       Round(r.MaxRate, RateDecimals),
		AvgRate:       Round(r.AvgRate, RateDecimals),
	}
	for i, s := range r.Series {
		out.Series[i] = Sample{
			Time:       math.Round(s.Time),
			Rate:       Round(s.Rate, RateDecimals),
			Cumulative: Round(s.Cumulative, CountDecimals),
		}
	}
	return out
}
