// Package testutil provides shared test helpers for the numeric packages.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/rate.report/internal/ratemodel"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertClose checks that got is within tol of want.
func AssertClose(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

// LunchDinner returns the two-peak fixture used across the analysis tests:
// a thin baseline with lunch and dinner peaks over a ten hour window.
func LunchDinner() ratemodel.Config {
	return ratemodel.ResetDefaults()
}

// SinglePeak returns a one-peak config with a non-default window.
func SinglePeak() ratemodel.Config {
	return ratemodel.Config{
		BaseRate:    0.1,
		TimeWindow:  500,
		TargetCount: 300,
		Peaks:       []ratemodel.Peak{{Center: 100, Intensity: 0.3, Width: 800}},
	}
}
