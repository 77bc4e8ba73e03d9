// Package ratemodel holds the in-memory representation of an order-arrival
// rate function: a constant baseline plus a sum of Gaussian-shaped peaks.
//
// Key types: Peak, Config.
//
// Config values are owned by the caller. Every edit operation returns a new
// Config with its own Peaks slice; derived series are never cached here.
package ratemodel

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidParameter is returned when a parameter is outside its valid
	// domain, such as a non-positive time window.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrOutOfRange is returned when a peak index does not exist.
	ErrOutOfRange = errors.New("peak index out of range")
)

// Default values used by ResetDefaults and AddPeak.
const (
	DefaultBaseRate    = 0.05
	DefaultTimeWindow  = 600.0
	DefaultTargetCount = 200.0

	NewPeakIntensity = 0.2
	NewPeakWidth     = 1000.0
)

// Peak is a single Gaussian contribution to the rate function:
//
//	Intensity * exp(-(t - Center)^2 / Width)
//
// Width is the denominator of the exponent, not a variance.
type Peak struct {
	Center    float64 `json:"center" toml:"center"`       // minutes
	Intensity float64 `json:"intensity" toml:"intensity"` // orders per minute at the centre
	Width     float64 `json:"width" toml:"width"`
}

// Contribution returns the peak's rate contribution at time t.
func (p Peak) Contribution(t float64) float64 {
	d := t - p.Center
	return p.Intensity * math.Exp(-(d*d)/p.Width)
}

// Config is the rate function plus the horizon and the target count it is
// calibrated against.
type Config struct {
	BaseRate    float64 `json:"base_rate" toml:"base_rate"`
	Peaks       []Peak  `json:"peaks" toml:"peaks"`
	TimeWindow  float64 `json:"time_window" toml:"time_window"`   // minutes
	TargetCount float64 `json:"target_count" toml:"target_count"` // expected orders over TimeWindow
}

// ResetDefaults returns the canonical default configuration.
func ResetDefaults() Config {
	return Config{
		BaseRate:    DefaultBaseRate,
		TimeWindow:  DefaultTimeWindow,
		TargetCount: DefaultTargetCount,
		Peaks: []Peak{
			{Center: 210, Intensity: 0.25, Width: 1000},
			{Center: 390, Intensity: 0.25, Width: 1000},
		},
	}
}

// Rate evaluates the rate function at time t.
func (c Config) Rate(t float64) float64 {
	rate := c.BaseRate
	for _, p := range c.Peaks {
		rate += p.Contribution(t)
	}
	return rate
}

// Clone returns a copy of c that shares no memory with it.
func (c Config) Clone() Config {
	out := c
	if c.Peaks != nil {
		out.Peaks = make([]Peak, len(c.Peaks))
		copy(out.Peaks, c.Peaks)
	}
	return out
}

// Scale returns a copy of c with the baseline and every peak intensity
// multiplied by f. Centres and widths are unchanged.
func (c Config) Scale(f float64) Config {
	out := c.Clone()
	out.BaseRate = c.BaseRate * f
	for i := range out.Peaks {
		out.Peaks[i].Intensity = c.Peaks[i].Intensity * f
	}
	return out
}

// Validate checks that the configuration values are valid.
func (c Config) Validate() error {
	if !finite(c.TimeWindow) || c.TimeWindow <= 0 {
		return fmt.Errorf("%w: time_window must be positive, got %v", ErrInvalidParameter, c.TimeWindow)
	}
	if !finite(c.TargetCount) || c.TargetCount <= 0 {
		return fmt.Errorf("%w: target_count must be positive, got %v", ErrInvalidParameter, c.TargetCount)
	}
	if !finite(c.BaseRate) || c.BaseRate < 0 {
		return fmt.Errorf("%w: base_rate must be non-negative, got %v", ErrInvalidParameter, c.BaseRate)
	}
	for i, p := range c.Peaks {
		if !finite(p.Center) || p.Center < 0 {
			return fmt.Errorf("%w: peak %d center must be non-negative, got %v", ErrInvalidParameter, i, p.Center)
		}
		if !finite(p.Intensity) || p.Intensity < 0 {
			return fmt.Errorf("%w: peak %d intensity must be non-negative, got %v", ErrInvalidParameter, i, p.Intensity)
		}
		if !finite(p.Width) || p.Width <= 0 {
			return fmt.Errorf("%w: peak %d width must be positive, got %v", ErrInvalidParameter, i, p.Width)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
