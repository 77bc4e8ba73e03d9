package ratemodel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names a numeric field of a Peak.
type Field string

const (
	FieldCenter    Field = "center"
	FieldIntensity Field = "intensity"
	FieldWidth     Field = "width"
)

// ParseField maps a field name to a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldCenter, FieldIntensity, FieldWidth:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown peak field %q", ErrInvalidParameter, s)
}

// BaseField names a scalar field of a Config.
type BaseField string

const (
	FieldBaseRate    BaseField = "base_rate"
	FieldTimeWindow  BaseField = "time_window"
	FieldTargetCount BaseField = "target_count"
)

// AddPeak appends a peak centred on the middle of the time window.
func AddPeak(c Config) Config {
	out := c.Clone()
	out.Peaks = append(out.Peaks, Peak{
		Center:    c.TimeWindow / 2,
		Intensity: NewPeakIntensity,
		Width:     NewPeakWidth,
	})
	return out
}

// RemovePeak removes the peak at index. The last remaining peak is never
// removed, and an out-of-range index leaves c unchanged.
func RemovePeak(c Config, index int) Config {
	if len(c.Peaks) <= 1 || index < 0 || index >= len(c.Peaks) {
		return c
	}
	out := c.Clone()
	out.Peaks = append(out.Peaks[:index], out.Peaks[index+1:]...)
	return out
}

// UpdatePeak parses raw and stores it in field of the peak at index.
// Unparseable input is stored as 0.
func UpdatePeak(c Config, index int, field Field, raw string) (Config, error) {
	if index < 0 || index >= len(c.Peaks) {
		return c, fmt.Errorf("%w: index %d, have %d peaks", ErrOutOfRange, index, len(c.Peaks))
	}
	v := ParseValue(raw)
	out := c.Clone()
	p := &out.Peaks[index]
	switch field {
	case FieldCenter:
		p.Center = v
	case FieldIntensity:
		p.Intensity = v
	case FieldWidth:
		p.Width = v
	default:
		return c, fmt.Errorf("%w: unknown peak field %q", ErrInvalidParameter, field)
	}
	return out, nil
}

// UpdateBase parses raw and stores it in one of the scalar Config fields,
// with the same coercion rule as UpdatePeak.
func UpdateBase(c Config, field BaseField, raw string) (Config, error) {
	v := ParseValue(raw)
	out := c.Clone()
	switch field {
	case FieldBaseRate:
		out.BaseRate = v
	case FieldTimeWindow:
		out.TimeWindow = v
	case FieldTargetCount:
		out.TargetCount = v
	default:
		return c, fmt.Errorf("%w: unknown config field %q", ErrInvalidParameter, field)
	}
	return out, nil
}

// ParseValue parses a user-entered number. Anything that is not a finite
// float becomes 0.
func ParseValue(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
