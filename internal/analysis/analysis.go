// Package analysis runs the full calibration pipeline for one rate model:
// evaluate, scale to the target count, re-evaluate, and render the
// calibrated generator code.
package analysis

import (
	"fmt"

	"github.com/banshee-data/rate.report/internal/calibrator"
	"github.com/banshee-data/rate.report/internal/config"
	"github.com/banshee-data/rate.report/internal/expr"
	"github.com/banshee-data/rate.report/internal/integrator"
	"github.com/banshee-data/rate.report/internal/monitoring"
	"github.com/banshee-data/rate.report/internal/ratemodel"
)

// Options controls sampling density and code layout.
type Options struct {
	NumSamples int
	Render     expr.RenderOptions
}

// DefaultOptions returns the options the analyser uses when nothing is set.
func DefaultOptions() Options {
	return Options{
		NumSamples: integrator.DefaultSamples,
		Render:     expr.DefaultRenderOptions(),
	}
}

// OptionsFromConfig picks the pipeline options out of a loaded config.
func OptionsFromConfig(c *config.AnalysisConfig) Options {
	return Options{
		NumSamples: c.GetNumSamples(),
		Render: expr.RenderOptions{
			Constructor: c.GetConstructor(),
			ExpFunc:     c.GetExpFunc(),
		},
	}
}

// Analysis is the outcome of Run. Numeric fields are unrounded.
type Analysis struct {
	Config      ratemodel.Config  `json:"config"`
	Original    integrator.Result `json:"original"`
	Calibration calibrator.Result `json:"calibration"`
	Scaled      integrator.Result `json:"scaled"`
	Code        string            `json:"code"`
	Perfect     bool              `json:"perfect"`
	Difference  float64           `json:"difference"`
}

// ScaledConfig returns the calibrated model.
func (a Analysis) ScaledConfig() ratemodel.Config {
	return a.Calibration.Apply(a.Config)
}

// Run validates cfg and runs the pipeline. cfg is not modified.
func Run(cfg ratemodel.Config, opts Options) (Analysis, error) {
	if opts.NumSamples == 0 {
		opts.NumSamples = integrator.DefaultSamples
	}
	if err := cfg.Validate(); err != nil {
		return Analysis{}, err
	}
	cfg = cfg.Clone()

	original, err := integrator.Evaluate(cfg, opts.NumSamples)
	if err != nil {
		return Analysis{}, fmt.Errorf("evaluate original: %w", err)
	}
	cal, err := calibrator.Calibrate(cfg, original.ExpectedCount)
	if err != nil {
		return Analysis{}, fmt.Errorf("calibrate: %w", err)
	}
	scaled, err := integrator.Evaluate(cal.Apply(cfg), opts.NumSamples)
	if err != nil {
		return Analysis{}, fmt.Errorf("evaluate scaled: %w", err)
	}
	code, err := expr.RenderWith(cfg, cal, opts.Render)
	if err != nil {
		return Analysis{}, fmt.Errorf("render: %w", err)
	}

	a := Analysis{
		Config:      cfg,
		Original:    original,
		Calibration: cal,
		Scaled:      scaled,
		Code:        code,
		Perfect:     calibrator.Perfect(scaled.ExpectedCount, cfg.TargetCount),
		Difference:  calibrator.Difference(scaled.ExpectedCount, cfg.TargetCount),
	}
	monitoring.Logf("[analysis] peaks=%d expected=%.2f scale=%.4f scaled=%.2f target=%.0f perfect=%v",
		len(cfg.Peaks), original.ExpectedCount, cal.ScaleFactor, scaled.ExpectedCount, cfg.TargetCount, a.Perfect)
	return a, nil
}
