package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/rate.report/internal/calibrator"
	"github.com/banshee-data/rate.report/internal/integrator"
	"github.com/banshee-data/rate.report/internal/ratemodel"
)

// RenderOptions controls the textual layout produced by RenderWith.
type RenderOptions struct {
	Constructor string // call name wrapping the keyword arguments
	ExpFunc     string // exponential function as called in the target code
	Indent      string
}

// DefaultRenderOptions matches the generator code the analyser emits.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Constructor: "PoissonOrderGenerator",
		ExpFunc:     "np.exp",
		Indent:      "    ",
	}
}

func (o RenderOptions) withDefaults() RenderOptions {
	d := DefaultRenderOptions()
	if o.Constructor == "" {
		o.Constructor = d.Constructor
	}
	if o.ExpFunc == "" {
		o.ExpFunc = d.ExpFunc
	}
	if o.Indent == "" {
		o.Indent = d.Indent
	}
	return o
}

// Render writes the calibrated rate function as generator source text using
// DefaultRenderOptions.
func Render(cfg ratemodel.Config, cal calibrator.Result) (string, error) {
	return RenderWith(cfg, cal, DefaultRenderOptions())
}

// RenderWith writes the calibrated rate function as source text. Shared
// intensities are factored out of the sum (compact form); otherwise every
// exp term carries its own coefficient (expanded form). TargetCount and
// TimeWindow come from cfg, the baseline and peaks from cal.
func RenderWith(cfg ratemodel.Config, cal calibrator.Result, opts RenderOptions) (string, error) {
	opts = opts.withDefaults()
	if !IsExpFunc(opts.ExpFunc) {
		return "", fmt.Errorf("%w: cannot render with exp function %q", ratemodel.ErrInvalidParameter, opts.ExpFunc)
	}
	if err := checkRenderable(cfg, cal); err != nil {
		return "", err
	}

	in := opts.Indent
	var b strings.Builder
	fmt.Fprintf(&b, "%s(\n", opts.Constructor)
	fmt.Fprintf(&b, "%s%s=%s,\n", in, KeyTotalOrders, formatExact(cfg.TargetCount))
	fmt.Fprintf(&b, "%s%s=%s,\n", in, KeyTimeWindow, formatExact(cfg.TimeWindow))
	fmt.Fprintf(&b, "%s%s=%s\n", in, KeyRateFunction, RateFunction(cal, opts))
	b.WriteString(")")
	return b.String(), nil
}

// RateFunction renders only the lambda of a calibration, laid out for the
// keyword-argument position inside RenderWith.
func RateFunction(cal calibrator.Result, opts RenderOptions) string {
	opts = opts.withDefaults()
	in := opts.Indent
	base := integrator.FormatFixed(cal.ScaledBaseRate, integrator.RateDecimals)

	var b strings.Builder
	b.WriteString("lambda t: ")
	b.WriteString(base)
	if len(cal.ScaledPeaks) == 0 {
		return b.String()
	}

	shared, compact := SharedIntensity(cal.ScaledPeaks)
	if compact {
		fmt.Fprintf(&b, " + %s * (\n", shared)
	} else {
		b.WriteString(" + (\n")
	}
	for i, p := range cal.ScaledPeaks {
		b.WriteString(in + in)
		if !compact {
			b.WriteString(integrator.FormatFixed(p.Intensity, integrator.RateDecimals))
			b.WriteString(" * ")
		}
		b.WriteString(gaussianText(opts.ExpFunc, p))
		if i < len(cal.ScaledPeaks)-1 {
			b.WriteString(" +")
		}
		b.WriteString("\n")
	}
	b.WriteString(in + ")")
	return b.String()
}

// SharedIntensity reports whether every peak formats to the same
// four-decimal intensity, and returns that text when it does.
func SharedIntensity(peaks []ratemodel.Peak) (string, bool) {
	if len(peaks) == 0 {
		return "", false
	}
	first := integrator.FormatFixed(peaks[0].Intensity, integrator.RateDecimals)
	for _, p := range peaks[1:] {
		if integrator.FormatFixed(p.Intensity, integrator.RateDecimals) != first {
			return "", false
		}
	}
	return first, true
}

func gaussianText(fn string, p ratemodel.Peak) string {
	return fmt.Sprintf("%s(-((t - %s)**2) / %s)", fn, formatExact(p.Center), formatExact(p.Width))
}

// formatExact writes the shortest decimal that parses back to v.
func formatExact(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type renderField struct {
	name string
	v    float64
}

// checkRenderable rejects values the grammar cannot express: anything
// non-finite or negative, and non-positive widths.
func checkRenderable(cfg ratemodel.Config, cal calibrator.Result) error {
	fields := []renderField{
		{KeyTotalOrders, cfg.TargetCount},
		{KeyTimeWindow, cfg.TimeWindow},
		{"scale_factor", cal.ScaleFactor},
		{"scaled_base_rate", cal.ScaledBaseRate},
	}
	for i, p := range cal.ScaledPeaks {
		if !(p.Width > 0) || math.IsInf(p.Width, 0) {
			return fmt.Errorf("%w: cannot render peak %d width=%v", ratemodel.ErrInvalidParameter, i, p.Width)
		}
		fields = append(fields,
			renderField{fmt.Sprintf("peak %d intensity", i), p.Intensity},
			renderField{fmt.Sprintf("peak %d center", i), p.Center},
		)
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%w: cannot render %s=%v", ratemodel.ErrInvalidParameter, f.name, f.v)
		}
	}
	return nil
}
