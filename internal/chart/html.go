// Package chart draws the original and calibrated rate curves, as an
// interactive HTML page (go-echarts) or a static PNG (gonum/plot).
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/rate.report/internal/analysis"
	"github.com/banshee-data/rate.report/internal/arrivals"
	"github.com/banshee-data/rate.report/internal/integrator"
)

// Series names shared between the HTML and PNG renderings.
const (
	OriginalLabel = "original"
	ScaledLabel   = "calibrated"
)

func lineData(r integrator.Result) []opts.LineData {
	rates := r.Rounded().Rates()
	data := make([]opts.LineData, len(rates))
	for i, v := range rates {
		data[i] = opts.LineData{Value: v}
	}
	return data
}

var noSymbols = charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})

func rateLine(a analysis.Analysis) *charts.Line {
	times := a.Original.Times()
	xs := make([]string, len(times))
	for i, t := range times {
		xs[i] = fmt.Sprintf("%.1f", t)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Order rate calibration", Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{
			Title: "Order arrival rate",
			Subtitle: fmt.Sprintf("target=%s expected=%s scale=%s",
				integrator.FormatFixed(a.Config.TargetCount, 0),
				integrator.FormatFixed(a.Scaled.ExpectedCount, integrator.CountDecimals),
				integrator.FormatFixed(a.Calibration.ScaleFactor, integrator.RateDecimals)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (min)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "orders/min", NameLocation: "middle", NameGap: 45}),
	)
	line.SetXAxis(xs).
		AddSeries(OriginalLabel, lineData(a.Original), noSymbols).
		AddSeries(ScaledLabel, lineData(a.Scaled), noSymbols)
	return line
}

func histogramBar(bins []arrivals.Bin) *charts.Bar {
	xs := make([]string, len(bins))
	ys := make([]opts.BarData, len(bins))
	total := 0
	for i, b := range bins {
		xs[i] = fmt.Sprintf("%g-%g", b.Start, b.End)
		ys[i] = opts.BarData{Value: b.Count}
		total += b.Count
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sampled arrivals", Subtitle: fmt.Sprintf("n=%d", total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xs).AddSeries("arrivals", ys)
	return bar
}

// WriteHTML renders the rate chart, and the arrival histogram when bins is
// non-empty, as a standalone HTML page.
func WriteHTML(w io.Writer, a analysis.Analysis, bins []arrivals.Bin) error {
	if len(a.Original.Series) == 0 {
		return fmt.Errorf("no samples to chart")
	}
	page := components.NewPage()
	page.PageTitle = "Order rate calibration"
	page.AddCharts(rateLine(a))
	if len(bins) > 0 {
		page.AddCharts(histogramBar(bins))
	}
	return page.Render(w)
}
