package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/rate.report/internal/analysis"
	"github.com/banshee-data/rate.report/internal/fsutil"
	"github.com/banshee-data/rate.report/internal/integrator"
)

// PNG dimensions.
const (
	Width  = 14 * vg.Inch
	Height = 6 * vg.Inch
)

var (
	originalColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	scaledColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

func points(r integrator.Result) plotter.XYs {
	ts, rates := r.Times(), r.Rates()
	pts := make(plotter.XYs, len(ts))
	for i := range ts {
		pts[i] = plotter.XY{X: ts[i], Y: rates[i]}
	}
	return pts
}

// Plot builds the gonum plot of both rate curves.
func Plot(a analysis.Analysis) (*plot.Plot, error) {
	if len(a.Original.Series) == 0 {
		return nil, fmt.Errorf("no samples to chart")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Order arrival rate (target %s)", integrator.FormatFixed(a.Config.TargetCount, 0))
	p.X.Label.Text = "t (min)"
	p.Y.Label.Text = "orders/min"
	p.X.Min = 0
	p.X.Max = a.Config.TimeWindow
	p.Y.Min = 0

	orig, err := plotter.NewLine(points(a.Original))
	if err != nil {
		return nil, err
	}
	orig.Color = originalColor
	orig.Width = vg.Points(1)
	orig.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	scaled, err := plotter.NewLine(points(a.Scaled))
	if err != nil {
		return nil, err
	}
	scaled.Color = scaledColor
	scaled.Width = vg.Points(1.5)

	p.Add(plotter.NewGrid(), orig, scaled)
	p.Legend.Add(OriginalLabel, orig)
	p.Legend.Add(ScaledLabel, scaled)
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG encodes the rate plot as PNG to w.
func WritePNG(w io.Writer, a analysis.Analysis) error {
	p, err := Plot(a)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePNG writes the rate plot to path through fsys, creating parent
// directories as needed.
func SavePNG(fsys fsutil.FileSystem, path string, a analysis.Analysis) error {
	f, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, a); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
