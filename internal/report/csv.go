// Package report writes analysis results: per-sample CSV series and a
// versioned JSON document describing one analyser run.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/banshee-data/rate.report/internal/analysis"
	"github.com/banshee-data/rate.report/internal/arrivals"
	"github.com/banshee-data/rate.report/internal/integrator"
)

// CSVWriter wraps csv.Writer with methods for analysis output.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a CSVWriter writing to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

var seriesHeader = []string{"time_min", "original_rate", "original_cumulative", "scaled_rate", "scaled_cumulative"}

// WriteSeries writes one row per sample with the original and scaled rate
// and cumulative count side by side. Both series must come from the same
// Run so that their times line up.
func (c *CSVWriter) WriteSeries(a analysis.Analysis) error {
	if len(a.Original.Series) != len(a.Scaled.Series) {
		return fmt.Errorf("series length mismatch: original=%d scaled=%d", len(a.Original.Series), len(a.Scaled.Series))
	}
	if err := c.w.Write(seriesHeader); err != nil {
		return err
	}
	for i, o := range a.Original.Series {
		s := a.Scaled.Series[i]
		row := []string{
			fmt.Sprintf("%.6f", o.Time),
			integrator.FormatFixed(o.Rate, integrator.RateDecimals),
			integrator.FormatFixed(o.Cumulative, integrator.CountDecimals),
			integrator.FormatFixed(s.Rate, integrator.RateDecimals),
			integrator.FormatFixed(s.Cumulative, integrator.CountDecimals),
		}
		if err := c.w.Write(row); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

// WriteHistogram writes arrival counts per bin.
func (c *CSVWriter) WriteHistogram(bins []arrivals.Bin) error {
	if err := c.w.Write([]string{"bin_start_min", "bin_end_min", "count"}); err != nil {
		return err
	}
	for _, b := range bins {
		row := []string{
			fmt.Sprintf("%g", b.Start),
			fmt.Sprintf("%g", b.End),
			fmt.Sprintf("%d", b.Count),
		}
		if err := c.w.Write(row); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}
