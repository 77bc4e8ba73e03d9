package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/rate.report/internal/analysis"
	"github.com/banshee-data/rate.report/internal/arrivals"
	"github.com/banshee-data/rate.report/internal/calibrator"
	"github.com/banshee-data/rate.report/internal/integrator"
	"github.com/banshee-data/rate.report/internal/ratemodel"
	"github.com/banshee-data/rate.report/internal/timeutil"
	"github.com/banshee-data/rate.report/internal/version"
)

// SchemaVersion identifies the Document layout. Bump it when fields change
// meaning.
const SchemaVersion = 1

// Stats is the rounded summary of one evaluated series.
type Stats struct {
	ExpectedCount float64 `json:"expected_count"`
	MaxRate       float64 `json:"max_rate"`
	AvgRate       float64 `json:"avg_rate"`
}

// ArrivalReport holds a sampled arrival stream. Homogeneous summarises a
// constant-rate stream with the same target, when one was requested.
type ArrivalReport struct {
	Seed        uint64            `json:"seed"`
	Summary     arrivals.Summary  `json:"summary"`
	Histogram   []arrivals.Bin    `json:"histogram"`
	Homogeneous *arrivals.Summary `json:"homogeneous,omitempty"`
}

// Document is the JSON form of one analyser run. Numbers are rounded for
// display; series are omitted unless requested.
type Document struct {
	Schema      int               `json:"schema"`
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Version     string            `json:"version"`
	Config      ratemodel.Config  `json:"config"`
	Original    Stats             `json:"original"`
	Calibration calibrator.Result `json:"calibration"`
	Scaled      Stats             `json:"scaled"`
	Perfect     bool              `json:"perfect"`
	Difference  float64           `json:"difference"`
	Code        string            `json:"code"`

	OriginalSeries []integrator.Sample `json:"original_series,omitempty"`
	ScaledSeries   []integrator.Sample `json:"scaled_series,omitempty"`
	Arrivals       *ArrivalReport      `json:"arrivals,omitempty"`
}

// Builder assembles Documents. A zero Builder uses the wall clock.
type Builder struct {
	Clock         timeutil.Clock
	IncludeSeries bool
}

func stats(r integrator.Result) Stats {
	r = r.Rounded()
	return Stats{ExpectedCount: r.ExpectedCount, MaxRate: r.MaxRate, AvgRate: r.AvgRate}
}

// Build creates a Document for a, with a fresh run ID. arr may be nil.
func (b Builder) Build(a analysis.Analysis, arr *ArrivalReport) Document {
	clock := b.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	cal := calibrator.Result{
		ScaleFactor:    integrator.Round(a.Calibration.ScaleFactor, integrator.RateDecimals),
		ScaledBaseRate: integrator.Round(a.Calibration.ScaledBaseRate, integrator.RateDecimals),
		ScaledPeaks:    make([]ratemodel.Peak, len(a.Calibration.ScaledPeaks)),
	}
	for i, p := range a.Calibration.ScaledPeaks {
		p.Intensity = integrator.Round(p.Intensity, integrator.RateDecimals)
		cal.ScaledPeaks[i] = p
	}

	doc := Document{
		Schema:      SchemaVersion,
		RunID:       uuid.NewString(),
		GeneratedAt: clock.Now().UTC(),
		Version:     version.Version,
		Config:      a.Config.Clone(),
		Original:    stats(a.Original),
		Calibration: cal,
		Scaled:      stats(a.Scaled),
		Perfect:     a.Perfect,
		Difference:  a.Difference,
		Code:        a.Code,
		Arrivals:    arr,
	}
	if b.IncludeSeries {
		doc.OriginalSeries = a.Original.Rounded().Series
		doc.ScaledSeries = a.Scaled.Rounded().Series
	}
	return doc
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
