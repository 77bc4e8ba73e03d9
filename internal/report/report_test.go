package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rate.report/internal/analysis"
	"github.com/banshee-data/rate.report/internal/arrivals"
	"github.com/banshee-data/rate.report/internal/monitoring"
	"github.com/banshee-data/rate.report/internal/testutil"
	"github.com/banshee-data/rate.report/internal/timeutil"
)

func runDefaults(t *testing.T, samples int) analysis.Analysis {
	t.Helper()
	orig := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = orig })

	a, err := analysis.Run(testutil.LunchDinner(), analysis.Options{NumSamples: samples})
	require.NoError(t, err)
	return a
}

func TestWriteSeries(t *testing.T) {
	a := runDefaults(t, 10)

	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(&buf).WriteSeries(a))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 12)
	assert.Equal(t, seriesHeader, rows[0])
	assert.Equal(t, "0.000000", rows[1][0])
	assert.Equal(t, "600.000000", rows[11][0])
	assert.Equal(t, "200.00", rows[11][4])
}

func TestWriteSeriesMismatch(t *testing.T) {
	a := runDefaults(t, 10)
	a.Scaled.Series = a.Scaled.Series[:3]
	err := NewCSVWriter(&bytes.Buffer{}).WriteSeries(a)
	assert.Error(t, err)
}

func TestWriteHistogram(t *testing.T) {
	var buf bytes.Buffer
	bins := []arrivals.Bin{{Start: 0, End: 30, Count: 4}, {Start: 30, End: 60, Count: 9}}
	require.NoError(t, NewCSVWriter(&buf).WriteHistogram(bins))
	assert.Equal(t, "bin_start_min,bin_end_min,count\n0,30,4\n30,60,9\n", buf.String())
}

func TestBuildDocument(t *testing.T) {
	a := runDefaults(t, 1000)
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	doc := Builder{Clock: timeutil.NewMockClock(at)}.Build(a, nil)
	assert.Equal(t, SchemaVersion, doc.Schema)
	assert.Equal(t, at, doc.GeneratedAt)
	_, err := uuid.Parse(doc.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 200.0, doc.Scaled.ExpectedCount)
	assert.True(t, doc.Perfect)
	assert.Nil(t, doc.OriginalSeries)
	assert.Nil(t, doc.Arrivals)

	// Display rounding applies to the document, not to the analysis.
	assert.Equal(t, 0.1723, doc.Calibration.ScaledBaseRate)
	assert.NotEqual(t, 0.1723, a.Calibration.ScaledBaseRate)

	other := Builder{Clock: timeutil.NewMockClock(at)}.Build(a, nil)
	assert.NotEqual(t, doc.RunID, other.RunID)
}

func TestWriteJSON(t *testing.T) {
	a := runDefaults(t, 20)
	arr := &ArrivalReport{
		Seed:      3,
		Summary:   arrivals.Summary{Count: 2, First: 1, Last: 5, MeanGap: 2.5},
		Histogram: []arrivals.Bin{{Start: 0, End: 600, Count: 2}},
	}
	doc := Builder{Clock: timeutil.NewMockClock(time.Unix(0, 0)), IncludeSeries: true}.Build(a, arr)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	var back map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, float64(SchemaVersion), back["schema"])
	assert.Len(t, back["original_series"], 21)
	assert.Contains(t, back, "arrivals")
	assert.Contains(t, back["code"], "PoissonOrderGenerator(")
}
