package chart

import (
	"bytes"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rate.report/internal/analysis"
	"github.com/banshee-data/rate.report/internal/arrivals"
	"github.com/banshee-data/rate.report/internal/fsutil"
	"github.com/banshee-data/rate.report/internal/monitoring"
	"github.com/banshee-data/rate.report/internal/testutil"
)

func run(t *testing.T) analysis.Analysis {
	t.Helper()
	orig := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = orig })

	a, err := analysis.Run(testutil.LunchDinner(), analysis.Options{NumSamples: 100})
	require.NoError(t, err)
	return a
}

func TestWriteHTML(t *testing.T) {
	a := run(t)

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, a, nil))
	html := buf.String()
	assert.Contains(t, html, "Order arrival rate")
	assert.Contains(t, html, OriginalLabel)
	assert.Contains(t, html, ScaledLabel)
	assert.NotContains(t, html, "Sampled arrivals")

	buf.Reset()
	bins := []arrivals.Bin{{Start: 0, End: 300, Count: 90}, {Start: 300, End: 600, Count: 110}}
	require.NoError(t, WriteHTML(&buf, a, bins))
	assert.Contains(t, buf.String(), "Sampled arrivals")
}

func TestWriteHTMLEmpty(t *testing.T) {
	assert.Error(t, WriteHTML(&bytes.Buffer{}, analysis.Analysis{}, nil))
}

func TestWritePNG(t *testing.T) {
	a := run(t)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, a))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestSavePNG(t *testing.T) {
	a := run(t)

	path := filepath.Join(t.TempDir(), "plots", "rate.png")
	fsys := fsutil.OSFileSystem{}
	require.NoError(t, SavePNG(fsys, path, a))
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\x89PNG"))

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, SavePNG(mfs, "/out/rate.png", a))
	data, err = mfs.ReadFile("/out/rate.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\x89PNG"))
}

func TestPlotEmpty(t *testing.T) {
	_, err := Plot(analysis.Analysis{})
	assert.Error(t, err)
}
