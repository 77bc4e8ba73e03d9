// Command rate-analyzer calibrates an order-arrival rate function to a
// target order count and writes the calibrated generator code.
//
// Usage:
//
//	rate-analyzer [-config analysis.toml] [-code generator.py|-] [-json out.json] [-csv out.csv]
//	              [-html out.html] [-png out.png]
//	              [-arrivals [-homogeneous] [-seed N] [-bins N] [-hist out.csv]]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/rate.report/internal/analysis"
	"github.com/banshee-data/rate.report/internal/arrivals"
	"github.com/banshee-data/rate.report/internal/chart"
	"github.com/banshee-data/rate.report/internal/config"
	"github.com/banshee-data/rate.report/internal/expr"
	"github.com/banshee-data/rate.report/internal/fsutil"
	"github.com/banshee-data/rate.report/internal/monitoring"
	"github.com/banshee-data/rate.report/internal/report"
	"github.com/banshee-data/rate.report/internal/timeutil"
	"github.com/banshee-data/rate.report/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env{
		fs:     fsutil.OSFileSystem{},
		clock:  timeutil.RealClock{},
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	if err := e.run(ctx, os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(2)
		}
		log.Fatalf("rate-analyzer: %v", err)
	}
}

// env carries the process dependencies so tests can run the command in
// memory.
type env struct {
	fs     fsutil.FileSystem
	clock  timeutil.Clock
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type options struct {
	configPath   string
	codePath     string
	samples      int
	jsonPath     string
	csvPath      string
	htmlPath     string
	pngPath      string
	histPath     string
	withArrivals bool
	homogeneous  bool
	withSeries   bool
	seed         int64
	bins         int
	quiet        bool
	verbose      bool
	showVersion  bool

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("rate-analyzer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "analysis config file (.json or .toml)")
	fs.StringVar(&o.codePath, "code", "", "generator source to merge into the config ('-' reads stdin)")
	fs.IntVar(&o.samples, "samples", 0, "integration intervals (overrides config)")
	fs.StringVar(&o.jsonPath, "json", "", "write a JSON report to this path")
	fs.StringVar(&o.csvPath, "csv", "", "write the sampled series as CSV to this path")
	fs.StringVar(&o.htmlPath, "html", "", "write an HTML chart to this path")
	fs.StringVar(&o.pngPath, "png", "", "write a PNG chart to this path")
	fs.StringVar(&o.histPath, "hist", "", "write the arrival histogram as CSV to this path (implies -arrivals)")
	fs.BoolVar(&o.withArrivals, "arrivals", false, "sample arrival times from the calibrated rate")
	fs.BoolVar(&o.homogeneous, "homogeneous", false, "also sample a constant-rate stream with the same target (implies -arrivals)")
	fs.BoolVar(&o.withSeries, "series", false, "include the sampled series in the JSON report")
	fs.Int64Var(&o.seed, "seed", config.DefaultSeed, "arrival sampler seed (overrides config)")
	fs.IntVar(&o.bins, "bins", config.DefaultBins, "arrival histogram bins (overrides config)")
	fs.BoolVar(&o.quiet, "quiet", false, "suppress diagnostic logging")
	fs.BoolVar(&o.verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	if o.histPath != "" || o.homogeneous {
		o.withArrivals = true
	}
	return o, nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func (e *env) loadConfig(o *options) (*config.AnalysisConfig, error) {
	ac := config.DefaultAnalysisConfig()
	if o.configPath != "" {
		loaded, err := config.LoadFS(e.fs, o.configPath)
		if err != nil {
			return nil, err
		}
		ac = loaded
	}
	if o.set["samples"] {
		ac.NumSamples = &o.samples
	}
	if o.set["seed"] {
		ac.Seed = &o.seed
	}
	if o.set["bins"] {
		ac.Bins = &o.bins
	}
	if err := ac.Validate(); err != nil {
		return nil, err
	}
	return ac, nil
}

func (e *env) readCode(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(e.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := e.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return string(data), nil
}

func (e *env) run(ctx context.Context, args []string) error {
	o, err := parseFlags(args, e.stderr)
	if err != nil {
		return err
	}
	if o.showVersion {
		_, err := fmt.Fprintln(e.stdout, version.String())
		return err
	}

	origLogger := monitoring.Logf
	defer monitoring.SetLogger(origLogger)
	if o.quiet {
		monitoring.SetLogger(nil)
	} else {
		logger := log.New(e.stderr, "", log.LstdFlags)
		monitoring.SetLogger(logger.Printf)
	}
	monitoring.SetVerbose(o.verbose && !o.quiet)
	defer monitoring.SetVerbose(false)
	start := e.clock.Now()

	ac, err := e.loadConfig(o)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	model := ac.ToModel()
	if o.codePath != "" {
		src, err := e.readCode(o.codePath)
		if err != nil {
			return err
		}
		u, err := expr.Extract(src)
		if err != nil {
			return fmt.Errorf("code: %w", err)
		}
		for _, pe := range u.Skipped {
			monitoring.Logf("code %s: skipped %v", o.codePath, pe)
		}
		if u.Empty() {
			monitoring.Logf("code %s: no recognised fields, keeping config", o.codePath)
		}
		model = u.Apply(model)
		monitoring.Debugf("merged code from %s: %d peaks", o.codePath, len(model.Peaks))
	}

	a, err := analysis.Run(model, analysis.OptionsFromConfig(ac))
	if err != nil {
		return err
	}
	if err := a.WriteSummary(e.stdout); err != nil {
		return err
	}

	var arr *report.ArrivalReport
	if o.withArrivals {
		arr, err = sampleArrivals(ctx, a, ac, o.homogeneous)
		if err != nil {
			return fmt.Errorf("arrivals: %w", err)
		}
		s := arr.Summary
		fmt.Fprintf(e.stdout, "\nSampled %d arrivals (seed %d): first=%.1f last=%.1f mean gap=%.2f min\n",
			s.Count, arr.Seed, s.First, s.Last, s.MeanGap)
		if h := arr.Homogeneous; h != nil {
			fmt.Fprintf(e.stdout, "Constant-rate stream: %d arrivals: first=%.1f last=%.1f mean gap=%.2f min\n",
				h.Count, h.First, h.Last, h.MeanGap)
		}
	}

	if err := e.writeOutputs(o, a, arr); err != nil {
		return err
	}
	monitoring.Debugf("finished in %v", e.clock.Since(start))
	return nil
}

func sampleArrivals(ctx context.Context, a analysis.Analysis, ac *config.AnalysisConfig, homogeneous bool) (*report.ArrivalReport, error) {
	seed := uint64(ac.GetSeed())
	scaled := a.ScaledConfig()
	sampler := arrivals.Sampler{Seed: seed, MaxRate: ac.GetMaxRate()}
	times, err := sampler.Generate(ctx, scaled)
	if err != nil {
		return nil, err
	}
	bins, err := arrivals.Histogram(times, scaled.TimeWindow, ac.GetBins())
	if err != nil {
		return nil, err
	}
	monitoring.Debugf("sampled %d arrivals over %d bins", len(times), len(bins))
	arr := &report.ArrivalReport{Seed: seed, Summary: arrivals.Summarize(times), Histogram: bins}

	if homogeneous {
		flat, err := sampler.Homogeneous(ctx, scaled)
		if err != nil {
			return nil, err
		}
		s := arrivals.Summarize(flat)
		arr.Homogeneous = &s
	}
	return arr, nil
}

func (e *env) writeOutputs(o *options, a analysis.Analysis, arr *report.ArrivalReport) error {
	if o.jsonPath != "" {
		doc := report.Builder{Clock: e.clock, IncludeSeries: o.withSeries}.Build(a, arr)
		if err := e.writeFile(o.jsonPath, func(w io.Writer) error { return report.WriteJSON(w, doc) }); err != nil {
			return err
		}
	}
	if o.csvPath != "" {
		if err := e.writeFile(o.csvPath, func(w io.Writer) error { return report.NewCSVWriter(w).WriteSeries(a) }); err != nil {
			return err
		}
	}
	if o.histPath != "" && arr != nil {
		if err := e.writeFile(o.histPath, func(w io.Writer) error { return report.NewCSVWriter(w).WriteHistogram(arr.Histogram) }); err != nil {
			return err
		}
	}
	if o.htmlPath != "" {
		var bins []arrivals.Bin
		if arr != nil {
			bins = arr.Histogram
		}
		if err := e.writeFile(o.htmlPath, func(w io.Writer) error { return chart.WriteHTML(w, a, bins) }); err != nil {
			return err
		}
	}
	if o.pngPath != "" {
		if err := chart.SavePNG(e.fs, o.pngPath, a); err != nil {
			return err
		}
		monitoring.Logf("wrote %s", o.pngPath)
	}
	return nil
}

func (e *env) writeFile(path string, write func(io.Writer) error) error {
	f, err := fsutil.CreateAll(e.fs, path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	monitoring.Logf("wrote %s", path)
	return nil
}
