// Package config loads analysis settings from JSON or TOML files.
//
// Every field is optional; the Get* accessors fall back to the built-in
// defaults, so partial files are safe.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/banshee-data/rate.report/internal/expr"
	"github.com/banshee-data/rate.report/internal/fsutil"
	"github.com/banshee-data/rate.report/internal/integrator"
	"github.com/banshee-data/rate.report/internal/ratemodel"
)

// DefaultConfigPath is the path to the checked-in defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// MaxFileSize bounds config files read by Load.
const MaxFileSize = 1 * 1024 * 1024 // 1MB

// ErrUnsupportedFormat is returned for config paths that are neither .json
// nor .toml.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// AnalysisConfig is the file form of a rate model plus the knobs for the
// integrator, the arrival sampler and the code renderer.
type AnalysisConfig struct {
	// Rate model
	BaseRate    *float64         `json:"base_rate,omitempty" toml:"base_rate,omitempty"`
	TimeWindow  *float64         `json:"time_window,omitempty" toml:"time_window,omitempty"`
	TargetCount *float64         `json:"target_count,omitempty" toml:"target_count,omitempty"`
	Peaks       []ratemodel.Peak `json:"peaks,omitempty" toml:"peaks,omitempty"`

	// Integration
	NumSamples *int `json:"num_samples,omitempty" toml:"num_samples,omitempty"`

	// Arrival sampling
	Seed    *int64   `json:"seed,omitempty" toml:"seed,omitempty"`
	MaxRate *float64 `json:"max_rate,omitempty" toml:"max_rate,omitempty"` // 0 derives the bound from the rate
	Bins    *int     `json:"bins,omitempty" toml:"bins,omitempty"`

	// Rendering
	Constructor *string `json:"constructor,omitempty" toml:"constructor,omitempty"`
	ExpFunc     *string `json:"exp_func,omitempty" toml:"exp_func,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }
func ptrString(v string) *string    { return &v }

// FromModel returns an AnalysisConfig carrying every field of cfg.
func FromModel(cfg ratemodel.Config) *AnalysisConfig {
	c := cfg.Clone()
	return &AnalysisConfig{
		BaseRate:    ptrFloat64(c.BaseRate),
		TimeWindow:  ptrFloat64(c.TimeWindow),
		TargetCount: ptrFloat64(c.TargetCount),
		Peaks:       c.Peaks,
	}
}

// DefaultAnalysisConfig returns a config with every field populated.
func DefaultAnalysisConfig() *AnalysisConfig {
	c := FromModel(ratemodel.ResetDefaults())
	c.NumSamples = ptrInt(integrator.DefaultSamples)
	c.Seed = ptrInt64(DefaultSeed)
	c.MaxRate = ptrFloat64(0)
	c.Bins = ptrInt(DefaultBins)
	c.Constructor = ptrString(DefaultConstructor)
	c.ExpFunc = ptrString(DefaultExpFunc)
	return c
}

// Defaults for the non-model settings.
const (
	DefaultSeed        int64 = 1
	DefaultBins              = 20
	DefaultConstructor       = "PoissonOrderGenerator"
	DefaultExpFunc           = "np.exp"
)

// Load reads an AnalysisConfig from a .json or .toml file on disk.
func Load(path string) (*AnalysisConfig, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS reads an AnalysisConfig through fsys. The format is chosen by
// extension and the file must be under MaxFileSize.
func LoadFS(fsys fsutil.FileSystem, path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".toml" {
		return nil, fmt.Errorf("%w: config file must have .json or .toml extension, got %q", ErrUnsupportedFormat, ext)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", len(data), MaxFileSize)
	}

	cfg := &AnalysisConfig{}
	switch ext {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext[1:], err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching from the current
// directory up towards the repository root. Panics if the file is missing,
// intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Encode serialises c in the format implied by ext (".json" or ".toml").
func (c *AnalysisConfig) Encode(ext string) ([]byte, error) {
	switch ext {
	case ".json":
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Save writes c to path through fsys, choosing the format by extension.
func (c *AnalysisConfig) Save(fsys fsutil.FileSystem, path string) error {
	data, err := c.Encode(filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return fsys.WriteFile(path, data, 0o644)
}

// Validate checks the fields that are set. Model fields are checked by
// ratemodel.Config.Validate after defaults are applied.
func (c *AnalysisConfig) Validate() error {
	if err := c.ToModel().Validate(); err != nil {
		return err
	}
	if c.NumSamples != nil && *c.NumSamples <= 0 {
		return fmt.Errorf("%w: num_samples must be positive, got %d", ratemodel.ErrInvalidParameter, *c.NumSamples)
	}
	if c.MaxRate != nil && !(*c.MaxRate >= 0) {
		return fmt.Errorf("%w: max_rate must be non-negative, got %v", ratemodel.ErrInvalidParameter, *c.MaxRate)
	}
	if c.Bins != nil && *c.Bins <= 0 {
		return fmt.Errorf("%w: bins must be positive, got %d", ratemodel.ErrInvalidParameter, *c.Bins)
	}
	if c.Constructor != nil && *c.Constructor == "" {
		return fmt.Errorf("%w: constructor must not be empty", ratemodel.ErrInvalidParameter)
	}
	if c.ExpFunc != nil && !expr.IsExpFunc(*c.ExpFunc) {
		return fmt.Errorf("%w: exp_func %q is not an exp function", ratemodel.ErrInvalidParameter, *c.ExpFunc)
	}
	return nil
}

// ToModel builds the rate model, using defaults for unset fields. A nil
// Peaks keeps the default peaks; an empty, non-nil list means no peaks.
func (c *AnalysisConfig) ToModel() ratemodel.Config {
	out := ratemodel.ResetDefaults()
	if c.BaseRate != nil {
		out.BaseRate = *c.BaseRate
	}
	if c.TimeWindow != nil {
		out.TimeWindow = *c.TimeWindow
	}
	if c.TargetCount != nil {
		out.TargetCount = *c.TargetCount
	}
	if c.Peaks != nil {
		out.Peaks = append([]ratemodel.Peak{}, c.Peaks...)
	}
	return out
}

// GetNumSamples returns the num_samples value or the default.
func (c *AnalysisConfig) GetNumSamples() int {
	if c.NumSamples == nil {
		return integrator.DefaultSamples
	}
	return *c.NumSamples
}

// GetSeed returns the seed value or the default.
func (c *AnalysisConfig) GetSeed() int64 {
	if c.Seed == nil {
		return DefaultSeed
	}
	return *c.Seed
}

// GetMaxRate returns the max_rate value, zero meaning derived.
func (c *AnalysisConfig) GetMaxRate() float64 {
	if c.MaxRate == nil {
		return 0
	}
	return *c.MaxRate
}

// GetBins returns the bins value or the default.
func (c *AnalysisConfig) GetBins() int {
	if c.Bins == nil {
		return DefaultBins
	}
	return *c.Bins
}

// GetConstructor returns the constructor value or the default.
func (c *AnalysisConfig) GetConstructor() string {
	if c.Constructor == nil {
		return DefaultConstructor
	}
	return *c.Constructor
}

// GetExpFunc returns the exp_func value or the default.
func (c *AnalysisConfig) GetExpFunc() string {
	if c.ExpFunc == nil {
		return DefaultExpFunc
	}
	return *c.ExpFunc
}
