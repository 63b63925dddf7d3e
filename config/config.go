// Package config loads solver settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/notargets/wingcoords/component"
	"github.com/notargets/wingcoords/newton"
	"github.com/notargets/wingcoords/patch"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "WINGCOORDS_"

// NewtonConfig holds the optimizer settings. Zero values select the
// optimizer defaults.
type NewtonConfig struct {
	GradTol       float64 `yaml:"grad_tol"`
	ValueTol      float64 `yaml:"value_tol"`
	MaxIter       int     `yaml:"max_iter"`
	StepSize      float64 `yaml:"step_size"`
	ArmijoC       float64 `yaml:"armijo_c"`
	Shrink        float64 `yaml:"shrink"`
	MaxBacktracks int     `yaml:"max_backtracks"`
	SingularTol   float64 `yaml:"singular_tol"`
	Strict        bool    `yaml:"strict"`
}

// LocatorConfig configures segment location.
type LocatorConfig struct {
	MaxDeviation float64 `yaml:"max_deviation"`
	// SeedSteps is the seed grid resolution; negative starts at (0,0).
	SeedSteps int `yaml:"seed_steps"`
}

// EdgesConfig selects the edge line construction.
type EdgesConfig struct {
	Wire string `yaml:"wire"`
}

// BatchConfig configures many-point evaluation.
type BatchConfig struct {
	Workers  int      `yaml:"workers"`
	Device   bool     `yaml:"device"`
	Backends []string `yaml:"backends,omitempty"`
}

// Config is the root configuration.
type Config struct {
	Newton  NewtonConfig  `yaml:"newton"`
	Locator LocatorConfig `yaml:"locator"`
	Edges   EdgesConfig   `yaml:"edges"`
	Batch   BatchConfig   `yaml:"batch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a config from path. If the file does not exist, returns
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadWithEnv loads path, then overlays the environment after reading the
// optional dotenv files (".env" when none are named). Variables already
// set in the process win over dotenv files.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: env file %s: %w", f, err)
		}
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyDefaults(cfg *Config) {
	def := newton.DefaultOptions()
	n := &cfg.Newton
	if n.GradTol <= 0 {
		n.GradTol = def.GradTol
	}
	if n.ValueTol <= 0 {
		n.ValueTol = def.ValueTol
	}
	if n.MaxIter <= 0 {
		n.MaxIter = def.MaxIter
	}
	if n.StepSize <= 0 {
		n.StepSize = def.StepSize
	}
	if n.ArmijoC <= 0 || n.ArmijoC >= 1 {
		n.ArmijoC = def.ArmijoC
	}
	if n.Shrink <= 0 || n.Shrink >= 1 {
		n.Shrink = def.Shrink
	}
	if n.MaxBacktracks <= 0 {
		n.MaxBacktracks = def.MaxBacktracks
	}
	if n.SingularTol <= 0 {
		n.SingularTol = def.SingularTol
	}
	if cfg.Locator.MaxDeviation <= 0 {
		cfg.Locator.MaxDeviation = component.DefaultMaxDeviation
	}
	if cfg.Locator.SeedSteps == 0 {
		cfg.Locator.SeedSteps = patch.DefaultSeedSteps
	}
	if cfg.Edges.Wire == "" {
		cfg.Edges.Wire = component.WireLinear.String()
	}
}

// ApplyEnv overrides settings from WINGCOORDS_* environment variables:
// GRAD_TOL, VALUE_TOL, MAX_ITER, STRICT, MAX_DEVIATION, SEED_STEPS, WIRE,
// WORKERS and DEVICE. Empty variables are ignored.
func (cfg *Config) ApplyEnv() error {
	floatVars := map[string]*float64{
		"GRAD_TOL":      &cfg.Newton.GradTol,
		"VALUE_TOL":     &cfg.Newton.ValueTol,
		"MAX_DEVIATION": &cfg.Locator.MaxDeviation,
	}
	for name, dst := range floatVars {
		if v, ok := lookup(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}
	intVars := map[string]*int{
		"MAX_ITER":   &cfg.Newton.MaxIter,
		"SEED_STEPS": &cfg.Locator.SeedSteps,
		"WORKERS":    &cfg.Batch.Workers,
	}
	for name, dst := range intVars {
		if v, ok := lookup(name); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
			}
			*dst = i
		}
	}
	boolVars := map[string]*bool{
		"STRICT": &cfg.Newton.Strict,
		"DEVICE": &cfg.Batch.Device,
	}
	for name, dst := range boolVars {
		if v, ok := lookup(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}
	if v, ok := lookup("WIRE"); ok {
		cfg.Edges.Wire = v
	}
	applyDefaults(cfg)
	return nil
}

func lookup(name string) (string, bool) {
	v := os.Getenv(EnvPrefix + name)
	return v, v != ""
}

// NewtonOptions converts the optimizer settings.
func (cfg *Config) NewtonOptions() newton.Options {
	n := cfg.Newton
	return newton.Options{
		GradTol:       n.GradTol,
		ValueTol:      n.ValueTol,
		MaxIter:       n.MaxIter,
		StepSize:      n.StepSize,
		ArmijoC:       n.ArmijoC,
		Shrink:        n.Shrink,
		MaxBacktracks: n.MaxBacktracks,
		SingularTol:   n.SingularTol,
		Strict:        n.Strict,
	}
}

// PatchOptions returns the translator settings.
func (cfg *Config) PatchOptions() patch.Options {
	return patch.Options{Newton: cfg.NewtonOptions(), SeedSteps: cfg.Locator.SeedSteps}
}

// ComponentOptions returns the component settings.
func (cfg *Config) ComponentOptions() component.Options {
	return component.Options{Patch: cfg.PatchOptions(), MaxDeviation: cfg.Locator.MaxDeviation}
}

// WireStrategy returns the configured edge line strategy.
func (cfg *Config) WireStrategy() (component.WireStrategy, error) {
	w, err := component.ParseWireStrategy(cfg.Edges.Wire)
	if err != nil {
		return w, fmt.Errorf("config: edges: %w", err)
	}
	return w, nil
}
