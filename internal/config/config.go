// Package config loads spvopt.toml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/xyproto/env/v2"

	"spvopt/internal/opt"
	"spvopt/internal/trace"
)

// FileName is the configuration file looked up by Find.
const FileName = "spvopt.toml"

// Environment variables read by ApplyEnv.
const (
	EnvPasses         = "SPVOPT_PASSES"
	EnvRemapLenient   = "SPVOPT_REMAP_LENIENT"
	EnvMaxDiagnostics = "SPVOPT_MAX_DIAGNOSTICS"
	EnvTraceLevel     = "SPVOPT_TRACE_LEVEL"
	EnvCacheDir       = "SPVOPT_CACHE_DIR"
)

// ErrUnknownKey is returned when a file sets a key no section defines.
var ErrUnknownKey = errors.New("unknown configuration key")

type Config struct {
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Remap       RemapConfig       `toml:"remap"`
	Input       InputConfig       `toml:"input"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Cache       CacheConfig       `toml:"cache"`
	Trace       TraceConfig       `toml:"trace"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

type PipelineConfig struct {
	Passes []string `toml:"passes"`
}

type RemapConfig struct {
	Lenient bool `toml:"lenient"`
}

type InputConfig struct {
	// Versions is a semver constraint on the module version, e.g. ">=1.3".
	Versions string `toml:"versions"`
}

type DiagnosticsConfig struct {
	Max int `toml:"max"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
	// Mode is stream, ring (keep events in memory and write those of
	// failed modules) or both.
	Mode string `toml:"mode"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Pipeline:    PipelineConfig{Passes: slices.Clone(opt.DefaultPipeline)},
		Diagnostics: DiagnosticsConfig{Max: 100},
		Trace:       TraceConfig{Level: "off", Output: "-", Mode: "stream"},
	}
}

// Find walks up from startDir to locate spvopt.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	cfg.Path = path
	return cfg, nil
}

// Resolve loads the explicit path if given, otherwise the nearest
// spvopt.toml above startDir, otherwise the defaults. Environment overrides
// are applied and the result is validated.
func Resolve(explicit, startDir string) (Config, error) {
	cfg := Default()
	path := explicit
	if path == "" {
		found, ok, err := Find(startDir)
		if err != nil {
			return Config{}, err
		}
		if ok {
			path = found
		}
	}
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SPVOPT_* variables that are set.
func (c *Config) ApplyEnv() error {
	if env.Has(EnvPasses) {
		c.Pipeline.Passes = SplitPasses(env.Str(EnvPasses))
	}
	if env.Has(EnvRemapLenient) {
		c.Remap.Lenient = env.Bool(EnvRemapLenient)
	}
	if env.Has(EnvMaxDiagnostics) {
		n := env.Int(EnvMaxDiagnostics, -1)
		if n < 0 {
			return fmt.Errorf("%s: want a non-negative integer, got %q", EnvMaxDiagnostics, env.Str(EnvMaxDiagnostics))
		}
		c.Diagnostics.Max = n
	}
	if env.Has(EnvTraceLevel) {
		c.Trace.Level = env.Str(EnvTraceLevel)
	}
	if env.Has(EnvCacheDir) {
		c.Cache.Dir = env.Str(EnvCacheDir)
		c.Cache.Enabled = true
	}
	return nil
}

// SplitPasses parses a comma separated pass list.
func SplitPasses(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks every field that can be wrong independently and reports
// all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Pipeline.Passes) == 0 {
		errs = append(errs, errors.New("[pipeline].passes is empty"))
	}
	for _, name := range c.Pipeline.Passes {
		if _, err := opt.Lookup(name, opt.Options{}); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := c.VersionConstraint(); err != nil {
		errs = append(errs, err)
	}
	if c.Diagnostics.Max < 0 {
		errs = append(errs, fmt.Errorf("[diagnostics].max must not be negative, got %d", c.Diagnostics.Max))
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("[trace].level: %w", err))
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		errs = append(errs, fmt.Errorf("[trace].mode: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		if c.Path != "" {
			return fmt.Errorf("%s: %w", c.Path, err)
		}
		return err
	}
	return nil
}

// VersionConstraint parses [input].versions. An empty constraint accepts
// every version and yields nil.
func (c *Config) VersionConstraint() (*semver.Constraints, error) {
	expr := strings.TrimSpace(c.Input.Versions)
	if expr == "" {
		return nil, nil
	}
	con, err := semver.NewConstraint(expr)
	if err != nil {
		return nil, fmt.Errorf("[input].versions %q: %w", expr, err)
	}
	return con, nil
}

// CacheDir returns the cache directory, defaulting to the user cache.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "spvopt"), nil
}
