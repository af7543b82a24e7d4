package app

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/specialistvlad/buildvariant/internal/decl"
	"github.com/specialistvlad/buildvariant/internal/render"
	"github.com/specialistvlad/buildvariant/internal/resolver"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths []string // build description files or directories

	Format string `env:"FORMAT"`

	// Variant is an explicit scope chain. BuildType and Flavors describe an
	// Android variant instead and are ignored when Variant is set.
	Variant   []string `env:"VARIANT" envSeparator:","`
	BuildType string   `env:"BUILD_TYPE"`
	Flavors   []string `env:"FLAVORS" envSeparator:","`
	Root      string   `env:"ROOT"`
	Flat      bool     `env:"FLAT"`

	Vars          []string // name=value
	VarFiles      []string `env:"VAR_FILES" envSeparator:","`
	ExternalRoots []string `env:"EXTERNAL_ROOTS" envSeparator:","`

	Lint   bool `env:"LINT"`
	Strict bool `env:"STRICT"`

	LogFormat string `env:"LOG_FORMAT"`
	LogLevel  string `env:"LOG_LEVEL"`
}

// EnvPrefix prefixes every environment variable read by ConfigFromEnv.
const EnvPrefix = "BUILDVARIANT_"

// DefaultConfig returns the base layer every configuration is merged onto.
func DefaultConfig() Config {
	return Config{
		Format:        string(render.FormatJSON),
		ExternalRoots: decl.DefaultExternalRoots,
		LogFormat:     "text",
		LogLevel:      "warn",
	}
}

// ConfigFromEnv reads the BUILDVARIANT_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("error getting env configs: %w", err)
	}
	return cfg, nil
}

// Switch sets a field after the layers are merged. mergo never lets a zero
// value override, so a switch is how an explicit `-strict=false` turns off
// BUILDVARIANT_STRICT=true.
type Switch func(*Config)

// NewConfig merges the given layers, in order, onto DefaultConfig and
// validates the result. Non-zero fields of a later layer override earlier
// ones.
func NewConfig(layers ...Config) (*Config, error) {
	return BuildConfig(layers)
}

// BuildConfig merges layers like NewConfig and applies switches, in order,
// before validating.
func BuildConfig(layers []Config, switches ...Switch) (*Config, error) {
	cfg := DefaultConfig()
	for _, layer := range layers {
		if err := mergo.Merge(&cfg, layer, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}
	for _, sw := range switches {
		sw(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if len(c.Paths) == 0 {
		errs = append(errs, errors.New("at least one build description path is required"))
	}
	if _, err := render.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, errors.New("invalid log-format: must be 'text' or 'json'"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'"))
	}
	if c.Flat && (len(c.Variant) > 0 || c.BuildType != "" || len(c.Flavors) > 0) {
		errs = append(errs, errors.New("flat resolution cannot be combined with a variant"))
	}
	if c.Strict {
		c.Lint = true
	}
	return errors.Join(errs...)
}

// Chain returns the scope chain to resolve, or nil when no variant was
// requested.
func (c *Config) Chain() []string {
	if len(c.Variant) > 0 {
		return c.Variant
	}
	if c.BuildType != "" || len(c.Flavors) > 0 {
		return resolver.VariantChain(c.Root, c.BuildType, c.Flavors...)
	}
	return nil
}
