package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/buildvariant/internal/config"
	"github.com/specialistvlad/buildvariant/internal/ctxlog"
	"github.com/specialistvlad/buildvariant/internal/decl"
	"github.com/specialistvlad/buildvariant/internal/hcl"
	"github.com/specialistvlad/buildvariant/internal/vars"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	vars    *vars.Set
	loaders []config.Loader
}

// NewApp is the constructor for the main application. Resolved output goes
// to outW and logs to logW. When no loaders are given the declaration and
// HCL loaders are used, both evaluating against the configured variables.
func NewApp(outW, logW io.Writer, cfg *Config, loaders ...config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	v := vars.New()
	for _, path := range cfg.VarFiles {
		if err := v.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := v.ParseAssignments(cfg.Vars); err != nil {
		return nil, err
	}
	logger.Debug("External variables injected.", "roots", v.Len(), "files", len(cfg.VarFiles))

	if len(loaders) == 0 {
		loaders = []config.Loader{
			decl.NewLoader(v, cfg.ExternalRoots...),
			hcl.NewLoader(v),
		}
	}

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		vars:    v,
		loaders: loaders,
	}, nil
}

// Load runs every loader over the configured paths and concatenates the
// resulting models in loader order.
func (a *App) Load(ctx context.Context) (*config.Model, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	model := &config.Model{}
	for _, loader := range a.loaders {
		m, err := loader.Load(ctx, a.config.Paths...)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		model.Merge(m)
	}
	a.logger.Debug("Configuration loaded into unified model.", "blocks", len(model.Blocks), "settings", model.SettingCount())
	return model, nil
}
