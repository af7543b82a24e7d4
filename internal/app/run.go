package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/buildvariant/internal/ctxlog"
	"github.com/specialistvlad/buildvariant/internal/render"
	"github.com/specialistvlad/buildvariant/internal/resolver"
)

// ErrLintFailed is returned by Run in strict mode when lint reported
// warnings. The resolved configuration has still been written.
var ErrLintFailed = errors.New("lint reported warnings")

// Run loads the build descriptions, resolves them and writes the result.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	model, err := a.Load(ctx)
	if err != nil {
		return err
	}
	if model.SettingCount() == 0 {
		a.logger.Warn("No settings found, nothing to resolve.", "paths", a.config.Paths)
	}

	var result render.Result
	switch chain := a.config.Chain(); {
	case len(chain) > 0:
		a.logger.Debug("Resolving variant.", "chain", chain)
		result.Variant = chain
		result.Settings = resolver.ResolveVariant(model.Blocks, chain...)
	case a.config.Flat:
		a.logger.Debug("Resolving all blocks into one flat configuration.")
		result.Settings = resolver.Resolve(model.Blocks)
	default:
		a.logger.Debug("Resolving every scope independently.", "scopes", len(model.Scopes()))
		result.Scopes = resolver.ResolveScoped(model.Blocks)
	}

	if a.config.Lint {
		result.Warnings = resolver.Lint(model.Blocks)
		for _, w := range result.Warnings {
			a.logger.Warn("Lint warning.", "kind", w.Kind, "scope", w.Scope, "key", w.Key, "positions", len(w.Positions))
		}
	}

	format, err := render.ParseFormat(a.config.Format)
	if err != nil {
		return err
	}
	if err := render.Write(a.outW, format, result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if a.config.Strict && len(result.Warnings) > 0 {
		return fmt.Errorf("%w: %d warning(s)", ErrLintFailed, len(result.Warnings))
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}
