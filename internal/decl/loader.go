package decl

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/buildvariant/internal/config"
	"github.com/specialistvlad/buildvariant/internal/ctxlog"
	"github.com/specialistvlad/buildvariant/internal/fsutil"
	"github.com/specialistvlad/buildvariant/internal/vars"
)

// Extensions lists the file extensions picked up when a directory is
// loaded.
var Extensions = []string{".gradle.kts", ".gradle", ".decl"}

// DefaultExternalRoots names the variable roots that are expected to be
// injected by the caller. A reference to one of them that was not supplied
// is reported by lint; other unknown references are silently kept raw.
var DefaultExternalRoots = []string{"flutter"}

// Loader is the declaration-dialect implementation of config.Loader.
type Loader struct {
	vars          *vars.Set
	externalRoots map[string]struct{}
}

// NewLoader creates a loader that evaluates values against v. When no
// external roots are given DefaultExternalRoots is used.
func NewLoader(v *vars.Set, externalRoots ...string) *Loader {
	if v == nil {
		v = vars.New()
	}
	if len(externalRoots) == 0 {
		externalRoots = DefaultExternalRoots
	}
	roots := make(map[string]struct{}, len(externalRoots))
	for _, r := range externalRoots {
		roots[r] = struct{}{}
	}
	return &Loader{vars: v, externalRoots: roots}
}

// Load parses every declaration file under paths, in order, into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Declaration loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered declaration files.", "count", len(files))

	model := &config.Model{}
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		m, err := l.Parse(ctx, file, src)
		if err != nil {
			return nil, err
		}
		model.Merge(m)
	}

	logger.Debug("Declaration loading complete.", "blocks", len(model.Blocks), "settings", model.SettingCount())
	return model, nil
}
