package config

import "context"

// Loader is the interface for a format-specific build description loader.
type Loader interface {
	// Load reads every build description found under the given paths and
	// translates it into the format-agnostic model. Settings keep their
	// declaration order.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
