package config

import "context"

// Loader is the interface for a format-specific plan loader.
type Loader interface {
	// Load reads a plan from the given path, which may be a single file or
	// a directory of plan files, and translates it into the
	// format-agnostic model.
	Load(ctx context.Context, path string) (*Plan, error)
}
