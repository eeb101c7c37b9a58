package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PlanPath is an .hcl plan file or a directory of plan files.
	PlanPath string
	// Root overrides the project root; empty falls back to the plan's
	// project root, then to the current directory.
	Root string
	// Environment selects which environment this run targets. Empty skips
	// environment-bound work (the preflight account check).
	Environment string

	DryRun           bool
	SkipAccountCheck bool
	Resume           bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
