package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/restack/internal/config"
	"github.com/vk/restack/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	plan   *config.Plan
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and the loaded plan.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// A failure to load the plan is a fatal startup error.
	plan, err := loader.Load(ctx, appConfig.PlanPath)
	if err != nil {
		panic(fmt.Errorf("failed to load plan: %w", err))
	}
	logger.Debug("Plan loaded and translated into unified model.", "project", plan.Project.Name)

	if appConfig.Environment != "" {
		if _, err := plan.Environment(appConfig.Environment); err != nil {
			// Selecting an environment the plan does not declare is a
			// startup error, not something to discover mid-pipeline.
			panic(err)
		}
	}

	return &App{
		outW:   outW,
		logger: logger,
		plan:   plan,
	}
}

// Plan returns the loaded plan. This is primarily for testing.
func (a *App) Plan() *config.Plan {
	return a.plan
}
