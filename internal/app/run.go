package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/restack/internal/awsident"
	"github.com/vk/restack/internal/checkpoint"
	"github.com/vk/restack/internal/ctxlog"
	"github.com/vk/restack/internal/pipeline"
	"github.com/vk/restack/internal/relocate"
	"github.com/vk/restack/internal/scaffold"
	"github.com/vk/restack/internal/verify"
)

// Run executes the restructuring pipeline based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	root := appConfig.Root
	if root == "" {
		root = a.plan.Project.Root
	}
	if root == "" {
		root = "."
	}

	ws, err := a.buildWorkspace(ctx, root, appConfig)
	if err != nil {
		return err
	}

	phases, err := a.buildPhases(ctx, appConfig)
	if err != nil {
		return err
	}

	a.logger.Info("🚀 Starting restructuring run.",
		"project", a.plan.Project.Name,
		"root", ws.Root,
		"environment", appConfig.Environment,
		"dry_run", appConfig.DryRun,
	)

	runner := pipeline.NewRunner(appConfig.Resume, phases...)
	if err := runner.Run(ctx, ws); err != nil {
		return fmt.Errorf("restructuring failed: %w", err)
	}

	a.logger.Info("🏁 Restructuring finished.")
	return nil
}

// buildWorkspace assembles the pipeline workspace, loading or creating the
// checkpoint state. An existing checkpoint for a different plan or
// environment is discarded.
func (a *App) buildWorkspace(ctx context.Context, root string, appConfig *Config) (*pipeline.Workspace, error) {
	statePath := filepath.Join(root, checkpoint.FileName)

	state, err := checkpoint.Load(statePath)
	if err != nil {
		return nil, err
	}
	if state != nil && !state.Matches(appConfig.PlanPath, appConfig.Environment) {
		a.logger.Warn("Checkpoint belongs to a different plan or environment, starting fresh.",
			"previous_plan", state.PlanPath, "previous_environment", state.Environment)
		state = nil
	}
	if state == nil {
		state = checkpoint.New(appConfig.PlanPath, appConfig.Environment)
	}
	a.logger.Debug("Workspace prepared.", "run_id", state.RunID, "state_path", statePath)

	return &pipeline.Workspace{
		Root:        root,
		Plan:        a.plan,
		Environment: appConfig.Environment,
		DryRun:      appConfig.DryRun,
		State:       state,
		StatePath:   statePath,
	}, nil
}

// buildPhases assembles the fixed phase sequence: preflight, scaffold,
// relocate, verify. Preflight only participates when an environment is
// selected and the account check is neither skipped nor dry-run.
func (a *App) buildPhases(ctx context.Context, appConfig *Config) ([]pipeline.Phase, error) {
	var phases []pipeline.Phase

	if appConfig.Environment != "" && !appConfig.SkipAccountCheck && !appConfig.DryRun {
		env, err := a.plan.Environment(appConfig.Environment)
		if err != nil {
			return nil, err
		}
		guard, err := awsident.NewGuardFromEnv(ctx, env)
		if err != nil {
			return nil, err
		}
		phases = append(phases, awsident.NewPhase(guard))
	}

	phases = append(phases,
		scaffold.NewPhase(),
		relocate.NewPhase(),
		verify.NewPhase(),
	)
	return phases, nil
}
