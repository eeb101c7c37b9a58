// Package verify runs the project's external verification commands in fixed
// order: dependency install, build, infrastructure synthesis, then the test
// suite. Each step is an atomic pass/fail; the first failure stops the
// sequence and reports the step with its captured output. There are no
// retries: these are deterministic developer-tool invocations, not flaky
// network operations.
package verify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/vk/restack/internal/config"
	"github.com/vk/restack/internal/ctxlog"
	"github.com/vk/restack/internal/pipeline"
)

// Step is one external command of the verification sequence.
type Step struct {
	Name string
	Argv []string
}

// StepError reports which step failed, its exit code, and everything it
// printed.
type StepError struct {
	Step     string
	ExitCode int
	Output   string
	Err      error
}

// Error implements the error interface for StepError.
func (e *StepError) Error() string {
	return fmt.Sprintf("verification step %s failed (exit code %d)", e.Step, e.ExitCode)
}

// Unwrap returns the underlying command error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Steps expands the plan's verify block into the ordered step list. Steps
// with an empty argv are disabled and omitted.
func Steps(v *config.Verify) []Step {
	if v == nil {
		return nil
	}
	var steps []Step
	for _, s := range []Step{
		{Name: "install", Argv: v.Install},
		{Name: "build", Argv: v.Build},
		{Name: "synth", Argv: v.Synth},
		{Name: "test", Argv: v.Test},
	} {
		if len(s.Argv) > 0 {
			steps = append(steps, s)
		}
	}
	return steps
}

// Runner executes verification steps in a working directory.
type Runner struct {
	// Dir is the directory every command runs in.
	Dir string
	// Environment, when set, is exported to the commands as RESTACK_ENV.
	Environment string
}

// Run executes the steps in order, stopping at the first failure.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	logger := ctxlog.FromContext(ctx)

	for _, step := range steps {
		logger.Info("▶️ Running verification step", "step", step.Name, "command", strings.Join(step.Argv, " "))

		cmd := exec.CommandContext(ctx, step.Argv[0], step.Argv[1:]...)
		cmd.Dir = r.Dir
		cmd.Env = os.Environ()
		if r.Environment != "" {
			cmd.Env = append(cmd.Env, "RESTACK_ENV="+r.Environment)
		}

		output, err := cmd.CombinedOutput()
		if err != nil {
			code := -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			}
			logger.Error("Verification step failed.", "step", step.Name, "exit_code", code)
			return &StepError{Step: step.Name, ExitCode: code, Output: string(output), Err: err}
		}
		logger.Info("✅ Verification step passed", "step", step.Name)
	}

	return nil
}

// Phase runs the plan's verification sequence as the final pipeline phase.
type Phase struct{}

// NewPhase creates the verify phase.
func NewPhase() *Phase {
	return &Phase{}
}

// Name implements pipeline.Phase.
func (p *Phase) Name() string { return "verify" }

// Run implements pipeline.Phase.
func (p *Phase) Run(ctx context.Context, ws *pipeline.Workspace) error {
	logger := ctxlog.FromContext(ctx)

	steps := Steps(ws.Plan.Verify)
	if len(steps) == 0 {
		logger.Info("No verification steps configured, skipping.")
		return nil
	}
	if ws.DryRun {
		for _, step := range steps {
			logger.Info("Would run verification step.", "step", step.Name, "command", strings.Join(step.Argv, " "))
		}
		return nil
	}

	runner := &Runner{Dir: ws.Root, Environment: ws.Environment}
	return runner.Run(ctx, steps)
}
