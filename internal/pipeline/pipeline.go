// Package pipeline runs the restructuring phases strictly in order. There is
// no concurrency anywhere in the pipeline: every phase runs to completion
// before the next starts, the first failure halts the run, and the
// checkpoint records which phases completed so an operator can resolve the
// problem and resume.
package pipeline

import (
	"context"
	"fmt"

	"github.com/vk/restack/internal/checkpoint"
	"github.com/vk/restack/internal/config"
	"github.com/vk/restack/internal/ctxlog"
)

// Workspace carries everything a phase needs: the resolved plan, the project
// root, the selected environment, and the checkpoint state.
type Workspace struct {
	Root        string
	Plan        *config.Plan
	Environment string
	DryRun      bool
	State       *checkpoint.State
	StatePath   string
}

// Phase is one step of the restructuring sequence.
type Phase interface {
	// Name identifies the phase in logs and in the checkpoint.
	Name() string
	// Run performs the phase's work. Any error is fatal to the run.
	Run(ctx context.Context, ws *Workspace) error
}

// Runner executes phases sequentially, recording a checkpoint after each.
type Runner struct {
	phases []Phase
	resume bool
}

// NewRunner creates a sequential phase runner. With resume set, phases
// already recorded as complete in the workspace checkpoint are skipped.
func NewRunner(resume bool, phases ...Phase) *Runner {
	return &Runner{phases: phases, resume: resume}
}

// Run executes every phase in order. The returned error names the failing
// phase and wraps its cause; phases after the failure never run.
func (r *Runner) Run(ctx context.Context, ws *Workspace) error {
	logger := ctxlog.FromContext(ctx)

	for _, phase := range r.phases {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := phase.Name()
		if r.resume && ws.State != nil && ws.State.Done(name) {
			logger.Info("⏭️ Phase already completed, skipping.", "phase", name)
			continue
		}

		logger.Info("▶️ Starting phase", "phase", name)
		if err := phase.Run(ctx, ws); err != nil {
			logger.Error("Phase failed.", "phase", name, "error", err)
			return fmt.Errorf("phase %s failed: %w", name, err)
		}
		logger.Info("✅ Phase complete", "phase", name)

		if ws.State != nil && !ws.DryRun {
			ws.State.MarkDone(name)
			if err := checkpoint.Save(ws.StatePath, ws.State); err != nil {
				return fmt.Errorf("recording checkpoint after phase %s: %w", name, err)
			}
		}
	}

	logger.Info("🏁 All phases complete.")
	return nil
}
