package scaffold

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/vk/restack/internal/config"
	"github.com/vk/restack/internal/ctxlog"
	"github.com/vk/restack/internal/fsutil"
	"github.com/vk/restack/internal/pipeline"
)

// Phase materializes the plan's directories and documentation files.
type Phase struct{}

// NewPhase creates the scaffold phase.
func NewPhase() *Phase {
	return &Phase{}
}

// Name implements pipeline.Phase.
func (p *Phase) Name() string { return "scaffold" }

// Run implements pipeline.Phase.
func (p *Phase) Run(ctx context.Context, ws *pipeline.Workspace) error {
	return Materialize(ctx, ws.Root, ws.Plan, ws.DryRun)
}

// Materialize creates every plan directory that does not already exist and
// renders the plan's documentation files. It is idempotent; a second
// application is a no-op. Failures are *fsutil.IOError and fatal: the caller must
// not continue with a partially materialized tree.
func Materialize(ctx context.Context, root string, plan *config.Plan, dryRun bool) error {
	logger := ctxlog.FromContext(ctx)

	for _, dir := range plan.Directories {
		target := filepath.Join(root, dir.Path)
		if dryRun {
			logger.Info("Would create directory.", "path", dir.Path)
			continue
		}
		if err := ensureDir(target); err != nil {
			return err
		}
		logger.Debug("Directory ensured.", "path", dir.Path)

		if dir.Purpose != "" {
			content, err := renderReadme(dir)
			if err != nil {
				return err
			}
			if err := writeIfChanged(filepath.Join(target, "README.md"), content); err != nil {
				return err
			}
		}
		if dir.GitKeep {
			if err := writeIfChanged(filepath.Join(target, ".gitkeep"), nil); err != nil {
				return err
			}
		}
	}

	for _, doc := range plan.Docs {
		content, err := renderDoc(plan, doc)
		if err != nil {
			return err
		}
		if dryRun {
			logger.Info("Would write doc.", "name", doc.Name, "template", doc.Template)
			continue
		}
		if err := writeIfChanged(filepath.Join(root, doc.Name), content); err != nil {
			return err
		}
		logger.Debug("Doc ensured.", "name", doc.Name)
	}

	return nil
}

// ensureDir creates the directory if absent. A path occupied by a
// non-directory is an *fsutil.IOError: silently writing next to it would hide a
// conflict the operator has to resolve.
func ensureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return &fsutil.IOError{Op: "create directory", Path: path, Err: fsutil.ErrNotADirectory}
		}
		return nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return &fsutil.IOError{Op: "create directory", Path: path, Err: err}
		}
		return nil
	default:
		return &fsutil.IOError{Op: "stat", Path: path, Err: err}
	}
}

// writeIfChanged writes content to path unless the file already holds
// exactly that content. This keeps repeated runs from touching mtimes.
func writeIfChanged(path string, content []byte) error {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return &fsutil.IOError{Op: "read", Path: path, Err: err}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return &fsutil.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
