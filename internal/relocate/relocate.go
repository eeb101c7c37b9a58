// Package relocate moves source subtrees to their new home and rewrites the
// import specifiers that referenced the old location. Any reference that
// cannot be unambiguously rewritten halts the phase with a *ReferenceError;
// nothing is ever silently skipped.
package relocate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/vk/restack/internal/config"
	"github.com/vk/restack/internal/ctxlog"
	"github.com/vk/restack/internal/fsutil"
	"github.com/vk/restack/internal/pipeline"
)

// sourceExtensions are the file types whose import specifiers get rewritten.
var sourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// skippedDirs are tree parts never scanned: third-party code, VCS metadata,
// and build output.
var skippedDirs = []string{"node_modules", ".git", "cdk.out", "dist"}

// Phase applies every move in the plan, then checks that deployable units
// remain self-contained.
type Phase struct{}

// NewPhase creates the relocate phase.
func NewPhase() *Phase {
	return &Phase{}
}

// Name implements pipeline.Phase.
func (p *Phase) Name() string { return "relocate" }

// Run implements pipeline.Phase.
func (p *Phase) Run(ctx context.Context, ws *pipeline.Workspace) error {
	for _, move := range ws.Plan.Moves {
		if err := Relocate(ctx, ws.Root, move, ws.DryRun); err != nil {
			return err
		}
	}
	if ws.DryRun {
		return nil
	}
	return CheckUnitIsolation(ctx, ws.Root, ws.Plan.Functions)
}

// Relocate moves one subtree and rewrites every import specifier that
// referenced it. The sequence is: flag unrewritable references, move, rewrite,
// then verify no reference to the old location survives. A move whose source
// is gone but whose destination exists is treated as already applied.
func Relocate(ctx context.Context, root string, move *config.Move, dryRun bool) error {
	logger := ctxlog.FromContext(ctx).With("from", move.From, "to", move.To)

	src := filepath.Join(root, move.From)
	dst := filepath.Join(root, move.To)
	rw := newRewriter(move.From, move.To)

	if _, err := os.Stat(src); err != nil {
		if !os.IsNotExist(err) {
			return &fsutil.IOError{Op: "stat", Path: src, Err: err}
		}
		if _, dstErr := os.Stat(dst); dstErr == nil {
			// The subtree sits at its destination already, but a previous
			// run may have stopped before the rewrite: finish it. The
			// rewrite is idempotent, specifiers already pointing at the new
			// location no longer match the old prefix.
			logger.Info("Source already moved, completing the rewrite.")
			return finishMove(ctx, root, move, rw, dryRun)
		}
		return &fsutil.IOError{Op: "move", Path: src, Err: os.ErrNotExist}
	}
	if _, err := os.Stat(dst); err == nil {
		return &fsutil.IOError{Op: "move", Path: dst, Err: errors.New("destination already exists")}
	}

	if move.RewriteImports {
		if err := flagDynamicReferences(ctx, root, rw); err != nil {
			return err
		}
	}

	if dryRun {
		logger.Info("Would move subtree.")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &fsutil.IOError{Op: "create directory", Path: filepath.Dir(dst), Err: err}
	}
	if err := os.Rename(src, dst); err != nil {
		return &fsutil.IOError{Op: "move", Path: src, Err: err}
	}
	logger.Info("Subtree moved.")

	if !move.RewriteImports {
		return nil
	}

	if err := rewriteTree(ctx, root, rw); err != nil {
		return err
	}
	return CheckDangling(ctx, root, move.From)
}

// finishMove rewrites references for a move whose subtree already sits at
// its destination, then verifies nothing still resolves into the old
// location.
func finishMove(ctx context.Context, root string, move *config.Move, rw *rewriter, dryRun bool) error {
	if !move.RewriteImports {
		return nil
	}
	if err := flagDynamicReferences(ctx, root, rw); err != nil {
		return err
	}
	if dryRun {
		return nil
	}
	if err := rewriteTree(ctx, root, rw); err != nil {
		return err
	}
	return CheckDangling(ctx, root, move.From)
}

// flagDynamicReferences scans the whole tree for dynamically constructed
// import paths that mention the moved directory, before anything is touched.
func flagDynamicReferences(ctx context.Context, root string, rw *rewriter) error {
	files, err := fsutil.FindSourceFiles(root, sourceExtensions, skippedDirs)
	if err != nil {
		return err
	}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return &fsutil.IOError{Op: "read", Path: file, Err: err}
		}
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return err
		}
		if refErr := rw.findDynamicReferences(filepath.ToSlash(rel), string(content)); refErr != nil {
			return refErr
		}
	}
	return nil
}

// rewriteTree applies the rewriter to every source file in the tree,
// writing back only the files whose content changed.
func rewriteTree(ctx context.Context, root string, rw *rewriter) error {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindSourceFiles(root, sourceExtensions, skippedDirs)
	if err != nil {
		return err
	}

	rewritten := 0
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return &fsutil.IOError{Op: "read", Path: file, Err: err}
		}
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return err
		}
		actualDir := path.Dir(filepath.ToSlash(rel))

		next, changed := rw.rewriteContent(string(content), actualDir)
		if !changed {
			continue
		}
		if err := os.WriteFile(file, []byte(next), 0o644); err != nil {
			return &fsutil.IOError{Op: "write", Path: file, Err: err}
		}
		rewritten++
	}

	logger.Info("Import specifiers rewritten.", "files_changed", rewritten)
	return nil
}

// CheckDangling scans the tree for any static import still resolving into
// the old location. After a successful relocation this must find nothing.
func CheckDangling(ctx context.Context, root string, oldPath string) error {
	oldRel := path.Clean(filepath.ToSlash(oldPath))

	files, err := fsutil.FindSourceFiles(root, sourceExtensions, skippedDirs)
	if err != nil {
		return err
	}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return &fsutil.IOError{Op: "read", Path: file, Err: err}
		}
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)
		for _, ref := range findStaticReferences(string(content), path.Dir(relSlash)) {
			if ref.Target == oldRel || underPath(ref.Target, oldRel) {
				return &ReferenceError{
					Path:      relSlash,
					Line:      ref.Line,
					Specifier: ref.Specifier,
					Reason:    fmt.Sprintf("still resolves into the old location %s", oldRel),
				}
			}
		}
	}
	return nil
}

// CheckUnitIsolation verifies the self-containment rule: no deployable unit
// may import another unit's source subtree directly.
func CheckUnitIsolation(ctx context.Context, root string, functions []*config.Function) error {
	logger := ctxlog.FromContext(ctx)

	for _, fn := range functions {
		fnRoot := filepath.Join(root, fn.Path)
		if _, err := os.Stat(fnRoot); os.IsNotExist(err) {
			continue
		}

		files, err := fsutil.FindSourceFiles(fnRoot, sourceExtensions, skippedDirs)
		if err != nil {
			return err
		}
		for _, file := range files {
			content, err := os.ReadFile(file)
			if err != nil {
				return &fsutil.IOError{Op: "read", Path: file, Err: err}
			}
			rel, err := filepath.Rel(root, file)
			if err != nil {
				return err
			}
			relSlash := filepath.ToSlash(rel)

			for _, ref := range findStaticReferences(string(content), path.Dir(relSlash)) {
				for _, other := range functions {
					if other.Name == fn.Name {
						continue
					}
					otherRel := path.Clean(filepath.ToSlash(other.Path))
					if ref.Target == otherRel || underPath(ref.Target, otherRel) {
						return &ReferenceError{
							Path:      relSlash,
							Line:      ref.Line,
							Specifier: ref.Specifier,
							Reason:    fmt.Sprintf("unit %q imports unit %q directly; units must stay self-contained", fn.Name, other.Name),
						}
					}
				}
			}
		}
	}

	logger.Debug("Unit isolation verified.", "units", len(functions))
	return nil
}

// underPath reports whether the slash path p is strictly inside prefix.
func underPath(p, prefix string) bool {
	return len(p) > len(prefix) && p[:len(prefix)+1] == prefix+"/"
}
