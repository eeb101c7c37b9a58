package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/restack/internal/config"
	"github.com/vk/restack/internal/ctxlog"
	"github.com/vk/restack/internal/fsutil"
	"github.com/vk/restack/internal/scaffold"
	"github.com/vk/restack/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a new HCL plan loader.
func NewLoader() *Loader {
	return &Loader{validate: validator.New()}
}

// Load orchestrates the entire plan loading process: file discovery, parsing,
// merging, translation, and validation. The path may point at a single .hcl
// file or a directory containing .hcl files.
func (l *Loader) Load(ctx context.Context, path string) (*config.Plan, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := l.findPlanFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no plan files found at %s", path)
	}
	logger.Debug("Discovered plan files.", "count", len(files))

	parser := hclparse.NewParser()
	plan := &config.Plan{Environments: make(map[string]*config.Environment)}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse plan file %s: %w", file, diags)
		}

		var root schema.PlanFile
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode plan file %s: %w", file, diags)
		}

		if err := l.mergeFile(ctx, plan, &root, file); err != nil {
			return nil, err
		}
	}

	if plan.Project == nil {
		return nil, fmt.Errorf("plan has no project block")
	}

	if err := l.validatePlan(plan); err != nil {
		return nil, err
	}

	logger.Debug("Plan loading complete.",
		"project", plan.Project.Name,
		"environments", len(plan.Environments),
		"directories", len(plan.Directories),
		"moves", len(plan.Moves),
	)
	return plan, nil
}

// mergeFile translates one decoded plan file into the plan, rejecting
// duplicate project blocks and duplicate environment names across files.
func (l *Loader) mergeFile(ctx context.Context, plan *config.Plan, root *schema.PlanFile, file string) error {
	if root.Project != nil {
		if plan.Project != nil {
			return fmt.Errorf("duplicate project block in %s: project %q already declared", file, plan.Project.Name)
		}
		plan.Project = translateProject(root.Project)
	}

	for _, env := range root.Environments {
		if _, exists := plan.Environments[env.Name]; exists {
			return fmt.Errorf("duplicate environment %q in %s", env.Name, file)
		}
		plan.Environments[env.Name] = translateEnvironment(env)
	}

	for _, dir := range root.Directories {
		plan.Directories = append(plan.Directories, translateDirectory(dir))
	}

	for _, doc := range root.Docs {
		translated, err := translateDoc(ctx, doc)
		if err != nil {
			return fmt.Errorf("in %s: %w", file, err)
		}
		plan.Docs = append(plan.Docs, translated)
	}

	for _, move := range root.Moves {
		plan.Moves = append(plan.Moves, translateMove(move))
	}

	for _, fn := range root.Functions {
		plan.Functions = append(plan.Functions, translateFunction(fn))
	}

	if root.Verify != nil {
		if plan.Verify != nil {
			return fmt.Errorf("duplicate verify block in %s", file)
		}
		plan.Verify = translateVerify(root.Verify)
	}

	return nil
}

// validatePlan runs struct validation over every record and enforces the
// well-known environment name set when the plan is strict.
func (l *Loader) validatePlan(plan *config.Plan) error {
	if err := l.validate.Struct(plan.Project); err != nil {
		return fmt.Errorf("invalid project %q: %w", plan.Project.Name, err)
	}

	for name, env := range plan.Environments {
		if plan.Project.StrictEnvironments && !config.IsWellKnownEnvironment(name) {
			return fmt.Errorf("environment %q is not a known environment name (set strict_environments = false to allow it)", name)
		}
		if err := l.validate.Struct(env); err != nil {
			return fmt.Errorf("invalid environment %q: %w", name, err)
		}
	}

	for _, dir := range plan.Directories {
		if err := l.validate.Struct(dir); err != nil {
			return fmt.Errorf("invalid directory %q: %w", dir.Path, err)
		}
	}

	for _, doc := range plan.Docs {
		if err := l.validate.Struct(doc); err != nil {
			return fmt.Errorf("invalid doc %q: %w", doc.Name, err)
		}
		if !scaffold.HasTemplate(doc.Template) {
			return fmt.Errorf("doc %q references unknown template %q", doc.Name, doc.Template)
		}
	}

	for _, move := range plan.Moves {
		if err := l.validate.Struct(move); err != nil {
			return fmt.Errorf("invalid move %q -> %q: %w", move.From, move.To, err)
		}
	}

	for _, fn := range plan.Functions {
		if err := l.validate.Struct(fn); err != nil {
			return fmt.Errorf("invalid function %q: %w", fn.Name, err)
		}
	}

	return nil
}

// findPlanFiles resolves the plan path into a flat list of .hcl files.
func (l *Loader) findPlanFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing plan path %s: %w", path, err)
	}

	if info.IsDir() {
		return fsutil.FindFilesByExtension(path, ".hcl")
	}
	if filepath.Ext(path) != ".hcl" {
		return nil, fmt.Errorf("plan file %s is not an .hcl file", path)
	}
	return []string{path}, nil
}
