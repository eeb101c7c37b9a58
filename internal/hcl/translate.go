package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/restack/internal/config"
	"github.com/vk/restack/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateProject converts the HCL project schema into the agnostic model.
// Strictness defaults to true when the attribute is absent.
func translateProject(s *schema.Project) *config.Project {
	strict := true
	if s.StrictEnvironments != nil {
		strict = *s.StrictEnvironments
	}
	return &config.Project{
		Name:               s.Name,
		Root:               s.Root,
		Tags:               s.Tags,
		AlarmEmail:         s.AlarmEmail,
		StrictEnvironments: strict,
	}
}

// translateEnvironment converts the HCL environment schema into the agnostic model.
func translateEnvironment(s *schema.Environment) *config.Environment {
	return &config.Environment{
		Name:             s.Name,
		Account:          s.Account,
		Region:           s.Region,
		Tags:             s.Tags,
		AlarmEmail:       s.AlarmEmail,
		DisasterRecovery: s.DisasterRecovery,
	}
}

// translateDirectory converts the HCL directory schema into the agnostic model.
func translateDirectory(s *schema.Directory) *config.Directory {
	return &config.Directory{
		Path:    s.Path,
		Purpose: s.Purpose,
		GitKeep: s.GitKeep,
	}
}

// translateDoc converts the HCL doc schema into the agnostic model,
// evaluating the vars expression into a string map.
func translateDoc(ctx context.Context, s *schema.Doc) (*config.Doc, error) {
	vars, err := evalStringMap(s.Vars)
	if err != nil {
		return nil, fmt.Errorf("invalid vars for doc %q: %w", s.Name, err)
	}
	return &config.Doc{
		Name:     s.Name,
		Template: s.Template,
		Vars:     vars,
	}, nil
}

// translateMove converts the HCL move schema into the agnostic model. Import
// rewriting defaults to on.
func translateMove(s *schema.Move) *config.Move {
	rewrite := true
	if s.RewriteImports != nil {
		rewrite = *s.RewriteImports
	}
	return &config.Move{
		From:           s.From,
		To:             s.To,
		RewriteImports: rewrite,
	}
}

// translateFunction converts the HCL function schema into the agnostic model,
// applying the conventional manifest and tests names.
func translateFunction(s *schema.Function) *config.Function {
	manifest := s.Manifest
	if manifest == "" {
		manifest = "package.json"
	}
	tests := s.Tests
	if tests == "" {
		tests = "test"
	}
	return &config.Function{
		Name:     s.Name,
		Path:     s.Path,
		Manifest: manifest,
		Tests:    tests,
	}
}

// translateVerify converts the HCL verify schema into the agnostic model.
func translateVerify(s *schema.Verify) *config.Verify {
	return &config.Verify{
		Install: s.Install,
		Build:   s.Build,
		Synth:   s.Synth,
		Test:    s.Test,
	}
}

// evalStringMap evaluates an HCL expression into a map of strings. A nil or
// null expression yields a nil map.
func evalStringMap(expr hcl.Expression) (map[string]string, error) {
	if expr == nil {
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}

	converted, err := convert.Convert(val, cty.Map(cty.String))
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s to a map of strings: %w", val.Type().FriendlyName(), err)
	}

	out := make(map[string]string)
	for it := converted.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if v.IsNull() {
			return nil, fmt.Errorf("key %q has a null value", k.AsString())
		}
		out[k.AsString()] = v.AsString()
	}
	return out, nil
}
