// Package schema defines the HCL block structures a plan file is decoded
// into, before translation into the format-agnostic config model.
package schema

import "github.com/hashicorp/hcl/v2"

// Project represents the single `project` block of a plan.
type Project struct {
	Name               string            `hcl:"name,label"`
	Root               string            `hcl:"root,optional"`
	Tags               map[string]string `hcl:"tags,optional"`
	AlarmEmail         string            `hcl:"alarm_email,optional"`
	StrictEnvironments *bool             `hcl:"strict_environments,optional"`
}

// Environment represents an `environment "<Name>"` block: one deployment
// target with its own account, region, and tags.
type Environment struct {
	Name             string            `hcl:"name,label"`
	Account          string            `hcl:"account"`
	Region           string            `hcl:"region"`
	Tags             map[string]string `hcl:"tags,optional"`
	AlarmEmail       string            `hcl:"alarm_email,optional"`
	DisasterRecovery bool              `hcl:"disaster_recovery,optional"`
}

// Directory represents a `directory "<rel/path>"` block.
type Directory struct {
	Path    string `hcl:"path,label"`
	Purpose string `hcl:"purpose,optional"`
	GitKeep bool   `hcl:"gitkeep,optional"`
}

// Doc represents a `doc "<NAME.md>"` block. Vars is kept as a raw expression
// so the translator can evaluate and type-check it.
type Doc struct {
	Name     string         `hcl:"name,label"`
	Template string         `hcl:"template"`
	Vars     hcl.Expression `hcl:"vars,optional"`
}

// Move represents a `move` block.
type Move struct {
	From           string `hcl:"from"`
	To             string `hcl:"to"`
	RewriteImports *bool  `hcl:"rewrite_imports,optional"`
}

// Function represents a `function "<name>"` block: one deployable unit.
type Function struct {
	Name     string `hcl:"name,label"`
	Path     string `hcl:"path"`
	Manifest string `hcl:"manifest,optional"`
	Tests    string `hcl:"tests,optional"`
}

// Verify represents the `verify` block listing the external command argvs.
type Verify struct {
	Install []string `hcl:"install,optional"`
	Build   []string `hcl:"build,optional"`
	Synth   []string `hcl:"synth,optional"`
	Test    []string `hcl:"test,optional"`
}

// PlanFile represents the top-level structure of a plan file. Any block may
// appear in any file; the loader merges all files into one plan.
type PlanFile struct {
	Project      *Project       `hcl:"project,block"`
	Environments []*Environment `hcl:"environment,block"`
	Directories  []*Directory   `hcl:"directory,block"`
	Docs         []*Doc         `hcl:"doc,block"`
	Moves        []*Move        `hcl:"move,block"`
	Functions    []*Function    `hcl:"function,block"`
	Verify       *Verify        `hcl:"verify,block"`
	Remain       hcl.Body       `hcl:",remain"`
}
