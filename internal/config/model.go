package config

// Plan is the unified, format-agnostic representation of an entire
// restructuring plan: the project identity, its deployment environments, and
// the scaffold, relocation, and verification work to perform.
type Plan struct {
	Project      *Project
	Environments map[string]*Environment
	Directories  []*Directory
	Docs         []*Doc
	Moves        []*Move
	Functions    []*Function
	Verify       *Verify
}

// Project describes the project being restructured and its shared,
// application-level resource tags.
type Project struct {
	Name string `validate:"required"`
	// Root is the project root all relative paths in the plan resolve
	// against. Empty means the directory the tool runs in.
	Root       string
	Tags       map[string]string
	AlarmEmail string `validate:"omitempty,email"`
	// StrictEnvironments rejects environment names outside the well-known
	// set at load time.
	StrictEnvironments bool
}

// Environment is one named deployment target. Records are authored once in
// the plan and never mutated at runtime.
type Environment struct {
	Name             string `validate:"required"`
	Account          string `validate:"required,len=12,number"`
	Region           string `validate:"required"`
	Tags             map[string]string
	AlarmEmail       string `validate:"omitempty,email"`
	DisasterRecovery bool
}

// Directory is a directory to materialize under the project root.
type Directory struct {
	Path string `validate:"required"`
	// Purpose, when set, is rendered into a README.md inside the directory.
	Purpose string
	GitKeep bool
}

// Doc is a documentation file generated at a fixed root-relative name from
// one of the built-in templates.
type Doc struct {
	Name     string `validate:"required"`
	Template string `validate:"required"`
	Vars     map[string]string
}

// Move relocates a source subtree and rewrites import specifiers that
// referenced the old location.
type Move struct {
	From           string `validate:"required"`
	To             string `validate:"required"`
	RewriteImports bool
}

// Function describes one deployable unit: a self-contained source subtree
// with its own dependency manifest and tests. Units must not import one
// another's source directly.
type Function struct {
	Name     string `validate:"required"`
	Path     string `validate:"required"`
	Manifest string
	Tests    string
}

// Verify holds the external commands run after restructuring, in fixed
// order. An empty argv disables that step.
type Verify struct {
	Install []string
	Build   []string
	Synth   []string
	Test    []string
}
