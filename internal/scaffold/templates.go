package scaffold

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/vk/restack/internal/config"
)

// docData is the data every documentation template renders against.
type docData struct {
	Project      string
	Environments []*config.Environment
	Vars         []docVar
}

type docVar struct {
	Key   string
	Value string
}

const prereqsTemplate = `# Prerequisites

Before working on {{.Project}} you need:

- Node.js (the version pinned in .nvmrc) and npm
- The AWS CLI v2, configured with credentials for the target account
- The AWS CDK CLI (npx cdk --version should succeed)
- Docker, for bundling function dependencies

Each target account must be bootstrapped once per region before the first
deployment:

    npx cdk bootstrap

## Accounts

| Environment | Account | Region |
|---|---|---|
{{- range .Environments}}
| {{.Name}} | {{.Account}} | {{.Region}} |
{{- end}}
{{- if .Vars}}

## Notes
{{range .Vars}}
- {{.Key}}: {{.Value}}
{{- end}}
{{- end}}
`

const networkingTemplate = `# Networking

Network constructs for {{.Project}} live alongside the stacks that own them.
Shared networking (VPCs, subnets, endpoints) is defined once and imported by
consumers; never duplicate a VPC definition per stack.

- Lookups of existing VPCs happen at synth time and require credentials for
  the target account.
- Security groups are created next to the construct they protect.
- Cross-environment peering is out of scope for this project.
{{- if .Vars}}
{{range .Vars}}
- {{.Key}}: {{.Value}}
{{- end}}
{{- end}}
`

const contributingTemplate = `# Contributing

## Layout

- application/ holds one directory per deployable unit, each with its own
  dependency manifest and tests. Units never import each other's sources.
- helpers/ holds thin construct factories shared by the stacks.
- Infrastructure stacks reference deployable units by path; each unit is
  referenced by exactly one stack.

## Workflow

1. Branch from the default branch.
2. Make the change; keep unit tests next to the unit they cover.
3. Run the verification sequence (install, build, synth, tests) locally.
4. Open a pull request. Deployments happen from CI only.
`

const architectureTemplate = `# Architecture

{{.Project}} is deployed to the following environments:

{{range .Environments -}}
- {{.Name}}{{if .DisasterRecovery}} (disaster recovery){{end}}: account {{.Account}}, region {{.Region}}
{{end}}
Configuration is resolved per environment at synth time; resource tags are
the project's shared tags overlaid with the environment's own tags.
{{- if .Vars}}
{{range .Vars}}
- {{.Key}}: {{.Value}}
{{- end}}
{{- end}}
`

// readmeTemplate renders the per-directory purpose note.
var readmeTemplate = template.Must(template.New("readme").Parse(`# {{.Path}}

{{.Purpose}}
`))

var docTemplates = map[string]*template.Template{
	"prereqs":      template.Must(template.New("prereqs").Parse(prereqsTemplate)),
	"networking":   template.Must(template.New("networking").Parse(networkingTemplate)),
	"contributing": template.Must(template.New("contributing").Parse(contributingTemplate)),
	"architecture": template.Must(template.New("architecture").Parse(architectureTemplate)),
}

// HasTemplate reports whether name is one of the built-in documentation
// templates.
func HasTemplate(name string) bool {
	_, ok := docTemplates[name]
	return ok
}

// renderDoc renders the named built-in template for the given plan and doc
// variables. Environments and vars are rendered in a stable order.
func renderDoc(plan *config.Plan, doc *config.Doc) ([]byte, error) {
	tmpl, ok := docTemplates[doc.Template]
	if !ok {
		return nil, fmt.Errorf("unknown doc template %q", doc.Template)
	}

	data := docData{Project: plan.Project.Name}

	names := make([]string, 0, len(plan.Environments))
	for name := range plan.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data.Environments = append(data.Environments, plan.Environments[name])
	}

	keys := make([]string, 0, len(doc.Vars))
	for k := range doc.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data.Vars = append(data.Vars, docVar{Key: k, Value: doc.Vars[k]})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering template %q: %w", doc.Template, err)
	}
	return buf.Bytes(), nil
}

// renderReadme renders the purpose note for a materialized directory.
func renderReadme(dir *config.Directory) ([]byte, error) {
	var buf bytes.Buffer
	if err := readmeTemplate.Execute(&buf, dir); err != nil {
		return nil, fmt.Errorf("rendering readme for %q: %w", dir.Path, err)
	}
	return buf.Bytes(), nil
}
