package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writePlan writes the given plan files (name -> HCL) into a temp directory
// and returns its path.
func writePlan(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

const validPlan = `
project "payments" {
	tags        = { owner = "team-a" }
	alarm_email = "ops@example.com"
}

environment "Development" {
	account = "111111111111"
	region  = "eu-west-1"
}

environment "Production" {
	account = "333333333333"
	region  = "eu-west-1"
	tags    = { owner = "team-b", tier = "prod" }
}

directory "application/api" {
	purpose = "API Lambda handlers"
	gitkeep = true
}

doc "PREREQS.md" {
	template = "prereqs"
	vars     = { runtime = "nodejs20.x" }
}

move {
	from = "lib/handlers"
	to   = "application/api/src"
}

function "api" {
	path = "application/api"
}

verify {
	install = ["npm", "ci"]
	build   = ["npm", "run", "build"]
	synth   = ["npx", "cdk", "synth"]
	test    = ["npm", "test"]
}
`

func TestLoad_ValidPlan(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": validPlan})

	plan, err := NewLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	require.Equal(t, "payments", plan.Project.Name)
	require.True(t, plan.Project.StrictEnvironments)
	require.Equal(t, map[string]string{"owner": "team-a"}, plan.Project.Tags)
	require.Len(t, plan.Environments, 2)
	require.Equal(t, "333333333333", plan.Environments["Production"].Account)
	require.Equal(t, "prod", plan.Environments["Production"].Tags["tier"])

	require.Len(t, plan.Directories, 1)
	require.True(t, plan.Directories[0].GitKeep)

	require.Len(t, plan.Docs, 1)
	require.Equal(t, map[string]string{"runtime": "nodejs20.x"}, plan.Docs[0].Vars)

	require.Len(t, plan.Moves, 1)
	require.True(t, plan.Moves[0].RewriteImports, "import rewriting should default to on")

	require.Len(t, plan.Functions, 1)
	require.Equal(t, "package.json", plan.Functions[0].Manifest)
	require.Equal(t, "test", plan.Functions[0].Tests)

	require.Equal(t, []string{"npm", "ci"}, plan.Verify.Install)
}

func TestLoad_SingleFilePath(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": validPlan})

	plan, err := NewLoader().Load(context.Background(), filepath.Join(dir, "main.hcl"))

	require.NoError(t, err)
	require.Equal(t, "payments", plan.Project.Name)
}

func TestLoad_BlocksMergeAcrossFiles(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{
		"project.hcl": `
			project "payments" {}
		`,
		"environments.hcl": `
			environment "Staging" {
				account = "222222222222"
				region  = "eu-west-1"
			}
		`,
	})

	plan, err := NewLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	require.Equal(t, "payments", plan.Project.Name)
	require.Contains(t, plan.Environments, "Staging")
}

func TestLoad_MissingProjectBlockFails(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": `
		environment "Staging" {
			account = "222222222222"
			region  = "eu-west-1"
		}
	`})

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), "no project block")
}

func TestLoad_DuplicateEnvironmentFails(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": `
		project "payments" {}

		environment "Staging" {
			account = "222222222222"
			region  = "eu-west-1"
		}

		environment "Staging" {
			account = "444444444444"
			region  = "eu-west-1"
		}
	`})

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), `duplicate environment "Staging"`)
}

func TestLoad_UnknownEnvironmentNameRejectedWhenStrict(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": `
		project "payments" {}

		environment "QA" {
			account = "555555555555"
			region  = "eu-west-1"
		}
	`})

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), `environment "QA" is not a known environment name`)
}

func TestLoad_UnknownEnvironmentNameAllowedWhenPermissive(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": `
		project "payments" {
			strict_environments = false
		}

		environment "QA" {
			account = "555555555555"
			region  = "eu-west-1"
		}
	`})

	plan, err := NewLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	require.Contains(t, plan.Environments, "QA")
}

func TestLoad_InvalidAccountFailsValidation(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": `
		project "payments" {}

		environment "Staging" {
			account = "not-an-account"
			region  = "eu-west-1"
		}
	`})

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), `invalid environment "Staging"`)
}

func TestLoad_UnknownDocTemplateFails(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": `
		project "payments" {}

		doc "CHANGELOG.md" {
			template = "changelog"
		}
	`})

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown template "changelog"`)
}

func TestLoad_NullDocVarFails(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": `
		project "payments" {}

		doc "PREREQS.md" {
			template = "prereqs"
			vars     = { runtime = null }
		}
	`})

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), `invalid vars for doc "PREREQS.md"`)
	require.Contains(t, err.Error(), `key "runtime" has a null value`)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	t.Parallel()
	dir := writePlan(t, map[string]string{"main.hcl": `project "payments" {`})

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_MissingPathFails(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))

	require.Error(t, err)
}
