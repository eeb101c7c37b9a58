package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A plan with a syntax error is guaranteed to make app.NewApp panic
	// during the loading phase.
	invalidHCL := `
		project "broken" {
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")

	errStr := runErr.Error()
	require.True(t, strings.Contains(errStr, "application startup panicked"), "The error message should indicate that a panic was recovered.")
	require.True(t, strings.Contains(errStr, "failed to"), "The error message should contain the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(out, nil)

	require.NoError(t, err)
	require.Contains(t, out.String(), "PLAN_PATH")
}

func TestRun_UnknownEnvironmentSelectionFailsAtStartup(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	planHCL := `
		project "payments" {
			tags = { owner = "team-a" }
		}

		environment "Staging" {
			account = "222222222222"
			region  = "eu-west-1"
		}
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(planHCL), 0600))

	args := []string{"-env", "QA", "-skip-account-check", filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "unknown environment: QA")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	planHCL := `
		project "payments" {
			tags = { owner = "team-a" }
		}

		environment "Production" {
			account = "333333333333"
			region  = "eu-west-1"
			tags    = { tier = "prod" }
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

		verify {
			build = ["sh", "-c", "echo built > verify.txt"]
		}
	`
	planDir := t.TempDir()
	planPath := filepath.Join(planDir, "main.hcl")
	require.NoError(t, os.WriteFile(planPath, []byte(planHCL), 0600))

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib", "handlers"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "lib", "handlers", "index.ts"),
		[]byte("export const handler = () => 'ok';\n"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "bin", "app.ts"),
		[]byte("import { handler } from '../lib/handlers/index';\n"), 0o644))

	args := []string{"-root", root, planPath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.NoError(t, runErr)

	// Scaffold: directory and rendered doc exist.
	require.FileExists(t, filepath.Join(root, "application", "api", ".gitkeep"))
	doc, err := os.ReadFile(filepath.Join(root, "PREREQS.md"))
	require.NoError(t, err)
	require.Contains(t, string(doc), "nodejs20.x")

	// Relocate: subtree moved and the importer rewritten.
	require.FileExists(t, filepath.Join(root, "application", "api", "src", "index.ts"))
	rewritten, err := os.ReadFile(filepath.Join(root, "bin", "app.ts"))
	require.NoError(t, err)
	require.Contains(t, string(rewritten), "'../application/api/src/index'")

	// Verify: the build step ran inside the project root.
	require.FileExists(t, filepath.Join(root, "verify.txt"))

	// Checkpoint: every phase recorded as done.
	state, err := os.ReadFile(filepath.Join(root, ".restack.state.yaml"))
	require.NoError(t, err)
	for _, phase := range []string{"scaffold", "relocate", "verify"} {
		require.Contains(t, string(state), phase)
	}
}
