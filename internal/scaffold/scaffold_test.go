package scaffold

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/restack/internal/config"
	"github.com/vk/restack/internal/fsutil"
)

func scaffoldPlan() *config.Plan {
	return &config.Plan{
		Project: &config.Project{
			Name: "payments",
			Tags: map[string]string{"owner": "team-a"},
		},
		Environments: map[string]*config.Environment{
			"Production": {Name: "Production", Account: "333333333333", Region: "eu-west-1"},
		},
		Directories: []*config.Directory{
			{Path: "application/api", Purpose: "API Lambda handlers", GitKeep: true},
			{Path: "helpers"},
		},
		Docs: []*config.Doc{
			{Name: "PREREQS.md", Template: "prereqs"},
			{Name: "CONTRIBUTING.md", Template: "contributing"},
		},
	}
}

// snapshot walks the tree and records every path with its content, so two
// file-system states can be compared for equality.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	state := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			state[rel] = "<dir>"
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		state[rel] = string(content)
		return nil
	})
	require.NoError(t, err)
	return state
}

func TestMaterialize_CreatesDirectoriesAndDocs(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	err := Materialize(context.Background(), root, scaffoldPlan(), false)

	require.NoError(t, err)
	require.DirExists(t, filepath.Join(root, "application", "api"))
	require.DirExists(t, filepath.Join(root, "helpers"))
	require.FileExists(t, filepath.Join(root, "application", "api", ".gitkeep"))

	readme, err := os.ReadFile(filepath.Join(root, "application", "api", "README.md"))
	require.NoError(t, err)
	require.Contains(t, string(readme), "API Lambda handlers")

	prereqs, err := os.ReadFile(filepath.Join(root, "PREREQS.md"))
	require.NoError(t, err)
	require.Contains(t, string(prereqs), "payments")
	require.Contains(t, string(prereqs), "333333333333")
}

func TestMaterialize_IsIdempotent(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	plan := scaffoldPlan()

	require.NoError(t, Materialize(context.Background(), root, plan, false))
	first := snapshot(t, root)

	require.NoError(t, Materialize(context.Background(), root, plan, false))
	second := snapshot(t, root)

	require.Equal(t, first, second)
}

func TestMaterialize_FileInPlaceOfDirectoryFails(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "application"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "application", "api"), []byte("not a dir"), 0o644))

	err := Materialize(context.Background(), root, scaffoldPlan(), false)

	var ioErr *fsutil.IOError
	require.True(t, errors.As(err, &ioErr))
	require.Equal(t, filepath.Join(root, "application", "api"), ioErr.Path)
}

func TestMaterialize_DryRunTouchesNothing(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	err := Materialize(context.Background(), root, scaffoldPlan(), true)

	require.NoError(t, err)
	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestHasTemplate(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"prereqs", "networking", "contributing", "architecture"} {
		require.True(t, HasTemplate(name), name)
	}
	require.False(t, HasTemplate("changelog"))
}
