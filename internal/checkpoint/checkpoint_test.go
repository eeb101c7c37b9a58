package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	t.Parallel()

	state, err := Load(filepath.Join(t.TempDir(), FileName))

	require.NoError(t, err)
	require.Nil(t, state)
}

func TestLoad_CorruptFileIsAnError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("run_id: [unclosed"), 0o644))

	state, err := Load(path)

	require.Error(t, err)
	require.Nil(t, state)
}

func TestSaveAndLoad_Roundtrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), FileName)

	state := New("plan.hcl", "Staging")
	state.MarkDone("scaffold")
	require.NoError(t, Save(path, state))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, state.RunID, loaded.RunID)
	require.True(t, loaded.Matches("plan.hcl", "Staging"))
	require.True(t, loaded.Done("scaffold"))
	require.False(t, loaded.Done("verify"))
}

func TestMatches(t *testing.T) {
	t.Parallel()

	state := New("plan.hcl", "Staging")

	require.True(t, state.Matches("plan.hcl", "Staging"))
	require.False(t, state.Matches("plan.hcl", "Production"))
	require.False(t, state.Matches("other.hcl", "Staging"))
}
