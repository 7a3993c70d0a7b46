package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Equal(t, []string{"ledger.json"}, dirNames(t, dir))
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := WriteFileAtomic(filepath.Join(dir, "missing", "ledger.json"), []byte("x"), 0o600)
	require.Error(t, err)
	assert.Empty(t, dirNames(t, dir))
}

func TestWriteJSONAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "balances.json")
	require.NoError(t, WriteJSONAtomic(path, map[string]int64{"alice": 1000}, 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]int64
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]int64{"alice": 1000}, got)

	err = WriteJSONAtomic(path, func() {}, 0o644)
	require.Error(t, err)
}
