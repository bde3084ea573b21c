package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper/internal/store"
)

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, found, err := store.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.WriteFile(path, []byte("a: 1\n"), 0o600))
	require.NoError(t, store.WriteFile(path, []byte("a: 2\n"), 0o600))

	b, found, err := store.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a: 2\n", string(b))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
