package web

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistFSHasIndex(t *testing.T) {
	data, err := fs.ReadFile(DistFS(), "index.html")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<div id=\"root\">")
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("disk"), 0o600))

	fsys, err := Open(dir)
	require.NoError(t, err)
	data, err := fs.ReadFile(fsys, "index.html")
	require.NoError(t, err)
	assert.Equal(t, "disk", string(data))
}

func TestOpenOnDiskWithoutIndex(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}
