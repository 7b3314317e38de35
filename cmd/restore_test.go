package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBackups(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "pad-older.enc")
	newer := filepath.Join(dir, "pad-newer.enc")
	require.NoError(t, os.WriteFile(older, []byte("{}"), 0600))
	require.NoError(t, os.WriteFile(newer, []byte("{}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.enc"), 0700))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	backups, err := findBackups(dir)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, newer, backups[0].Path)
	assert.Equal(t, older, backups[1].Path)
}

func TestFindBackups_MissingDir(t *testing.T) {
	backups, err := findBackups(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, backups)
}
