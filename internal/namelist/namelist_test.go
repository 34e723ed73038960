package namelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Contains("alice"))
}

func TestLoadEmptyPathIsEmpty(t *testing.T) {
	l, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestLoadSkipsBlankLinesAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ops.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice\n\n# comment\nBOB\n"), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
	assert.True(t, l.Contains("alice"))
	assert.True(t, l.Contains("bob"))
	assert.True(t, l.Contains("BOB"))
	assert.False(t, l.Contains("carol"))
}

func TestNilListContainsNothing(t *testing.T) {
	var l *List
	assert.False(t, l.Contains("alice"))
	assert.Equal(t, 0, l.Len())
}
