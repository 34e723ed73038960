package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFillsEveryZeroField(t *testing.T) {
	c := Default()
	assert.Equal(t, 25565, c.ListenPort)
	assert.Equal(t, 20, c.MaxPlayers)
	assert.Equal(t, "main", c.WorldName)
	assert.Equal(t, "classic", c.Generator)
	assert.NotEmpty(t, c.HeartbeatURL)
}

func TestLoadAppliesDefaultsToOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_port: 1234\nserver_name: test server\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, c.ListenPort)
	assert.Equal(t, "test server", c.ServerName)
	assert.Equal(t, 20, c.MaxPlayers) // default, since the file didn't set it
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
