package worldstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrymodder/classicserver/internal/blockreg"
	"github.com/dmitrymodder/classicserver/internal/voxel"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGarbage(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	gw := gzip.NewWriter(f)
	defer gw.Close()
	_, err = gw.Write([]byte("not a world file"))
	return err
}

func TestSaveLoadRoundTripsBlocksAndDimensions(t *testing.T) {
	reg := blockreg.NewRegistry()
	m := voxel.New("roundtrip", 4, 4, 4, reg, 1)
	m.Generating = true
	m.SetRaw(1, 2, 3, blockreg.Stone)
	m.SetRaw(0, 0, 0, blockreg.Bedrock)

	path := filepath.Join(t.TempDir(), "roundtrip.csws")
	require.NoError(t, Save(path, m))

	loaded, err := Load(path, reg, 99)
	require.NoError(t, err)

	assert.Equal(t, "roundtrip", loaded.Name)
	assert.Equal(t, 4, loaded.SizeX)
	assert.Equal(t, blockreg.Stone, loaded.Get(1, 2, 3))
	assert.Equal(t, blockreg.Bedrock, loaded.Get(0, 0, 0))
	assert.Equal(t, blockreg.Air, loaded.Get(2, 2, 2))
}

func TestSaveLoadRoundTripsScheduledTicks(t *testing.T) {
	reg := blockreg.NewRegistry()
	m := voxel.New("ticks", 8, 8, 8, reg, 1)

	// Placing sand (not Generating) schedules the sand cell to tick; its air
	// neighbors have no tick callback, so none are queued for them.
	m.Set(4, 4, 4, blockreg.Sand)

	path := filepath.Join(t.TempDir(), "ticks.csws")
	require.NoError(t, Save(path, m))

	loaded, err := Load(path, reg, 1)
	require.NoError(t, err)

	before := m.ExportScheduledTicks()
	after := loaded.ExportScheduledTicks()
	assert.ElementsMatch(t, before, after)
}

func TestSaveLoadPreservesTickCounter(t *testing.T) {
	reg := blockreg.NewRegistry()
	m := voxel.New("tickcount", 4, 4, 4, reg, 1)
	for i := 0; i < 5; i++ {
		m.RunTick()
	}

	path := filepath.Join(t.TempDir(), "tickcount.csws")
	require.NoError(t, Save(path, m))

	loaded, err := Load(path, reg, 1)
	require.NoError(t, err)
	assert.Equal(t, m.Tick(), loaded.Tick())
}

func TestExistsReflectsFilePresence(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, "absent")
	assert.False(t, Exists(path))

	reg := blockreg.NewRegistry()
	m := voxel.New("absent", 2, 2, 2, reg, 1)
	require.NoError(t, Save(path, m))
	assert.True(t, Exists(path))
}

func TestLoadRejectsWrongMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csws")
	require.NoError(t, writeGarbage(path))

	_, err := Load(path, blockreg.NewRegistry(), 1)
	assert.Error(t, err)
}
