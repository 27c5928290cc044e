package launch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leocov-dev/launchwiz/core"
)

func TestHideAndRestoreMods(t *testing.T) {
	gameDir := t.TempDir()
	modsDir := filepath.Join(gameDir, "mods")
	writeModJar(t, modsDir, "sodium.jar", map[string]string{"fabric.mod.json": `{"id": "sodium"}`})

	guard, err := HideMods(gameDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(modsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.FileExists(t, filepath.Join(gameDir, SafeModeDirName, "sodium.jar"))

	require.NoError(t, os.WriteFile(filepath.Join(modsDir, "created-by-game.txt"), []byte("x"), 0o644))

	require.NoError(t, guard.Restore())
	assert.FileExists(t, filepath.Join(modsDir, "sodium.jar"))
	assert.NoFileExists(t, filepath.Join(modsDir, "created-by-game.txt"))
	assert.NoDirExists(t, filepath.Join(gameDir, SafeModeDirName))

	require.NoError(t, guard.Restore())
	assert.FileExists(t, filepath.Join(modsDir, "sodium.jar"))
}

func TestHideModsWithoutModsDir(t *testing.T) {
	gameDir := t.TempDir()
	guard, err := HideMods(gameDir)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(gameDir, "mods"))
	assert.NoDirExists(t, filepath.Join(gameDir, SafeModeDirName))
	require.NoError(t, guard.Restore())
}

func TestRestoreLeftoverMods(t *testing.T) {
	gameDir := t.TempDir()
	restored, err := RestoreLeftoverMods(gameDir)
	require.NoError(t, err)
	assert.False(t, restored)

	writeModJar(t, filepath.Join(gameDir, SafeModeDirName), "sodium.jar", map[string]string{"fabric.mod.json": `{"id": "sodium"}`})
	require.NoError(t, os.MkdirAll(filepath.Join(gameDir, "mods"), 0o755))

	restored, err = RestoreLeftoverMods(gameDir)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.FileExists(t, filepath.Join(gameDir, "mods", "sodium.jar"))
	assert.NoDirExists(t, filepath.Join(gameDir, SafeModeDirName))
}

func TestRestoreLeftoverModsConflict(t *testing.T) {
	gameDir := t.TempDir()
	writeModJar(t, filepath.Join(gameDir, SafeModeDirName), "sodium.jar", map[string]string{"fabric.mod.json": `{"id": "sodium"}`})
	writeModJar(t, filepath.Join(gameDir, "mods"), "lithium.jar", map[string]string{"fabric.mod.json": `{"id": "lithium"}`})

	_, err := RestoreLeftoverMods(gameDir)
	assert.ErrorIs(t, err, core.ErrRepair)
	assert.FileExists(t, filepath.Join(gameDir, SafeModeDirName, "sodium.jar"))

	_, err = HideMods(gameDir)
	assert.ErrorIs(t, err, core.ErrRepair)
}

func TestHideModsRecoversInterruptedRun(t *testing.T) {
	gameDir := t.TempDir()
	writeModJar(t, filepath.Join(gameDir, SafeModeDirName), "sodium.jar", map[string]string{"fabric.mod.json": `{"id": "sodium"}`})

	guard, err := HideMods(gameDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(gameDir, SafeModeDirName, "sodium.jar"))
	require.NoError(t, guard.Restore())
	assert.FileExists(t, filepath.Join(gameDir, "mods", "sodium.jar"))
}
