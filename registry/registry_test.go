package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leocov-dev/launchwiz/core"
)

func openRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, dir
}

func TestAddGetList(t *testing.T) {
	r, dir := openRegistry(t)
	ctx := context.Background()

	added, err := r.Add(ctx, core.Instance{ID: "survival", GameVersion: "1.20.1", Loader: "Fabric", LoaderVersion: "0.15.11"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "instances", "survival"), added.Dir)
	assert.Equal(t, "fabric", added.Loader)
	assert.Equal(t, core.JavaAuto, added.JavaMode)
	assert.Equal(t, "survival", added.Name)

	_, err = r.Add(ctx, core.Instance{ID: "classic", GameVersion: "1.8.9", Loader: "none", LoaderVersion: "ignored"})
	require.NoError(t, err)

	got, err := r.Get(ctx, "survival")
	require.NoError(t, err)
	assert.Equal(t, added, got)

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "classic", all[0].ID)
	assert.Equal(t, "vanilla", all[0].Loader)
	assert.Empty(t, all[0].LoaderVersion)
}

func TestAddRejectsDuplicatesAndInvalid(t *testing.T) {
	r, _ := openRegistry(t)
	ctx := context.Background()

	_, err := r.Add(ctx, core.Instance{ID: "survival", GameVersion: "1.20.1"})
	require.NoError(t, err)
	_, err = r.Add(ctx, core.Instance{ID: "survival", GameVersion: "1.20.4"})
	assert.True(t, errors.Is(err, ErrExists))

	cases := []core.Instance{
		{ID: "Bad Name", GameVersion: "1.20.1"},
		{ID: "ok", GameVersion: ""},
		{ID: "ok", GameVersion: "1.20.1", Loader: "rift"},
		{ID: "ok", GameVersion: "1.20.1", JavaMode: core.JavaCustom},
		{ID: "ok", GameVersion: "1.20.1", JavaMode: "portable"},
	}
	for _, inst := range cases {
		_, err := r.Add(ctx, inst)
		assert.Error(t, err, "%+v", inst)
	}
}

func TestAddDerivesIDFromName(t *testing.T) {
	r, _ := openRegistry(t)

	inst, err := r.Add(context.Background(), core.Instance{Name: "Skyblock Adventures (1.20)", GameVersion: "1.20.1"})
	require.NoError(t, err)
	assert.Equal(t, "skyblock-adventures", inst.ID)
	assert.Equal(t, "Skyblock Adventures (1.20)", inst.Name)
	assert.True(t, ValidID(inst.ID))
	assert.False(t, ValidID("Skyblock Adventures"))
}

func TestRemove(t *testing.T) {
	r, _ := openRegistry(t)
	ctx := context.Background()

	_, err := r.Add(ctx, core.Instance{ID: "survival", GameVersion: "1.20.1"})
	require.NoError(t, err)
	require.NoError(t, r.Remove(ctx, "survival"))

	_, err = r.Get(ctx, "survival")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(r.Remove(ctx, "survival"), ErrNotFound))
}

func TestReopenKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	r, err := Open(dir)
	require.NoError(t, err)
	_, err = r.Add(ctx, core.Instance{ID: "survival", GameVersion: "1.20.1", JavaMode: core.JavaCustom, JavaPath: "/opt/java/bin/java"})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = Open(dir)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.Get(ctx, "survival")
	require.NoError(t, err)
	assert.Equal(t, core.JavaCustom, got.JavaMode)
	assert.Equal(t, "/opt/java/bin/java", got.JavaPath)
}
