package launchwiz

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leocov-dev/launchwiz/config"
	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/registry"
)

func openApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("LAUNCHWIZ_DATA_DIR", t.TempDir())
	t.Setenv("LAUNCHWIZ_CACHE_DIR", t.TempDir())
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	app, err := Open(cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestInstanceLifecycle(t *testing.T) {
	app := openApp(t)
	ctx := context.Background()

	inst, err := app.AddInstance(ctx, Instance{ID: "survival", GameVersion: "1.20.1", Loader: "fabric"})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(inst.Dir, 0o755))

	list, err := app.Instances(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, app.Config().RootDir(), app.Paths(list[0]).Root)

	require.NoError(t, app.RemoveInstance(ctx, "survival", true))
	assert.NoDirExists(t, inst.Dir)
	_, err = app.Instance(ctx, "survival")
	assert.True(t, errors.Is(err, registry.ErrNotFound))
}

func TestPlanBeforePrepare(t *testing.T) {
	app := openApp(t)
	ctx := context.Background()
	_, err := app.AddInstance(ctx, Instance{ID: "survival", GameVersion: "1.20.1"})
	require.NoError(t, err)

	_, err = app.Plan(ctx, "survival")
	assert.True(t, errors.Is(err, core.ErrMissingMetadata))
	_, err = app.Validate(ctx, "survival")
	assert.True(t, errors.Is(err, core.ErrMissingMetadata))

	_, err = app.Plan(ctx, "missing")
	assert.True(t, errors.Is(err, registry.ErrNotFound))
}

func TestResetIsIdempotent(t *testing.T) {
	app := openApp(t)
	ctx := context.Background()
	_, err := app.AddInstance(ctx, Instance{ID: "survival", GameVersion: "1.20.1"})
	require.NoError(t, err)

	assert.NoError(t, app.Reset(ctx, "survival"))
	assert.NoError(t, app.Reset(ctx, "survival"))
}

func TestDefaultAuth(t *testing.T) {
	app := openApp(t)
	assert.Equal(t, Auth{PlayerName: "Player"}, app.DefaultAuth())

	mode, err := ParseRepairMode("full")
	require.NoError(t, err)
	assert.Equal(t, core.RepairFull, mode)
}
