// Package launchwiz wires the registry, download engine, resolver, Java
// provisioner and orchestration engine into one handle for embedding.
package launchwiz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/config"
	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/download"
	"github.com/leocov-dev/launchwiz/engine"
	"github.com/leocov-dev/launchwiz/java"
	"github.com/leocov-dev/launchwiz/launch"
	"github.com/leocov-dev/launchwiz/registry"
	"github.com/leocov-dev/launchwiz/resolver"
	"github.com/leocov-dev/launchwiz/sources"
)

type Options struct {
	Logger   *zap.Logger
	Progress download.Progress
	// Endpoints overrides the remote metadata hosts, mainly for tests.
	Endpoints *sources.Endpoints
}

type App struct {
	cfg      config.Config
	registry *registry.Registry
	engine   *engine.Engine
	log      *zap.Logger
}

// Open creates the data directory layout and wires every component.
func Open(cfg config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg, err := registry.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	dl := download.New(download.Options{
		ConnectTimeout: cfg.Download.ConnectTimeout,
		RequestTimeout: cfg.Download.RequestTimeout,
		Attempts:       cfg.Download.Attempts,
		AssetFactor:    cfg.Download.AssetFactor,
		LibraryFactor:  cfg.Download.LibraryFactor,
		LocalCache:     download.NewCache(cfg.LocalCacheDir(), log),
		GlobalCache:    download.NewCache(cfg.GlobalCacheDir(), log),
		Logger:         log,
	})
	endpoints := sources.DefaultEndpoints()
	if opts.Endpoints != nil {
		endpoints = *opts.Endpoints
	}
	src := sources.NewClient(dl, endpoints, log)
	platform := core.CurrentPlatform()

	res := resolver.New(src, resolver.Options{
		Platform:         platform,
		InstallerTimeout: cfg.Launch.InstallerTimeout,
		Progress:         opts.Progress,
		Logger:           log,
	})
	javas := java.NewProvisioner(src, filepath.Join(cfg.RootDir(), "runtimes"), opts.Progress, log)

	eng := engine.New(res, javas, engine.Options{
		Root:     cfg.RootDir(),
		Platform: platform,
		Build: launch.Options{
			LauncherVersion: config.Version,
			MinMemoryMB:     cfg.Launch.MinMemoryMB,
			MaxMemoryMB:     cfg.Launch.MaxMemoryMB,
			ExtraJVMArgs:    cfg.Launch.JVMArgs,
			Width:           cfg.Launch.Width,
			Height:          cfg.Launch.Height,
		},
		Launch: launch.LauncherOptions{
			EarlyExitWindow: cfg.Launch.EarlyExitWindow,
			Logger:          log,
		},
		KeepRunLogs: cfg.Repair.KeepRunLogs,
		Logger:      log,
	})
	return &App{cfg: cfg, registry: reg, engine: eng, log: log}, nil
}

func (a *App) Close() error {
	return a.registry.Close()
}

func (a *App) Config() config.Config {
	return a.cfg
}

// DefaultAuth is the offline record built from the configured player name.
func (a *App) DefaultAuth() core.Auth {
	return core.Auth{PlayerName: a.cfg.Player}
}

func (a *App) AddInstance(ctx context.Context, inst core.Instance) (core.Instance, error) {
	return a.registry.Add(ctx, inst)
}

func (a *App) Instance(ctx context.Context, id string) (core.Instance, error) {
	return a.registry.Get(ctx, id)
}

func (a *App) Instances(ctx context.Context) ([]core.Instance, error) {
	return a.registry.List(ctx)
}

// RemoveInstance drops the record, and the instance directory when purge is set.
func (a *App) RemoveInstance(ctx context.Context, id string, purge bool) error {
	inst, err := a.registry.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := a.registry.Remove(ctx, id); err != nil {
		return err
	}
	if purge {
		if err := os.RemoveAll(inst.Dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", inst.Dir, err)
		}
	}
	return nil
}

func (a *App) Paths(inst core.Instance) core.InstancePaths {
	return a.engine.Paths(inst)
}

func (a *App) Prepare(ctx context.Context, id string, force bool) (*engine.BootstrapResult, error) {
	inst, err := a.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.engine.Bootstrap(ctx, inst, engine.BootstrapOptions{Force: force, Auth: a.DefaultAuth()})
}

func (a *App) Validate(ctx context.Context, id string) (*engine.PreflightResult, error) {
	inst, err := a.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.engine.Preflight(ctx, inst)
}

func (a *App) Plan(ctx context.Context, id string) (core.LaunchPlan, error) {
	inst, err := a.registry.Get(ctx, id)
	if err != nil {
		return core.LaunchPlan{}, err
	}
	return a.engine.Plan(inst)
}

func (a *App) Launch(ctx context.Context, id string, opts engine.LaunchOptions) (*engine.LaunchResult, error) {
	inst, err := a.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if opts.Auth == (core.Auth{}) {
		opts.Auth = a.DefaultAuth()
	}
	return a.engine.Launch(ctx, inst, opts)
}

func (a *App) Repair(ctx context.Context, id string, mode core.RepairMode) (*core.RepairReport, error) {
	inst, err := a.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.engine.Repair(ctx, inst, mode)
}

func (a *App) Reset(ctx context.Context, id string) error {
	inst, err := a.registry.Get(ctx, id)
	if err != nil {
		return err
	}
	return a.engine.Reset(ctx, inst)
}
