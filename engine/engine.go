// Package engine orchestrates bootstrap, launch, repair and reset of
// instances, serializing runtime-mutating work per instance.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/java"
	"github.com/leocov-dev/launchwiz/launch"
	"github.com/leocov-dev/launchwiz/repair"
	"github.com/leocov-dev/launchwiz/resolver"
)

// Runtimes resolves an instance to a merged version document and provisions
// its files. *resolver.Resolver implements it.
type Runtimes interface {
	Resolve(ctx context.Context, inst core.Instance, paths core.InstancePaths, opts resolver.ResolveOptions) (*resolver.Runtime, error)
	Provision(ctx context.Context, rt *resolver.Runtime, paths core.InstancePaths) error
}

// JavaRuntimes picks a Java binary. *java.Provisioner implements it.
type JavaRuntimes interface {
	Resolve(ctx context.Context, req java.Request) (java.Runtime, error)
}

type Options struct {
	// Root is the shared installation root holding versions, libraries and assets.
	Root             string
	Platform         core.Platform
	Build            launch.Options
	Launch           launch.LauncherOptions
	MinClientJarSize int64
	KeepRunLogs      int
	Logger           *zap.Logger
}

type Engine struct {
	runtimes Runtimes
	java     JavaRuntimes
	builder  *launch.Builder
	repairs  *repair.Manager
	opts     Options
	log      *zap.Logger

	mu   sync.Mutex
	busy map[string]bool

	preflight atomic.Bool
}

func New(runtimes Runtimes, javaRuntimes JavaRuntimes, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Platform.OS == "" {
		opts.Platform = core.CurrentPlatform()
	}
	if opts.MinClientJarSize <= 0 {
		opts.MinClientJarSize = launch.DefaultMinClientJarSize
	}
	if opts.Launch.Logger == nil {
		opts.Launch.Logger = opts.Logger
	}
	e := &Engine{
		runtimes: runtimes,
		java:     javaRuntimes,
		builder:  launch.NewBuilder(opts.Platform, opts.Build, opts.Logger),
		opts:     opts,
		log:      opts.Logger,
		busy:     make(map[string]bool),
	}
	e.repairs = repair.NewManager(runtimes, repair.Options{
		Platform:    opts.Platform,
		KeepRunLogs: opts.KeepRunLogs,
		Logger:      opts.Logger,
	})
	return e
}

func (e *Engine) Paths(inst core.Instance) core.InstancePaths {
	return core.NewInstancePaths(inst, e.opts.Root)
}

// report publishes a status and logs, rather than fails on, a write error.
func (e *Engine) report(status *fileio.StateWriter, state, detail string) {
	if err := status.Report(state, detail); err != nil {
		e.log.Warn("could not write instance state", zap.String("status", state), zap.Error(err))
	}
}

// reconcile closes out a run left as running by a supervisor that exited
// before the game did. Its exit status is unknown by then. With restoreMods
// set, mods a safe-mode run still had hidden are put back; only callers
// holding the instance lock may ask for that.
func (e *Engine) reconcile(paths core.InstancePaths, status *fileio.StateWriter, restoreMods bool) {
	doc, err := fileio.LoadState(paths.StateFile)
	if err != nil || doc.Status != core.StatusRunning || doc.PID <= 0 {
		return
	}
	if launch.ProcessAlive(doc.PID) {
		return
	}
	e.log.Info("game ended without a supervisor", zap.String("run", doc.Detail), zap.Int("pid", doc.PID))
	e.report(status, core.StatusExited, fmt.Sprintf("run %s ended while unsupervised, exit status unknown", doc.Detail))
	if !restoreMods {
		return
	}
	if restored, err := launch.RestoreLeftoverMods(paths.GameDir); err != nil {
		e.log.Warn("could not restore mods hidden by safe mode", zap.Error(err))
	} else if restored {
		e.event(status, core.StatusExited, "mods restored after unsupervised safe-mode run")
	}
}

func (e *Engine) event(status *fileio.StateWriter, state, detail string) {
	if err := status.Event(state, detail); err != nil {
		e.log.Warn("could not append instance event", zap.String("status", state), zap.Error(err))
	}
}

// javaRequest describes the Java an instance needs for a document.
func javaRequest(inst core.Instance, doc core.Document) java.Request {
	return java.Request{
		Mode:       inst.JavaMode,
		CustomPath: inst.JavaPath,
		Required:   java.RequiredMajor(doc, inst.GameVersion),
		Component:  doc.String("javaVersion", "component"),
	}
}

// installerJava locates a Java binary for loader installers before any
// document is resolved.
func (e *Engine) installerJava(inst core.Instance) resolver.JavaLocator {
	return func(ctx context.Context) (string, error) {
		rt, err := e.java.Resolve(ctx, java.Request{
			Mode:       inst.JavaMode,
			CustomPath: inst.JavaPath,
			Required:   core.RequiredJavaMajorForGame(inst.GameVersion),
		})
		if err != nil {
			return "", err
		}
		return rt.Path, nil
	}
}

type BootstrapOptions struct {
	// Force re-fetches metadata and rebuilds the plan even when it is current.
	Force bool
	Auth  core.Auth
}

type BootstrapResult struct {
	Plan   core.LaunchPlan
	Report *core.ValidationReport
	// Reused is true when the persisted plan was current and kept as is.
	Reused bool
	// PlanDiff shows how a rebuilt plan differs from the one it replaced.
	PlanDiff string
}

// Bootstrap resolves, provisions, builds and validates an instance's runtime.
func (e *Engine) Bootstrap(ctx context.Context, inst core.Instance, opts BootstrapOptions) (*BootstrapResult, error) {
	paths := e.Paths(inst)
	release, err := e.acquire(inst, paths)
	if err != nil {
		return nil, err
	}
	defer release()

	status := fileio.NewStateWriter(paths)
	e.reconcile(paths, status, true)
	res, err := e.bootstrap(ctx, inst, paths, status, opts)
	if err != nil {
		e.report(status, core.StatusFailed, core.Describe(err))
		return res, err
	}
	e.report(status, core.StatusReady, res.Plan.VersionID)
	return res, nil
}

func (e *Engine) bootstrap(ctx context.Context, inst core.Instance, paths core.InstancePaths, status *fileio.StateWriter, opts BootstrapOptions) (*BootstrapResult, error) {
	log := e.log.With(zap.String("instance", inst.ID))
	if err := fileio.WriteInstanceMetadata(paths, inst); err != nil {
		return nil, fmt.Errorf("writing instance metadata: %w", err)
	}

	e.report(status, core.StatusResolving, inst.GameVersion)
	rt, err := e.runtimes.Resolve(ctx, inst, paths, resolver.ResolveOptions{Force: opts.Force, Java: e.installerJava(inst)})
	if err != nil {
		return nil, err
	}

	e.report(status, core.StatusDownloading, rt.Profile.ID)
	if err := e.runtimes.Provision(ctx, rt, paths); err != nil {
		return nil, err
	}

	javaRT, err := e.java.Resolve(ctx, javaRequest(inst, rt.Document))
	if err != nil {
		return nil, err
	}

	e.report(status, core.StatusBuildingPlan, rt.Profile.ID)
	plan, snapshot, err := e.builder.Build(launch.BuildInput{
		Instance: inst,
		Paths:    paths,
		Runtime:  rt,
		Java:     javaRT,
		Auth:     opts.Auth,
	})
	if err != nil {
		return nil, err
	}

	res := &BootstrapResult{Plan: plan}
	persisted, loadErr := fileio.LoadPlan(paths.LaunchPlan)
	if !opts.Force && loadErr == nil && !launch.Drifted(paths, persisted, rt.Document, plan.InputsHash) {
		res.Plan = persisted
		res.Reused = true
		log.Debug("launch plan is current")
	} else {
		if err := launch.Persist(paths, rt, plan, snapshot); err != nil {
			return nil, err
		}
		if loadErr == nil {
			if diff, err := core.PlanDiff(persisted, plan); err == nil && diff != "" {
				res.PlanDiff = diff
				log.Debug("launch plan changed", zap.String("diff", diff))
			}
		}
	}

	e.report(status, core.StatusValidating, plan.VersionID)
	res.Report = launch.Validate(paths, res.Plan, launch.ValidateOptions{
		MinClientJarSize: e.opts.MinClientJarSize,
		Platform:         e.opts.Platform,
		GameVersion:      inst.GameVersion,
	})
	for _, w := range res.Report.Warnings {
		log.Warn("pre-flight warning", zap.String("warning", w))
	}
	if err := res.Report.Err(inst.ID); err != nil {
		var ce *core.Error
		if errors.As(err, &ce) {
			ce.WithArtifacts(paths.LaunchPlan)
		}
		return res, err
	}
	return res, nil
}

// PreflightResult is a validation run over the persisted plan.
type PreflightResult struct {
	Report *core.ValidationReport
	// Skipped is set when another pre-flight was already running.
	Skipped  bool
	Warnings []string
}

// Preflight validates an instance's persisted launch plan without changing
// anything. Overlapping calls do not queue: they succeed at once with a warning.
func (e *Engine) Preflight(_ context.Context, inst core.Instance) (*PreflightResult, error) {
	if !e.preflight.CompareAndSwap(false, true) {
		msg := "another pre-flight check is already running; this one was skipped"
		e.log.Warn(msg, zap.String("instance", inst.ID))
		return &PreflightResult{Skipped: true, Warnings: []string{msg}}, nil
	}
	defer e.preflight.Store(false)

	paths := e.Paths(inst)
	status := fileio.NewStateWriter(paths)
	e.reconcile(paths, status, false)
	plan, err := e.Plan(inst)
	if err != nil {
		return nil, err
	}
	report := launch.Validate(paths, plan, launch.ValidateOptions{
		MinClientJarSize: e.opts.MinClientJarSize,
		Platform:         e.opts.Platform,
		GameVersion:      inst.GameVersion,
	})
	e.event(status, core.StatusValidating, fmt.Sprintf("pre-flight ok=%t", report.OK))
	return &PreflightResult{Report: report, Warnings: report.Warnings}, nil
}

// Plan loads the persisted launch plan.
func (e *Engine) Plan(inst core.Instance) (core.LaunchPlan, error) {
	paths := e.Paths(inst)
	plan, err := fileio.LoadPlan(paths.LaunchPlan)
	if err != nil {
		return core.LaunchPlan{}, core.NewError(core.KindMissingMetadata, "load launch plan", paths.LaunchPlan, err).
			WithHint(fmt.Sprintf("run `launchwiz prepare %s` first", inst.ID))
	}
	return plan, nil
}

// Repair runs the repair manager under the instance lock.
func (e *Engine) Repair(ctx context.Context, inst core.Instance, mode core.RepairMode) (*core.RepairReport, error) {
	paths := e.Paths(inst)
	release, err := e.acquire(inst, paths)
	if err != nil {
		return nil, err
	}
	defer release()

	status := fileio.NewStateWriter(paths)
	e.report(status, core.StatusRepairing, string(mode))
	report, err := e.repairs.Run(ctx, inst, paths, mode)
	if err != nil {
		e.report(status, core.StatusFailed, core.Describe(err))
		return report, err
	}
	e.report(status, core.StatusRepairing, fmt.Sprintf("%s: %d issues, %d fixed", mode, len(report.Issues), report.TotalFixed()))
	return report, nil
}

// Reset drops the persisted plan and runtime snapshot so the next bootstrap
// rebuilds them. Shared versions, libraries and assets stay.
func (e *Engine) Reset(_ context.Context, inst core.Instance) error {
	paths := e.Paths(inst)
	release, err := e.acquire(inst, paths)
	if err != nil {
		return err
	}
	defer release()

	if err := fileio.RemoveRuntime(paths); err != nil {
		return core.NewError(core.KindRepair, "reset runtime", inst.ID, err)
	}
	e.report(fileio.NewStateWriter(paths), core.StatusReset, "")
	return nil
}
