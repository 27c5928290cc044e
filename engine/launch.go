package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/launch"
	"github.com/leocov-dev/launchwiz/resolver"
)

type LaunchOptions struct {
	Auth core.Auth
	// OnExit is called when a game that outlived the early exit window ends.
	OnExit func(*launch.Process)
}

type LaunchResult struct {
	Plan    core.LaunchPlan
	Process *launch.Process
	// Classification is set when the game only started after escalation
	// attributed the earlier crashes to something, such as a mod.
	Classification core.CrashClassification
	Launches       int
	Diagnostics    []string
	Warnings       []string
}

// recoverable reports failures a rebuild can fix.
func recoverable(err error) bool {
	return errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrIntegrity)
}

// Launch bootstraps and starts an instance, escalating through rebuild, safe
// mode and purge when the game fails early. The number of launches is bounded
// and the mods directory is restored before Launch returns, unless a safe-mode
// run is still going; then it is restored when that run exits.
func (e *Engine) Launch(ctx context.Context, inst core.Instance, opts LaunchOptions) (*LaunchResult, error) {
	paths := e.Paths(inst)
	release, err := e.acquire(inst, paths)
	if err != nil {
		return nil, err
	}
	defer release()

	log := e.log.With(zap.String("instance", inst.ID))
	status := fileio.NewStateWriter(paths)
	e.reconcile(paths, status, true)

	// held is a safe-mode guard kept until a surviving game exits.
	var held atomic.Pointer[launch.ModsGuard]
	restoreHeld := func(p *launch.Process) {
		g := held.Swap(nil)
		if g == nil {
			return
		}
		if err := g.Restore(); err != nil {
			log.Error("could not restore mods after safe mode", zap.String("run", p.RunID), zap.Error(err))
			return
		}
		e.event(status, core.StatusExited, fmt.Sprintf("run %s: mods restored", p.RunID))
	}
	launcherOpts := e.opts.Launch
	launcherOpts.OnExit = func(p *launch.Process) {
		restoreHeld(p)
		state := core.StatusExited
		if p.Abnormal() {
			state = core.StatusCrashed
		}
		e.report(status, state, fmt.Sprintf("run %s exited with code %d after %s", p.RunID, p.ExitCode(), p.Runtime().Round(time.Second)))
		if opts.OnExit != nil {
			opts.OnExit(p)
		}
	}
	launcher := launch.NewLauncher(launcherOpts)

	var (
		esc       = launch.NewEscalation()
		result    = &LaunchResult{}
		force     bool
		purge     []string
		guard     *launch.ModsGuard
		lastDiag  *core.LoaderCrashDiagnostic
		restoreFn = func() {
			if guard == nil {
				return
			}
			if err := guard.Restore(); err != nil {
				log.Error("could not restore mods after safe mode", zap.Error(err))
				result.Warnings = append(result.Warnings, core.Describe(err))
			}
			guard = nil
		}
	)
	defer restoreFn()

	fail := func(err error) (*LaunchResult, error) {
		restoreFn()
		e.report(status, core.StatusFailed, core.Describe(err))
		return result, err
	}

	for {
		if len(purge) > 0 {
			log.Warn("purging version trees", zap.Strings("versions", purge))
			if err := resolver.Purge(paths, purge...); err != nil {
				return fail(err)
			}
			if err := fileio.RemoveRuntime(paths); err != nil {
				return fail(core.NewError(core.KindRepair, "drop launch plan", inst.ID, err))
			}
			purge = nil
		}
		if esc.SafeMode() && guard == nil {
			if guard, err = launch.HideMods(paths.GameDir); err != nil {
				return fail(err)
			}
			e.event(status, core.StatusLaunching, "safe mode: mods moved aside")
		}

		boot, err := e.bootstrap(ctx, inst, paths, status, BootstrapOptions{Force: force, Auth: opts.Auth})
		if boot != nil {
			result.Plan = boot.Plan
		}
		force = false
		if err != nil {
			if !recoverable(err) {
				return fail(err)
			}
			d := esc.Next(launch.Event{Kind: launch.EventValidationFailed})
			log.Warn("pre-flight failed", zap.String("action", d.Action.String()), zap.Error(err))
			if d.Action != launch.ActionRebuild {
				return fail(err)
			}
			e.event(status, core.StatusRepairing, "rebuilding runtime after failed pre-flight")
			force = true
			continue
		}
		result.Warnings = append(result.Warnings, boot.Report.Warnings...)

		e.report(status, core.StatusLaunching, boot.Plan.VersionID)
		proc, err := launcher.Start(ctx, boot.Plan, paths)
		if err != nil {
			return fail(err)
		}
		result.Process = proc

		if !proc.Abnormal() {
			d := esc.Next(launch.Event{Kind: launch.EventStarted})
			if guard != nil && !proc.Exited() {
				// The game loads mods after the early window, so a safe-mode run
				// keeps them hidden until it exits.
				held.Store(guard)
				guard = nil
				if proc.Exited() {
					restoreHeld(proc)
				}
			}
			restoreFn()
			result.Launches = esc.Launches()
			result.Classification = d.Classification
			if d.Classification != "" {
				msg := fmt.Sprintf("the game only started with mods hidden (%s); check the mods folder", d.Classification)
				result.Warnings = append(result.Warnings, msg)
				log.Warn(msg)
			}
			if proc.Exited() {
				e.report(status, core.StatusExited, fmt.Sprintf("run %s exited with code 0", proc.RunID))
			} else if err := status.ReportProcess(core.StatusRunning, proc.RunID, proc.PID()); err != nil {
				log.Warn("could not write instance state", zap.String("status", core.StatusRunning), zap.Error(err))
			}
			return result, nil
		}

		diag := launch.Diagnose(launch.DiagnoseInput{
			Plan:             boot.Plan,
			ExitCode:         proc.ExitCode(),
			LogPaths:         proc.LogPaths(),
			MinClientJarSize: e.opts.MinClientJarSize,
		})
		lastDiag = &diag
		if path, err := launch.WriteDiagnostic(paths.Diagnostics, diag); err != nil {
			log.Error("could not write crash diagnostic", zap.Error(err))
		} else {
			result.Diagnostics = append(result.Diagnostics, path)
		}
		e.report(status, core.StatusCrashed, fmt.Sprintf("%s (exit %d, fingerprint %s)", diag.Classification, diag.ExitCode, diag.Fingerprint))
		restoreFn()

		d := esc.Next(launch.Event{Kind: launch.EventCrash, Diagnostic: &diag})
		result.Launches = esc.Launches()
		log.Warn("game crashed during startup",
			zap.String("classification", string(diag.Classification)),
			zap.String("fingerprint", diag.Fingerprint),
			zap.String("action", d.Action.String()),
			zap.String("reason", d.Reason))

		switch d.Action {
		case launch.ActionRebuild:
			force = true
		case launch.ActionSafeMode:
		case launch.ActionPurgeRebuild:
			force = true
			purge = []string{boot.Plan.VersionID, boot.Plan.BaseVersionID}
		default:
			return fail(crashError(inst, d, lastDiag, result, proc))
		}
		e.event(status, core.StatusRepairing, fmt.Sprintf("escalation: %s (%s)", d.Action, d.Reason))
	}
}

func crashError(inst core.Instance, d launch.Decision, diag *core.LoaderCrashDiagnostic, result *LaunchResult, proc *launch.Process) error {
	err := core.NewError(core.KindRuntimeCrash, "launch", inst.ID,
		fmt.Errorf("%s after %d launches: %s", d.Classification, result.Launches, d.Reason))
	hint := "inspect the diagnostics and run logs listed below"
	if diag != nil && len(diag.Hints) > 0 {
		hint = diag.Hints[0]
	}
	return err.WithHint(hint).
		WithArtifacts(result.Diagnostics...).
		WithArtifacts(proc.LogPaths()...)
}
