// Package repair verifies an instance's runtime and game directory and fixes
// what it can.
package repair

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/resolver"
)

// Provisioner re-resolves and re-downloads runtime files repair removed.
type Provisioner interface {
	Resolve(ctx context.Context, inst core.Instance, paths core.InstancePaths, opts resolver.ResolveOptions) (*resolver.Runtime, error)
	Provision(ctx context.Context, rt *resolver.Runtime, paths core.InstancePaths) error
}

type Options struct {
	Platform    core.Platform
	KeepRunLogs int
	// Java runs loader installers when a profile has to be reinstalled.
	Java   resolver.JavaLocator
	Logger *zap.Logger
}

type Manager struct {
	prov        Provisioner
	platform    core.Platform
	keepRunLogs int
	java        resolver.JavaLocator
	log         *zap.Logger
	now         func() time.Time
}

func NewManager(prov Provisioner, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Platform.OS == "" {
		opts.Platform = core.CurrentPlatform()
	}
	if opts.KeepRunLogs <= 0 {
		opts.KeepRunLogs = DefaultKeepRunLogs
	}
	return &Manager{
		prov:        prov,
		platform:    opts.Platform,
		keepRunLogs: opts.KeepRunLogs,
		java:        opts.Java,
		log:         opts.Logger,
		now:         time.Now,
	}
}

// Run executes the probes of mode against an instance. Verify-only runs
// report without touching anything. Smart runs hash file contents only when
// the instance drifted since the last clean repair; other modes always do.
func (m *Manager) Run(ctx context.Context, inst core.Instance, paths core.InstancePaths, mode core.RepairMode) (*core.RepairReport, error) {
	start := m.now()
	report := core.NewRepairReport(mode)

	hash := StateHash(inst, paths.ModsDir())
	last, ok := loadCleanState(paths)
	report.StateHash = hash
	report.Drifted = !ok || last.StateHash != hash

	doc, err := core.LoadDocument(paths.VersionJSON)
	if err != nil {
		doc = nil
	}
	pc := &probeContext{
		ctx:      ctx,
		inst:     inst,
		paths:    paths,
		doc:      doc,
		platform: m.platform,
		ignore:   fileio.LoadRepairIgnore(paths.GameDir),
		deep:     mode != core.RepairSmart || report.Drifted,
		mutate:   mode.Mutates(),
		log:      m.log.With(zap.String("instance", inst.ID), zap.String("mode", string(mode))),
	}
	if !pc.deep {
		report.Skipped = append(report.Skipped, "content hashing: nothing changed since the last clean repair")
	}

	var (
		pending    = make(map[string]int)
		unresolved int
		reinstall  = mode == core.RepairReinstallLoader
	)
	for _, p := range probesFor(mode) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := p.run(pc)
		report.Issues = append(report.Issues, res.issues...)
		if res.fixed > 0 {
			report.Fixed[p.name] += res.fixed
		}
		if res.pending > 0 {
			pending[p.name] = res.pending
		}
		unresolved += res.unresolved
		reinstall = reinstall || res.reinstall
		pc.log.Debug("probe finished",
			zap.String("probe", p.name),
			zap.Int("issues", len(res.issues)),
			zap.Int("fixed", res.fixed))
	}

	if pc.mutate && mode != core.RepairModsOnly && (len(pending) > 0 || reinstall) {
		if err := m.reprovision(ctx, inst, paths, doc, reinstall); err != nil {
			report.Duration = m.now().Sub(start)
			return report, err
		}
		for name, n := range pending {
			report.Fixed[name] += n
		}
	} else if !pc.mutate {
		unresolved += len(pending)
	}

	if mode == core.RepairRepairAndOptimize {
		res := optimize(pc, m.keepRunLogs)
		report.Issues = append(report.Issues, res.issues...)
		if res.fixed > 0 {
			report.Fixed[ProbeOptimize] += res.fixed
		}
		unresolved += res.unresolved
	}

	report.Duration = m.now().Sub(start)
	if pc.mutate && unresolved == 0 {
		report.StateHash = StateHash(inst, paths.ModsDir())
		if err := saveCleanState(paths, report.StateHash, m.now()); err != nil {
			m.log.Warn("could not record repair state", zap.Error(err))
		}
	}
	m.log.Info("repair finished",
		zap.String("instance", inst.ID),
		zap.String("mode", string(mode)),
		zap.Int("issues", len(report.Issues)),
		zap.Int("fixed", report.TotalFixed()),
		zap.Bool("drifted", report.Drifted))
	return report, nil
}

// reprovision resolves the instance again and downloads whatever the probes
// removed. A loader reinstall also drops the persisted plan so the next
// launch rebuilds it.
func (m *Manager) reprovision(ctx context.Context, inst core.Instance, paths core.InstancePaths, doc core.Document, reinstall bool) error {
	if reinstall && doc != nil {
		if kind, err := inst.LoaderKind(); err == nil && kind != core.LoaderVanilla {
			if err := resolver.Purge(paths, doc.String("id")); err != nil {
				return err
			}
		}
	}
	rt, err := m.prov.Resolve(ctx, inst, paths, resolver.ResolveOptions{Force: reinstall, Java: m.java})
	if err != nil {
		return core.NewError(core.KindRepair, "re-resolve runtime", inst.ID, err).
			WithHint("check network access, then run repair again").
			WithArtifacts(paths.EventLog)
	}
	if err := m.prov.Provision(ctx, rt, paths); err != nil {
		return core.NewError(core.KindRepair, "re-provision runtime", inst.ID, err).
			WithHint("check network access, then run repair again").
			WithArtifacts(paths.EventLog)
	}
	if reinstall {
		if err := fileio.RemoveRuntime(paths); err != nil {
			return core.NewError(core.KindRepair, "drop stale launch plan", inst.ID, err)
		}
	}
	return nil
}
