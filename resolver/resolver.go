// Package resolver turns an instance record into a merged, normalized version
// document and makes every file it references exist on disk.
package resolver

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/download"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/sources"
)

// JavaLocator supplies a Java binary for running loader installers.
type JavaLocator func(ctx context.Context) (string, error)

type Options struct {
	Platform         core.Platform
	InstallerTimeout time.Duration
	Progress         download.Progress
	Logger           *zap.Logger
}

type Resolver struct {
	sources          *sources.Client
	engine           *download.Engine
	platform         core.Platform
	installerTimeout time.Duration
	progress         download.Progress
	log              *zap.Logger
}

func New(src *sources.Client, opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Platform.OS == "" {
		opts.Platform = core.CurrentPlatform()
	}
	if opts.InstallerTimeout <= 0 {
		opts.InstallerTimeout = sources.DefaultInstallerTimeout
	}
	return &Resolver{
		sources:          src,
		engine:           src.Engine(),
		platform:         opts.Platform,
		installerTimeout: opts.InstallerTimeout,
		progress:         opts.Progress,
		log:              opts.Logger,
	}
}

func (r *Resolver) Platform() core.Platform {
	return r.platform
}

// Runtime is the resolved launch target of an instance.
type Runtime struct {
	// Document is the merged and normalized version document.
	Document    core.Document
	Base        core.Document
	Profile     core.LoaderProfile
	GameVersion string
	// Reused is true when nothing had to be fetched or installed.
	Reused bool
}

type ResolveOptions struct {
	// Force re-fetches metadata instead of trusting what is installed.
	Force bool
	Java  JavaLocator
}

// Resolve reuses an installed, evidence-validated profile and vanilla document
// without touching the network; otherwise it fetches or installs them.
func (r *Resolver) Resolve(ctx context.Context, inst core.Instance, paths core.InstancePaths, opts ResolveOptions) (*Runtime, error) {
	kind, err := inst.LoaderKind()
	if err != nil {
		return nil, core.NewError(core.KindMissingMetadata, "resolve", inst.ID, err)
	}
	if inst.GameVersion == "" {
		return nil, core.NewError(core.KindMissingMetadata, "resolve", inst.ID, fmt.Errorf("instance has no game version"))
	}

	base, baseReused, err := r.baseDocument(ctx, inst.GameVersion, paths, opts.Force)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Base:        base,
		GameVersion: inst.GameVersion,
		Profile: core.LoaderProfile{
			Kind:   kind,
			ID:     inst.GameVersion,
			BaseID: inst.GameVersion,
		},
	}
	if kind == core.LoaderVanilla {
		rt.Document = Normalize(base.Clone(), rt.Profile)
		rt.Reused = baseReused
		return rt, nil
	}

	child, profile, childReused, err := r.loaderDocument(ctx, inst, kind, base, paths, opts)
	if err != nil {
		return nil, err
	}
	rt.Profile = profile
	rt.Document = Normalize(Merge(base, child), profile)
	rt.Reused = baseReused && childReused
	r.log.Debug("resolved runtime",
		zap.String("instance", inst.ID),
		zap.String("profile", profile.ID),
		zap.Bool("reused", rt.Reused))
	return rt, nil
}

func (r *Resolver) baseDocument(ctx context.Context, game string, paths core.InstancePaths, force bool) (core.Document, bool, error) {
	dest := paths.VersionFile(game)
	if !force && fileio.Exists(dest) {
		doc, err := core.LoadDocument(dest)
		if err == nil && doc.String("id") == game && doc.Require("mainClass", "downloads.client.url") == nil {
			return doc, true, nil
		}
		r.log.Debug("installed version document is unusable", zap.String("path", dest), zap.Error(err))
	}

	manifest, err := r.sources.Manifest(ctx)
	if err != nil {
		return nil, false, err
	}
	entry, ok := manifest.Find(game)
	if !ok {
		return nil, false, core.NewError(core.KindMissingMetadata, "find version", game, fmt.Errorf("%s is not in the version manifest", game)).
			WithHint("check the instance's game version")
	}
	doc, err := r.sources.VersionDocument(ctx, entry, dest)
	if err != nil {
		return nil, false, err
	}
	if err := doc.Require("id", "mainClass", "downloads.client.url"); err != nil {
		return nil, false, err
	}
	return doc, false, nil
}

// recordedLoaderVersion is the loader build the last runtime was built with,
// used when the instance does not pin one.
func recordedLoaderVersion(paths core.InstancePaths, kind core.LoaderKind, game string) string {
	snap, err := fileio.LoadSnapshot(paths.RuntimeState)
	if err != nil || snap.Loader != kind || snap.BaseVersionID != game {
		return ""
	}
	return snap.LoaderVersion
}

func (r *Resolver) installedProfile(paths core.InstancePaths, kind core.LoaderKind, game, loader string) (core.Document, string, bool) {
	id, err := DiscoverProfileID(paths.VersionsDir, kind, game, loader)
	if err != nil {
		return nil, "", false
	}
	doc, err := core.LoadDocument(paths.VersionFile(id))
	if err != nil {
		return nil, "", false
	}
	if err := ValidateEvidence(doc, kind, game, loader); err != nil {
		r.log.Debug("installed profile failed evidence check", zap.String("id", id), zap.Error(err))
		return nil, "", false
	}
	return doc, id, true
}

func (r *Resolver) latestLoader(ctx context.Context, kind core.LoaderKind, game string) (string, error) {
	switch kind {
	case core.LoaderForge:
		return r.sources.ForgeVersion(ctx, game)
	case core.LoaderNeoForge:
		return r.sources.NeoForgeVersion(ctx, game)
	}
	return r.sources.LatestLoader(ctx, kind, game)
}

func (r *Resolver) loaderDocument(ctx context.Context, inst core.Instance, kind core.LoaderKind, base core.Document, paths core.InstancePaths, opts ResolveOptions) (core.Document, core.LoaderProfile, bool, error) {
	game := inst.GameVersion
	loader := inst.LoaderVersion
	if loader == "" {
		loader = recordedLoaderVersion(paths, kind, game)
	}

	profile := core.LoaderProfile{Kind: kind, BaseID: game, LoaderVersion: loader}
	reusable := !opts.Force || kind == core.LoaderForge || kind == core.LoaderNeoForge
	if loader != "" && reusable {
		if doc, id, ok := r.installedProfile(paths, kind, game, loader); ok {
			profile.ID = id
			return doc, profile, true, nil
		}
	}

	if loader == "" {
		latest, err := r.latestLoader(ctx, kind, game)
		if err != nil {
			return nil, profile, false, err
		}
		loader = latest
		profile.LoaderVersion = loader
		if doc, id, ok := r.installedProfile(paths, kind, game, loader); ok && reusable {
			profile.ID = id
			return doc, profile, true, nil
		}
	}

	var (
		doc core.Document
		id  string
		err error
	)
	switch kind {
	case core.LoaderFabric, core.LoaderQuilt:
		doc, id, err = r.fetchMetaProfile(ctx, kind, game, loader, paths)
	default:
		doc, id, err = r.installForgeProfile(ctx, kind, game, loader, base, paths, opts.Java)
	}
	if err != nil {
		return nil, profile, false, err
	}
	profile.ID = id
	return doc, profile, false, nil
}

func (r *Resolver) fetchMetaProfile(ctx context.Context, kind core.LoaderKind, game, loader string, paths core.InstancePaths) (core.Document, string, error) {
	doc, err := r.sources.LoaderProfile(ctx, kind, game, loader)
	if err != nil {
		return nil, "", err
	}
	if err := ValidateEvidence(doc, kind, game, loader); err != nil {
		return nil, "", err
	}
	id := doc.String("id")
	data, err := doc.Marshal()
	if err != nil {
		return nil, "", err
	}
	if err := fileio.WriteAtomic(paths.VersionFile(id), data); err != nil {
		return nil, "", fmt.Errorf("saving %s profile: %w", kind.FriendlyName(), err)
	}
	r.log.Info("installed loader profile", zap.String("id", id))
	return doc, id, nil
}

// installForgeProfile runs the Forge or NeoForge installer against a
// pre-flight-validated vanilla install and finds the profile it produced.
func (r *Resolver) installForgeProfile(ctx context.Context, kind core.LoaderKind, game, loader string, base core.Document, paths core.InstancePaths, java JavaLocator) (core.Document, string, error) {
	target := kind.FriendlyName() + " " + loader
	if java == nil {
		return nil, "", core.NewError(core.KindLoaderInstall, "install loader", target, fmt.Errorf("no Java runtime available for the installer"))
	}
	if err := r.provisionClient(ctx, base, game, paths); err != nil {
		return nil, "", core.NewError(core.KindLoaderInstall, "pre-flight vanilla install", game, err)
	}

	rel, err := sources.InstallerPath(kind, game, loader)
	if err != nil {
		return nil, "", core.NewError(core.KindLoaderInstall, "install loader", target, err)
	}
	installer := filepath.Join(paths.Root, "cache", "installers", path.Base(rel))
	task, err := r.sources.InstallerTask(ctx, kind, game, loader, installer)
	if err != nil {
		return nil, "", err
	}
	if _, err := r.engine.Fetch(ctx, task); err != nil {
		return nil, "", err
	}

	javaPath, err := java(ctx)
	if err != nil {
		return nil, "", core.NewError(core.KindLoaderInstall, "install loader", target, err)
	}
	logPath := filepath.Join(paths.LauncherLogs, fmt.Sprintf("installer-%s-%s.log", kind, loader))
	err = sources.RunInstaller(ctx, sources.InstallerRun{
		Java:      javaPath,
		Installer: installer,
		GameRoot:  paths.Root,
		LogPath:   logPath,
		Timeout:   r.installerTimeout,
	}, r.log)
	sources.RemoveInstallerLeftovers(paths.Root)
	if err != nil {
		return nil, "", err
	}

	doc, id, ok := r.installedProfile(paths, kind, game, loader)
	if !ok {
		return nil, "", core.NewError(core.KindLoaderInstall, "install loader", target, fmt.Errorf("installer finished but no valid profile was found")).
			WithHint("the installer output may explain what went wrong").
			WithArtifacts(logPath)
	}
	r.log.Info("installed loader profile", zap.String("id", id))
	return doc, id, nil
}
