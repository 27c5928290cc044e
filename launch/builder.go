// Package launch builds, checks, starts and diagnoses a game launch.
package launch

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/java"
	"github.com/leocov-dev/launchwiz/resolver"
)

const (
	DefaultLauncherName    = "launchwiz"
	DefaultLauncherVersion = "1.0"
)

// defaultJVMArguments is used for documents that predate arguments.jvm.
var defaultJVMArguments = []interface{}{
	map[string]interface{}{
		"rules": []interface{}{map[string]interface{}{"action": "allow", "os": map[string]interface{}{"name": "osx"}}},
		"value": "-XstartOnFirstThread",
	},
	"-Djava.library.path=${natives_directory}",
	"-Dminecraft.launcher.brand=${launcher_name}",
	"-Dminecraft.launcher.version=${launcher_version}",
	"-cp",
	"${classpath}",
}

type Options struct {
	LauncherName    string
	LauncherVersion string
	MinMemoryMB     int
	MaxMemoryMB     int
	ExtraJVMArgs    []string
	Width           int
	Height          int
	Env             map[string]string
}

type Builder struct {
	platform core.Platform
	opts     Options
	log      *zap.Logger
	now      func() time.Time
}

func NewBuilder(platform core.Platform, opts Options, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LauncherName == "" {
		opts.LauncherName = DefaultLauncherName
	}
	if opts.LauncherVersion == "" {
		opts.LauncherVersion = DefaultLauncherVersion
	}
	return &Builder{platform: platform, opts: opts, log: log, now: time.Now}
}

type BuildInput struct {
	Instance core.Instance
	Paths    core.InstancePaths
	Runtime  *resolver.Runtime
	Java     java.Runtime
	Auth     core.Auth
}

// Classpath lists library jars in declaration order, skipping libraries the
// platform rules exclude and natives-only entries. Entries are de-duplicated by
// path and by artifact key, first wins, and the client jar is always last.
func Classpath(doc core.Document, librariesDir, clientJar string, p core.Platform) ([]string, error) {
	seenPath := make(map[string]bool)
	seenKey := make(map[string]bool)
	client := filepath.Clean(clientJar)
	var cp []string
	for _, lib := range doc.Libraries() {
		if !lib.Allowed(p) {
			continue
		}
		files, err := lib.Files(librariesDir, p)
		if err != nil {
			return nil, core.NewError(core.KindMissingMetadata, "classpath", lib.Name, err)
		}
		for _, f := range files {
			if f.Native {
				continue
			}
			path := filepath.Clean(f.Path)
			key := f.Coordinate.Key()
			if path == client || seenPath[path] || seenKey[key] {
				continue
			}
			seenPath[path] = true
			seenKey[key] = true
			cp = append(cp, path)
		}
	}
	return append(cp, client), nil
}

// gameAssetsDir is where pre-1.7.3 clients expect named asset files.
func gameAssetsDir(paths core.InstancePaths, indexID string) string {
	index, err := resolver.LoadAssetIndex(resolver.AssetIndexPath(paths.AssetsDir, indexID))
	if err != nil {
		return paths.AssetsDir
	}
	switch {
	case index.MapToResources:
		return filepath.Join(paths.GameDir, "resources")
	case index.Virtual:
		return filepath.Join(paths.AssetsDir, "virtual", indexID)
	}
	return paths.AssetsDir
}

func (b *Builder) variables(in BuildInput, doc core.Document, cp []string, auth core.Auth) map[string]string {
	indexID := doc.String("assetIndex", "id")
	if indexID == "" {
		indexID = doc.String("assets")
	}
	sep := b.platform.ClasspathSeparator()
	candidates := map[string]string{
		"natives_directory":   in.Paths.NativesDir,
		"launcher_name":       b.opts.LauncherName,
		"launcher_version":    b.opts.LauncherVersion,
		"classpath":           strings.Join(cp, sep),
		"classpath_separator": sep,
		"library_directory":   in.Paths.LibrariesDir,
		"auth_player_name":    auth.PlayerName,
		"auth_uuid":           auth.UUID,
		"auth_access_token":   auth.AccessToken,
		"auth_session":        auth.AccessToken,
		"auth_xuid":           auth.XUID,
		"clientid":            auth.ClientID,
		"user_type":           auth.UserType,
		"user_properties":     "{}",
		"version_name":        doc.String("id"),
		"version_type":        doc.String("type"),
		"game_directory":      in.Paths.GameDir,
		"game_assets":         gameAssetsDir(in.Paths, indexID),
		"assets_root":         in.Paths.AssetsDir,
		"assets_index_name":   indexID,
	}
	if b.opts.Width > 0 && b.opts.Height > 0 {
		candidates["resolution_width"] = strconv.Itoa(b.opts.Width)
		candidates["resolution_height"] = strconv.Itoa(b.opts.Height)
	}
	vars := make(map[string]string, len(candidates))
	for k, v := range candidates {
		if v != "" {
			vars[k] = v
		}
	}
	return vars
}

func (b *Builder) featurePlatform() core.Platform {
	p := b.platform
	features := make(map[string]bool, len(p.Features)+1)
	for k, v := range p.Features {
		features[k] = v
	}
	features["has_custom_resolution"] = b.opts.Width > 0 && b.opts.Height > 0
	features["is_demo_user"] = false
	p.Features = features
	return p
}

// Build expands the runtime document into a launch plan and the snapshot that
// ties the plan to the document it came from.
func (b *Builder) Build(in BuildInput) (core.LaunchPlan, core.RuntimeVersionSnapshot, error) {
	rt := in.Runtime
	doc := rt.Document
	if err := doc.Require("id", "mainClass"); err != nil {
		return core.LaunchPlan{}, core.RuntimeVersionSnapshot{}, err
	}

	clientJar := in.Paths.ClientJar(rt.Profile.BaseID)
	cp, err := Classpath(doc, in.Paths.LibrariesDir, clientJar, b.platform)
	if err != nil {
		return core.LaunchPlan{}, core.RuntimeVersionSnapshot{}, err
	}
	auth := normalizeAuth(in.Auth)
	vars := b.variables(in, doc, cp, auth)
	p := b.featurePlatform()

	var jvmTemplates, gameTemplates []string
	if _, modern := doc.Path("arguments"); modern {
		jvmTemplates = collectArguments(doc.List("arguments", "jvm"), p)
		gameTemplates = collectArguments(doc.List("arguments", "game"), p)
	} else {
		gameTemplates = strings.Fields(doc.String("minecraftArguments"))
	}
	if len(jvmTemplates) == 0 {
		jvmTemplates = collectArguments(defaultJVMArguments, p)
	}

	var javaArgs []string
	if b.opts.MinMemoryMB > 0 {
		javaArgs = append(javaArgs, fmt.Sprintf("-Xms%dM", b.opts.MinMemoryMB))
	}
	if b.opts.MaxMemoryMB > 0 {
		javaArgs = append(javaArgs, fmt.Sprintf("-Xmx%dM", b.opts.MaxMemoryMB))
	}
	javaArgs = append(javaArgs, ExpandArguments(jvmTemplates, vars)...)
	javaArgs = append(javaArgs, b.opts.ExtraJVMArgs...)

	docHash, err := doc.Hash()
	if err != nil {
		return core.LaunchPlan{}, core.RuntimeVersionSnapshot{}, err
	}

	env := make(map[string]string, len(b.opts.Env))
	for k, v := range b.opts.Env {
		env[k] = v
	}

	plan := core.LaunchPlan{
		InstanceID:         in.Instance.ID,
		VersionID:          doc.String("id"),
		BaseVersionID:      rt.Profile.BaseID,
		VersionType:        doc.String("type"),
		Loader:             rt.Profile.Kind,
		LoaderVersion:      rt.Profile.LoaderVersion,
		JavaPath:           in.Java.Path,
		RequiredJavaMajor:  core.RequiredJavaMajor(doc, rt.GameVersion),
		ResolvedJavaMajor:  in.Java.Major,
		JavaArgs:           javaArgs,
		MainClass:          strings.TrimSpace(doc.String("mainClass")),
		GameArgs:           ExpandArguments(gameTemplates, vars),
		Classpath:          cp,
		ClasspathSeparator: b.platform.ClasspathSeparator(),
		ClientJar:          clientJar,
		ClientJarSHA1:      doc.String("downloads", "client", "sha1"),
		GameDir:            in.Paths.GameDir,
		NativesDir:         in.Paths.NativesDir,
		AssetsDir:          in.Paths.AssetsDir,
		AssetIndex:         vars["assets_index_name"],
		LibrariesDir:       in.Paths.LibrariesDir,
		Auth:               auth,
		Env:                env,
		InputsHash:         core.InputsHash(in.Instance, docHash, in.Java.Path, auth),
	}
	snapshot := core.RuntimeVersionSnapshot{
		VersionID:     plan.VersionID,
		BaseVersionID: rt.Profile.BaseID,
		Loader:        rt.Profile.Kind,
		LoaderVersion: rt.Profile.LoaderVersion,
		DocumentHash:  docHash,
		LibraryCount:  len(doc.List("libraries")),
		CreatedAt:     b.now().UTC(),
	}
	b.log.Debug("built launch plan",
		zap.String("version", plan.VersionID),
		zap.Int("classpath", len(cp)),
		zap.Int("jvmArgs", len(plan.JavaArgs)),
		zap.Int("gameArgs", len(plan.GameArgs)))
	return plan, snapshot, nil
}

// Persist writes the merged document, snapshot, plan and command text.
func Persist(paths core.InstancePaths, rt *resolver.Runtime, plan core.LaunchPlan, snapshot core.RuntimeVersionSnapshot) error {
	if err := fileio.WriteRuntime(paths, rt.Document, snapshot, plan); err != nil {
		return fmt.Errorf("persisting launch plan: %w", err)
	}
	return nil
}

// Drifted reports whether a persisted plan no longer matches the runtime it
// would be rebuilt from.
func Drifted(paths core.InstancePaths, plan core.LaunchPlan, doc core.Document, inputsHash string) bool {
	snapshot, err := fileio.LoadSnapshot(paths.RuntimeState)
	if err != nil {
		return true
	}
	docHash, err := doc.Hash()
	if err != nil || snapshot.DocumentHash != docHash {
		return true
	}
	return plan.InputsHash != inputsHash
}
