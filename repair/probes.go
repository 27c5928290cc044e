package repair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/download"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/launch"
	"github.com/leocov-dev/launchwiz/resolver"
)

// DisabledModsDir holds mod jars repair took out of the load path.
const DisabledModsDir = ".disabled"

const (
	ProbeVersion   = "version"
	ProbeLibraries = "libraries"
	ProbeAssets    = "assets"
	ProbeLoader    = "loader"
	ProbeMods      = "mods"
	ProbeConfig    = "config"
	ProbeWorlds    = "worlds"
	ProbeOptimize  = "optimize"
)

// probeContext is shared by the probes of one repair run.
type probeContext struct {
	ctx      context.Context
	inst     core.Instance
	paths    core.InstancePaths
	doc      core.Document
	platform core.Platform
	ignore   *fileio.RepairIgnore
	deep     bool
	mutate   bool
	log      *zap.Logger
}

type probeResult struct {
	fixed  int
	issues []string
	// pending counts runtime files removed or missing that provisioning restores.
	pending int
	// unresolved counts issues nothing in this run can fix.
	unresolved int
	reinstall  bool
}

func (r *probeResult) issue(format string, args ...interface{}) {
	r.issues = append(r.issues, fmt.Sprintf(format, args...))
}

type probe struct {
	name string
	run  func(pc *probeContext) probeResult
}

var (
	versionProbe   = probe{ProbeVersion, probeVersion}
	librariesProbe = probe{ProbeLibraries, probeLibraries}
	assetsProbe    = probe{ProbeAssets, probeAssets}
	loaderProbe    = probe{ProbeLoader, probeLoader}
	modsProbe      = probe{ProbeMods, probeMods}
	configProbe    = probe{ProbeConfig, probeConfig}
	worldsProbe    = probe{ProbeWorlds, probeWorlds}
)

func probesFor(mode core.RepairMode) []probe {
	switch mode {
	case core.RepairModsOnly:
		return []probe{modsProbe}
	case core.RepairReinstallLoader:
		return []probe{versionProbe, librariesProbe, loaderProbe}
	}
	return []probe{versionProbe, librariesProbe, assetsProbe, loaderProbe, modsProbe, configProbe, worldsProbe}
}

// checkTasks verifies runtime files in parallel. Missing files are always
// reported; contents are only hashed on a deep run. Bad files are removed
// when the run may mutate.
func checkTasks(pc *probeContext, what string, tasks []download.Task) probeResult {
	var (
		mu  sync.Mutex
		res probeResult
	)
	g, _ := errgroup.WithContext(pc.ctx)
	g.SetLimit(runtime.NumCPU())
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if pc.ctx.Err() != nil {
				return nil
			}
			var problem string
			if !fileio.Exists(task.Dest) {
				problem = fmt.Sprintf("%s %s is missing", what, task.Name)
			} else if pc.deep {
				if err := task.Verify(); err != nil {
					problem = fmt.Sprintf("%s %s is corrupt: %v", what, task.Name, err)
					if pc.mutate {
						if rmErr := os.Remove(task.Dest); rmErr != nil {
							pc.log.Warn("could not remove corrupt file", zap.String("path", task.Dest), zap.Error(rmErr))
						}
					}
				}
			}
			if problem == "" {
				return nil
			}
			mu.Lock()
			res.issues = append(res.issues, problem)
			res.pending++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(res.issues)
	return res
}

func baseID(doc core.Document) string {
	if id := doc.String("jar"); id != "" {
		return id
	}
	if id := doc.String("inheritsFrom"); id != "" {
		return id
	}
	return doc.String("id")
}

func probeVersion(pc *probeContext) probeResult {
	var res probeResult
	if pc.doc == nil {
		res.issue("no resolved version document at %s", pc.paths.VersionJSON)
		res.pending++
		return res
	}
	if err := pc.doc.Require("id", "mainClass", "libraries"); err != nil {
		res.issue("version document is incomplete: %v", err)
		res.pending++
		return res
	}
	task, err := resolver.ClientTask(pc.doc, pc.paths.ClientJar(baseID(pc.doc)))
	if err != nil {
		task = download.Task{
			Name:           "client jar",
			Dest:           pc.paths.ClientJar(baseID(pc.doc)),
			RequireArchive: true,
			ArchiveMarkers: fileio.ClientMarkers,
		}
	}
	task.Name = "client jar " + filepath.Base(task.Dest)
	return checkTasks(pc, "version", []download.Task{task})
}

func probeLibraries(pc *probeContext) probeResult {
	if pc.doc == nil {
		return probeResult{}
	}
	tasks, _, err := resolver.LibraryTasks(pc.doc, pc.paths.LibrariesDir, pc.platform)
	if err != nil {
		var res probeResult
		res.issue("library list is unusable: %v", err)
		res.pending++
		return res
	}
	return checkTasks(pc, "library", tasks)
}

func probeAssets(pc *probeContext) probeResult {
	var res probeResult
	if pc.doc == nil {
		return res
	}
	id := pc.doc.String("assetIndex", "id")
	if id == "" {
		return res
	}
	indexPath := resolver.AssetIndexPath(pc.paths.AssetsDir, id)
	indexTask, ok := resolver.AssetIndexTask(pc.doc, pc.paths.AssetsDir)
	if !ok {
		indexTask = download.Task{Name: "asset index " + id, Dest: indexPath}
	}
	res = checkTasks(pc, "asset", []download.Task{indexTask})
	if res.pending > 0 {
		return res
	}
	index, err := resolver.LoadAssetIndex(indexPath)
	if err != nil {
		res.issue("asset index %s is unreadable: %v", id, err)
		res.pending++
		if pc.mutate {
			_ = os.Remove(indexPath)
		}
		return res
	}

	tasks := make([]download.Task, 0, len(index.Objects))
	for name, obj := range index.Objects {
		if len(obj.Hash) < 2 {
			continue
		}
		hash := strings.ToLower(obj.Hash)
		tasks = append(tasks, download.Task{
			Name: name,
			Dest: resolver.AssetObjectPath(pc.paths.AssetsDir, hash),
			Hash: hash,
			Size: obj.Size,
		})
	}
	objects := checkTasks(pc, "asset", tasks)
	res.issues = append(res.issues, objects.issues...)
	res.pending += objects.pending
	return res
}

func probeLoader(pc *probeContext) probeResult {
	var res probeResult
	kind, err := pc.inst.LoaderKind()
	if err != nil {
		res.issue("instance loader: %v", err)
		res.unresolved++
		return res
	}
	if kind == core.LoaderVanilla || pc.doc == nil {
		return res
	}

	id := pc.doc.String("id")
	profile, err := core.LoadDocument(pc.paths.VersionFile(id))
	switch {
	case err != nil:
		res.issue("%s profile %s is not installed", kind.FriendlyName(), id)
	default:
		if evErr := resolver.ValidateEvidence(profile, kind, pc.inst.GameVersion, pc.inst.LoaderVersion); evErr != nil {
			res.issue("%s profile %s failed evidence checks: %v", kind.FriendlyName(), id, evErr)
		}
	}
	if mc := pc.doc.String("mainClass"); !kind.MainClassAccepted(mc) {
		res.issue("resolved main class %s is not a %s entrypoint", mc, kind.FriendlyName())
	}
	if len(res.issues) == 0 {
		return res
	}
	res.reinstall = true
	res.pending++
	if pc.mutate {
		if err := resolver.Purge(pc.paths, id); err != nil {
			pc.log.Warn("could not purge loader profile", zap.String("profile", id), zap.Error(err))
		}
	}
	return res
}

// probeMods moves unreadable and wrong-loader jars into mods/.disabled.
func probeMods(pc *probeContext) probeResult {
	var res probeResult
	modsDir := pc.paths.ModsDir()
	entries, err := os.ReadDir(modsDir)
	if err != nil {
		return res
	}
	kind, _ := pc.inst.LoaderKind()

	owners := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jar") {
			continue
		}
		path := filepath.Join(modsDir, e.Name())
		if pc.ignore.Ignored(path) {
			continue
		}

		var reason string
		info, err := launch.InspectMod(path)
		switch {
		case err != nil:
			reason = "unreadable"
		case kind != core.LoaderVanilla && len(info.Loaders) > 0 && !info.Compatible(kind):
			reason = fmt.Sprintf("built for %v, not %s", info.Loaders, kind.FriendlyName())
		}
		if reason == "" {
			for _, id := range info.IDs {
				owners[id] = append(owners[id], e.Name())
			}
			continue
		}

		res.issue("mod %s is %s", e.Name(), reason)
		if !pc.mutate {
			continue
		}
		dest := fileio.UniquePath(filepath.Join(modsDir, DisabledModsDir, e.Name()))
		if err := fileio.MoveFile(path, dest); err != nil {
			res.issue("could not disable %s: %v", e.Name(), err)
			res.unresolved++
			continue
		}
		pc.log.Info("disabled mod", zap.String("mod", e.Name()), zap.String("reason", reason))
		res.fixed++
	}

	ids := make([]string, 0, len(owners))
	for id := range owners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if files := owners[id]; len(files) > 1 {
			res.issue("mod id %s is provided by %s", id, strings.Join(files, ", "))
			res.unresolved++
		}
	}
	return res
}

func configValid(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Valid(data)
	case ".toml":
		var v map[string]interface{}
		return toml.Unmarshal(data, &v) == nil
	}
	return true
}

// probeConfig renames config files that no longer parse to <name>.bak so the
// mod regenerates its defaults.
func probeConfig(pc *probeContext) probeResult {
	var res probeResult
	root := filepath.Join(pc.paths.GameDir, "config")
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || pc.ignore.Ignored(path) {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".toml" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil || len(bytes.TrimSpace(data)) == 0 || configValid(path, data) {
			return nil
		}
		rel, _ := filepath.Rel(pc.paths.GameDir, path)
		res.issue("config %s does not parse", filepath.ToSlash(rel))
		if !pc.mutate {
			return nil
		}
		if err := os.Rename(path, fileio.UniquePath(path+".bak")); err != nil {
			res.issue("could not set aside %s: %v", filepath.ToSlash(rel), err)
			res.unresolved++
			return nil
		}
		res.fixed++
		return nil
	})
	return res
}

// levelDatValid checks for the gzip header every level.dat starts with.
func levelDatValid(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	magic := make([]byte, 2)
	n, _ := f.Read(magic)
	return n == 2 && magic[0] == 0x1f && magic[1] == 0x8b
}

// probeWorlds restores a missing or damaged level.dat from level.dat_old.
func probeWorlds(pc *probeContext) probeResult {
	var res probeResult
	saves := filepath.Join(pc.paths.GameDir, "saves")
	entries, err := os.ReadDir(saves)
	if err != nil {
		return res
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		world := filepath.Join(saves, e.Name())
		level := filepath.Join(world, "level.dat")
		if pc.ignore.Ignored(world) || levelDatValid(level) {
			continue
		}
		backup := filepath.Join(world, "level.dat_old")
		if !levelDatValid(backup) {
			res.issue("world %s has no usable level.dat or level.dat_old", e.Name())
			res.unresolved++
			continue
		}
		res.issue("world %s level.dat is missing or damaged", e.Name())
		if !pc.mutate {
			continue
		}
		if fileio.Exists(level) {
			if err := os.Rename(level, fileio.UniquePath(level+".bak")); err != nil {
				res.issue("could not set aside %s: %v", level, err)
				res.unresolved++
				continue
			}
		}
		if err := fileio.CopyFile(backup, level); err != nil {
			res.issue("could not restore %s: %v", level, err)
			res.unresolved++
			continue
		}
		res.fixed++
	}
	return res
}
