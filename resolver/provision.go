package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/download"
	"github.com/leocov-dev/launchwiz/fileio"
)

// ClientTask is the download of the vanilla client jar a document launches.
func ClientTask(doc core.Document, dest string) (download.Task, error) {
	url := doc.String("downloads", "client", "url")
	if url == "" {
		return download.Task{}, core.NewError(core.KindMissingMetadata, "client jar", doc.String("id"), fmt.Errorf("downloads.client.url is absent"))
	}
	return download.Task{
		Name:           filepath.Base(dest),
		URLs:           []string{url},
		Dest:           dest,
		Hash:           doc.String("downloads", "client", "sha1"),
		Size:           doc.Int("downloads", "client", "size"),
		RequireArchive: true,
		ArchiveMarkers: fileio.ClientMarkers,
	}, nil
}

// LibraryTasks lists every library file allowed on the platform, natives included.
func LibraryTasks(doc core.Document, librariesDir string, p core.Platform) ([]download.Task, []core.LibraryFile, error) {
	var (
		tasks []download.Task
		files []core.LibraryFile
	)
	for _, lib := range doc.Libraries() {
		if !lib.Allowed(p) {
			continue
		}
		libFiles, err := lib.Files(librariesDir, p)
		if err != nil {
			return nil, nil, core.NewError(core.KindMissingMetadata, "library", lib.Name, err)
		}
		for _, f := range libFiles {
			files = append(files, f)
			tasks = append(tasks, download.Task{
				Name:           f.Coordinate.String(),
				URLs:           f.URLs,
				Dest:           f.Path,
				Hash:           f.SHA1,
				Size:           f.Size,
				RequireArchive: f.Coordinate.Extension == "jar",
			})
		}
	}
	return tasks, files, nil
}

// AssetIndex is assets/indexes/<id>.json.
type AssetIndex struct {
	Objects map[string]struct {
		Hash string `json:"hash"`
		Size int64  `json:"size"`
	} `json:"objects"`
	Virtual        bool `json:"virtual"`
	MapToResources bool `json:"map_to_resources"`
}

func AssetIndexPath(assetsDir, id string) string {
	return filepath.Join(assetsDir, "indexes", id+".json")
}

func AssetObjectPath(assetsDir, hash string) string {
	return filepath.Join(assetsDir, "objects", hash[:2], hash)
}

// AssetIndexTask downloads the asset index a document names, if it names one.
func AssetIndexTask(doc core.Document, assetsDir string) (download.Task, bool) {
	id := doc.String("assetIndex", "id")
	url := doc.String("assetIndex", "url")
	if id == "" || url == "" {
		return download.Task{}, false
	}
	return download.Task{
		Name: "asset index " + id,
		URLs: []string{url},
		Dest: AssetIndexPath(assetsDir, id),
		Hash: doc.String("assetIndex", "sha1"),
		Size: doc.Int("assetIndex", "size"),
	}, true
}

func LoadAssetIndex(path string) (AssetIndex, error) {
	var index AssetIndex
	data, err := os.ReadFile(path)
	if err != nil {
		return index, err
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return index, core.NewError(core.KindIntegrity, "parse asset index", path, err)
	}
	return index, nil
}

// AssetTasks lists the object downloads for an index.
func (r *Resolver) AssetTasks(index AssetIndex, assetsDir string) []download.Task {
	base := strings.TrimSuffix(r.sources.Endpoints().AssetObjects, "/")
	tasks := make([]download.Task, 0, len(index.Objects))
	for name, obj := range index.Objects {
		if len(obj.Hash) < 2 {
			continue
		}
		hash := strings.ToLower(obj.Hash)
		tasks = append(tasks, download.Task{
			Name: name,
			URLs: []string{base + "/" + hash[:2] + "/" + hash},
			Dest: AssetObjectPath(assetsDir, hash),
			Hash: hash,
			Size: obj.Size,
		})
	}
	return tasks
}

// Provision makes the client jar, libraries, natives and assets of a runtime
// exist and verify. Files already on disk are checked, not re-downloaded.
func (r *Resolver) Provision(ctx context.Context, rt *Runtime, paths core.InstancePaths) error {
	if err := r.provisionClient(ctx, rt.Document, rt.Profile.BaseID, paths); err != nil {
		return err
	}
	if err := r.provisionLibraries(ctx, rt.Document, paths); err != nil {
		return err
	}
	return r.provisionAssets(ctx, rt.Document, paths)
}

func (r *Resolver) provisionClient(ctx context.Context, doc core.Document, baseID string, paths core.InstancePaths) error {
	task, err := ClientTask(doc, paths.ClientJar(baseID))
	if err != nil {
		return err
	}
	_, err = r.engine.Fetch(ctx, task)
	return err
}

func (r *Resolver) provisionLibraries(ctx context.Context, doc core.Document, paths core.InstancePaths) error {
	tasks, files, err := LibraryTasks(doc, paths.LibrariesDir, r.platform)
	if err != nil {
		return err
	}
	results, err := r.engine.FetchAll(ctx, tasks, download.Libraries, r.progress)
	if err != nil {
		return err
	}

	changed := false
	var natives []core.LibraryFile
	for i, f := range files {
		if !f.Native {
			continue
		}
		natives = append(natives, f)
		if results[i].Source != download.FromDisk {
			changed = true
		}
	}
	if len(natives) == 0 {
		return nil
	}
	if !changed && !dirEmpty(paths.NativesDir) {
		return nil
	}
	return extractNatives(natives, paths.NativesDir, r.log)
}

func extractNatives(natives []core.LibraryFile, dest string, log *zap.Logger) error {
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	if err := os.MkdirAll(dest, os.ModePerm); err != nil {
		return err
	}
	total := 0
	for _, f := range natives {
		exclude := f.Exclude
		n, err := fileio.ExtractZip(f.Path, dest, func(name string) bool {
			for _, prefix := range exclude {
				if strings.HasPrefix(name, prefix) {
					return true
				}
			}
			return false
		})
		if err != nil {
			return fmt.Errorf("extracting natives from %s: %w", f.Path, err)
		}
		total += n
	}
	log.Debug("extracted natives", zap.String("dir", dest), zap.Int("files", total))
	return nil
}

func (r *Resolver) provisionAssets(ctx context.Context, doc core.Document, paths core.InstancePaths) error {
	indexTask, ok := AssetIndexTask(doc, paths.AssetsDir)
	if !ok {
		r.log.Warn("version document names no asset index", zap.String("id", doc.String("id")))
		return nil
	}
	if _, err := r.engine.Fetch(ctx, indexTask); err != nil {
		return err
	}
	index, err := LoadAssetIndex(indexTask.Dest)
	if err != nil {
		return err
	}
	if _, err := r.engine.FetchAll(ctx, r.AssetTasks(index, paths.AssetsDir), download.Assets, r.progress); err != nil {
		return err
	}
	return mapLegacyAssets(index, doc.String("assetIndex", "id"), paths)
}

// mapLegacyAssets copies objects to their named paths for indexes that predate
// the object store: virtual indexes under assets/virtual/<id>, resource-mapped
// ones into the game directory.
func mapLegacyAssets(index AssetIndex, id string, paths core.InstancePaths) error {
	var root string
	switch {
	case index.MapToResources:
		root = filepath.Join(paths.GameDir, "resources")
	case index.Virtual:
		root = filepath.Join(paths.AssetsDir, "virtual", id)
	default:
		return nil
	}
	for name, obj := range index.Objects {
		if len(obj.Hash) < 2 {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if fileio.NonEmptyFile(target) {
			continue
		}
		if err := fileio.CopyFile(AssetObjectPath(paths.AssetsDir, strings.ToLower(obj.Hash)), target); err != nil {
			return fmt.Errorf("mapping legacy asset %s: %w", name, err)
		}
	}
	return nil
}

// Purge removes installed version trees so the next resolve starts clean.
func Purge(paths core.InstancePaths, ids ...string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := os.RemoveAll(paths.VersionDir(id)); err != nil {
			return core.NewError(core.KindRepair, "purge version", paths.VersionDir(id), err)
		}
	}
	return nil
}

func dirEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err != nil || len(entries) == 0
}
