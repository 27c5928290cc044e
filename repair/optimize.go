package repair

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/launch"
)

// DefaultKeepRunLogs is how many launcher runs keep their captured output.
const DefaultKeepRunLogs = 10

// optimize removes interrupted downloads, prunes old run logs and puts back a
// mods directory left aside by an interrupted safe-mode launch.
func optimize(pc *probeContext, keepRunLogs int) probeResult {
	var res probeResult

	for _, root := range []string{pc.paths.VersionsDir, pc.paths.LibrariesDir, pc.paths.AssetsDir, pc.paths.RuntimesDir, pc.paths.Dir} {
		n := removePartFiles(root, pc.log)
		res.fixed += n
	}

	res.fixed += pruneRunLogs(pc.paths.LauncherLogs, keepRunLogs, pc.log)

	restored, err := launch.RestoreLeftoverMods(pc.paths.GameDir)
	if err != nil {
		res.issue("leftover safe-mode directory: %v", err)
		res.unresolved++
	} else if restored {
		pc.log.Info("restored mods left aside by safe mode", zap.String("dir", pc.paths.GameDir))
		res.fixed++
	}
	return res
}

func removePartFiles(root string, log *zap.Logger) int {
	removed := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".part") {
			return nil
		}
		if err := os.Remove(path); err != nil {
			log.Warn("could not remove partial download", zap.String("path", path), zap.Error(err))
			return nil
		}
		removed++
		return nil
	})
	return removed
}

// pruneRunLogs keeps the newest keep runs. Run ids start with a UTC timestamp,
// so name order is age order.
func pruneRunLogs(dir string, keep int, log *zap.Logger) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	runs := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		run, _, _ := strings.Cut(e.Name(), ".")
		runs[run] = append(runs[run], e.Name())
	}
	ids := make([]string, 0, len(runs))
	for id := range runs {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	removed := 0
	for i, id := range ids {
		if i < keep {
			continue
		}
		for _, name := range runs[id] {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				log.Warn("could not remove run log", zap.String("file", name), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed
}
