package repair

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/core/murmur2"
	"github.com/leocov-dev/launchwiz/fileio"
)

// StateFileName sits in the instance runtime directory.
const StateFileName = "repair_state.json"

// cleanState records the last repair run that left no issues behind.
type cleanState struct {
	StateHash string    `json:"stateHash"`
	CleanAt   time.Time `json:"cleanAt"`
}

func statePath(paths core.InstancePaths) string {
	return filepath.Join(paths.RuntimeDir, StateFileName)
}

// StateHash fingerprints what the instance should contain: its identity,
// versions and the sorted list of mod files with their sizes.
func StateHash(inst core.Instance, modsDir string) string {
	var mods []string
	entries, _ := os.ReadDir(modsDir)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jar") {
			continue
		}
		size := int64(-1)
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		mods = append(mods, e.Name()+"="+strconv.FormatInt(size, 10))
	}
	sort.Strings(mods)

	h := murmur2.New()
	fmt.Fprintf(h, "id:%s;version:%s;loader:%s;loaderVersion:%s;", inst.ID, inst.GameVersion, strings.ToLower(inst.Loader), inst.LoaderVersion)
	for _, m := range mods {
		fmt.Fprintf(h, "mod:%s;", m)
	}
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

func loadCleanState(paths core.InstancePaths) (cleanState, bool) {
	var s cleanState
	if err := fileio.ReadJSON(statePath(paths), &s); err != nil || s.StateHash == "" {
		return cleanState{}, false
	}
	return s, true
}

func saveCleanState(paths core.InstancePaths, hash string, now time.Time) error {
	return fileio.WriteJSON(statePath(paths), cleanState{StateHash: hash, CleanAt: now.UTC()})
}
