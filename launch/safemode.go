package launch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/leocov-dev/launchwiz/core"
)

// SafeModeDirName is where the mods directory waits during a safe-mode run.
const SafeModeDirName = "mods.safe-mode"

// ModsGuard keeps the mods directory out of the game's reach until Restore.
type ModsGuard struct {
	modsDir  string
	asideDir string
	hidden   bool

	once sync.Once
	err  error
}

// HideMods moves <gameDir>/mods aside and leaves an empty mods directory in
// its place. A directory left behind by an interrupted safe-mode run is put
// back first.
func HideMods(gameDir string) (*ModsGuard, error) {
	g := &ModsGuard{
		modsDir:  filepath.Join(gameDir, "mods"),
		asideDir: filepath.Join(gameDir, SafeModeDirName),
	}
	if _, err := RestoreLeftoverMods(gameDir); err != nil {
		return nil, err
	}
	if info, err := os.Stat(g.modsDir); err == nil && info.IsDir() {
		if err := os.Rename(g.modsDir, g.asideDir); err != nil {
			return nil, core.NewError(core.KindRepair, "hide mods", g.modsDir, err)
		}
		g.hidden = true
	}
	if err := os.MkdirAll(g.modsDir, os.ModePerm); err != nil {
		_ = g.Restore()
		return nil, core.NewError(core.KindRepair, "hide mods", g.modsDir, err)
	}
	return g, nil
}

// Restore puts the original mods directory back. Only the first call acts;
// later calls return its result.
func (g *ModsGuard) Restore() error {
	g.once.Do(func() {
		if !g.hidden {
			return
		}
		g.err = swapBack(g.modsDir, g.asideDir)
	})
	return g.err
}

// swapBack replaces the placeholder mods directory with the hidden one.
// Anything the game created in the placeholder is discarded.
func swapBack(modsDir, asideDir string) error {
	if err := os.RemoveAll(modsDir); err != nil {
		return core.NewError(core.KindRepair, "restore mods", modsDir, err)
	}
	if err := os.Rename(asideDir, modsDir); err != nil {
		return core.NewError(core.KindRepair, "restore mods", asideDir, err)
	}
	return nil
}

// RestoreLeftoverMods moves a mods.safe-mode directory left by an interrupted
// run back into place. It refuses to overwrite a mods directory that has
// content of its own.
func RestoreLeftoverMods(gameDir string) (bool, error) {
	modsDir := filepath.Join(gameDir, "mods")
	asideDir := filepath.Join(gameDir, SafeModeDirName)
	if info, err := os.Stat(asideDir); err != nil || !info.IsDir() {
		return false, nil
	}
	entries, err := os.ReadDir(modsDir)
	if err != nil && !os.IsNotExist(err) {
		return false, core.NewError(core.KindRepair, "restore mods", modsDir, err)
	}
	if len(entries) > 0 {
		return false, core.NewError(core.KindRepair, "restore mods", asideDir,
			fmt.Errorf("both %s and %s have content", modsDir, asideDir)).
			WithHint(fmt.Sprintf("merge %s into %s by hand", asideDir, modsDir))
	}
	if err := swapBack(modsDir, asideDir); err != nil {
		return false, err
	}
	return true, nil
}
