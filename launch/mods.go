package launch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
)

const (
	fabricModJSON   = "fabric.mod.json"
	quiltModJSON    = "quilt.mod.json"
	forgeModsTOML   = "META-INF/mods.toml"
	neoforgeModTOML = "META-INF/neoforge.mods.toml"
	legacyModInfo   = "mcmod.info"
)

// ModInfo is what a mod jar declares about itself.
type ModInfo struct {
	File    string
	IDs     []string
	Loaders []core.LoaderKind
	// Minecraft holds the depends.minecraft ranges of a Fabric mod.
	Minecraft []string
}

type fabricManifest struct {
	ID      string                     `json:"id"`
	Depends map[string]json.RawMessage `json:"depends"`
}

type quiltManifest struct {
	QuiltLoader struct {
		ID string `json:"id"`
	} `json:"quilt_loader"`
}

type modsTOML struct {
	ModLoader string `toml:"modLoader"`
	Mods      []struct {
		ModID string `toml:"modId"`
	} `toml:"mods"`
}

// InspectMod reads the loader metadata files of one jar.
func InspectMod(path string) (ModInfo, error) {
	info := ModInfo{File: filepath.Base(path)}
	entries, err := fileio.ReadZipEntries(path, fabricModJSON, quiltModJSON, forgeModsTOML, neoforgeModTOML, legacyModInfo)
	if err != nil {
		return info, core.NewError(core.KindIntegrity, "inspect mod", path, err)
	}

	if data, ok := entries[fabricModJSON]; ok {
		var m fabricManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return info, core.NewError(core.KindIntegrity, "parse "+fabricModJSON, path, err)
		}
		info.IDs = append(info.IDs, m.ID)
		info.Loaders = append(info.Loaders, core.LoaderFabric)
		info.Minecraft = dependencyRanges(m.Depends["minecraft"])
	}
	if data, ok := entries[quiltModJSON]; ok {
		var m quiltManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return info, core.NewError(core.KindIntegrity, "parse "+quiltModJSON, path, err)
		}
		info.IDs = append(info.IDs, m.QuiltLoader.ID)
		info.Loaders = append(info.Loaders, core.LoaderQuilt)
	}
	for name, kind := range map[string]core.LoaderKind{forgeModsTOML: core.LoaderForge, neoforgeModTOML: core.LoaderNeoForge} {
		data, ok := entries[name]
		if !ok {
			continue
		}
		var m modsTOML
		if err := toml.Unmarshal(data, &m); err != nil {
			return info, core.NewError(core.KindIntegrity, "parse "+name, path, err)
		}
		for _, mod := range m.Mods {
			info.IDs = append(info.IDs, mod.ModID)
		}
		info.Loaders = append(info.Loaders, kind)
	}
	if _, ok := entries[legacyModInfo]; ok && len(info.Loaders) == 0 {
		info.Loaders = append(info.Loaders, core.LoaderForge)
	}
	sort.Slice(info.Loaders, func(i, j int) bool { return info.Loaders[i] < info.Loaders[j] })
	return info, nil
}

// dependencyRanges accepts a single range string or a list of alternatives.
func dependencyRanges(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

// acceptedBy lists which mod metadata kinds a loader can load.
func acceptedBy(loader core.LoaderKind) []core.LoaderKind {
	switch loader {
	case core.LoaderQuilt:
		return []core.LoaderKind{core.LoaderQuilt, core.LoaderFabric}
	case core.LoaderNeoForge:
		return []core.LoaderKind{core.LoaderNeoForge, core.LoaderForge}
	}
	return []core.LoaderKind{loader}
}

// Compatible reports whether the loader can load a mod with this metadata.
func (m ModInfo) Compatible(loader core.LoaderKind) bool {
	for _, accepted := range acceptedBy(loader) {
		for _, l := range m.Loaders {
			if l == accepted {
				return true
			}
		}
	}
	return false
}

// fabricRangeConstraint rewrites a Fabric version range into semver syntax:
// space separated comparators become comma separated ones.
func fabricRangeConstraint(r string) (*semver.Constraints, error) {
	r = strings.TrimSpace(r)
	if r == "" || r == "*" {
		return semver.NewConstraint("*")
	}
	var alternatives []string
	for _, alt := range strings.Split(r, "||") {
		alternatives = append(alternatives, strings.Join(strings.Fields(alt), ", "))
	}
	return semver.NewConstraint(strings.Join(alternatives, " || "))
}

// MinecraftMatches is false only when every declared range parses and none
// accepts gameVersion.
func (m ModInfo) MinecraftMatches(gameVersion string) bool {
	if len(m.Minecraft) == 0 {
		return true
	}
	v, err := semver.NewVersion(gameVersion)
	if err != nil {
		return true
	}
	for _, r := range m.Minecraft {
		c, err := fabricRangeConstraint(r)
		if err != nil {
			return true
		}
		if c.Check(v) {
			return true
		}
	}
	return false
}

// ModScan is the result of checking a mods directory against a loader.
type ModScan struct {
	Mods     []ModInfo
	Errors   []string
	Warnings []string
}

// ScanMods inspects every jar directly inside modsDir. Jars no loader can read
// and mods built for another loader are errors; game version range mismatches
// and jars without any metadata are warnings.
func ScanMods(modsDir string, loader core.LoaderKind, gameVersion string) ModScan {
	var scan ModScan
	entries, err := os.ReadDir(modsDir)
	if err != nil {
		return scan
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jar") {
			continue
		}
		info, err := InspectMod(filepath.Join(modsDir, e.Name()))
		if err != nil {
			scan.Errors = append(scan.Errors, fmt.Sprintf("%s is unreadable: %v", e.Name(), err))
			continue
		}
		scan.Mods = append(scan.Mods, info)
		switch {
		case loader == core.LoaderVanilla:
			scan.Warnings = append(scan.Warnings, fmt.Sprintf("%s is ignored by vanilla Minecraft", e.Name()))
		case len(info.Loaders) == 0:
			scan.Warnings = append(scan.Warnings, fmt.Sprintf("%s declares no mod metadata", e.Name()))
		case !info.Compatible(loader):
			scan.Errors = append(scan.Errors, fmt.Sprintf("%s is built for %v, not %s", e.Name(), info.Loaders, loader.FriendlyName()))
		case !info.MinecraftMatches(gameVersion):
			scan.Warnings = append(scan.Warnings, fmt.Sprintf("%s declares minecraft %s, instance runs %s",
				e.Name(), strings.Join(info.Minecraft, " or "), gameVersion))
		}
	}
	return scan
}
