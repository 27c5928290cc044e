package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/sources"
)

// candidateIDs are the exact profile ids installers and meta APIs have used.
func candidateIDs(kind core.LoaderKind, game, loader string) []string {
	ids := []string{sources.ProfileID(kind, game, loader)}
	switch kind {
	case core.LoaderForge:
		ids = append(ids,
			game+"-forge"+game+"-"+loader,
			"forge-"+loader,
			game+"-Forge"+loader,
		)
	case core.LoaderNeoForge:
		ids = append(ids, "neoforge-"+loader, game+"-neoforge-"+loader, "forge-"+loader)
	}
	seen := make(map[string]bool)
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func loaderKeyword(kind core.LoaderKind) string {
	switch kind {
	case core.LoaderFabric:
		return "fabric"
	case core.LoaderQuilt:
		return "quilt"
	case core.LoaderForge:
		return "forge"
	case core.LoaderNeoForge:
		return "neoforge"
	}
	return ""
}

// DiscoverProfileID finds the installed profile for a loader build. Exact ids
// are tried first, then any version directory whose name carries the loader
// keyword and version, ranked by fuzzy similarity to the expected id.
func DiscoverProfileID(versionsDir string, kind core.LoaderKind, game, loader string) (string, error) {
	for _, id := range candidateIDs(kind, game, loader) {
		if fileio.Exists(filepath.Join(versionsDir, id, id+".json")) {
			return id, nil
		}
	}

	entries, err := os.ReadDir(versionsDir)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	keyword := loaderKeyword(kind)
	var relaxed []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if keyword == "" || !strings.Contains(lower, keyword) || !strings.Contains(name, loader) {
			continue
		}
		if kind == core.LoaderForge && strings.Contains(lower, "neoforge") {
			continue
		}
		if !fileio.Exists(filepath.Join(versionsDir, name, name+".json")) {
			continue
		}
		relaxed = append(relaxed, name)
	}
	if len(relaxed) == 0 {
		return "", core.NewError(core.KindMissingMetadata, "discover profile", versionsDir,
			fmt.Errorf("no installed %s %s profile for %s", kind.FriendlyName(), loader, game))
	}
	sort.Strings(relaxed)
	if matches := fuzzy.Find(sources.ProfileID(kind, game, loader), relaxed); len(matches) > 0 {
		return matches[0].Str, nil
	}
	return relaxed[0], nil
}

// ValidateEvidence checks that an installed profile really is the requested
// loader build: it must inherit from the base, launch through an accepted
// entrypoint and declare the loader's own library.
func ValidateEvidence(doc core.Document, kind core.LoaderKind, game, loader string) error {
	id := doc.String("id")
	if parent := doc.String("inheritsFrom"); parent != "" && parent != game {
		return core.NewError(core.KindMissingMetadata, "profile evidence", id, fmt.Errorf("inherits from %s, expected %s", parent, game))
	}
	if mc := doc.String("mainClass"); !kind.MainClassAccepted(mc) {
		return core.NewError(core.KindMissingMetadata, "profile evidence", id, fmt.Errorf("main class %q is not a %s entrypoint", mc, kind.FriendlyName()))
	}
	want := kind.EvidenceLibrary(loader)
	if want == "" {
		return nil
	}
	for _, lib := range doc.Libraries() {
		if !strings.HasPrefix(lib.Name, want) {
			continue
		}
		if kind == core.LoaderForge || kind == core.LoaderNeoForge {
			if loader != "" && !strings.Contains(lib.Name, loader) {
				continue
			}
		}
		return nil
	}
	return core.NewError(core.KindMissingMetadata, "profile evidence", id, fmt.Errorf("no %s library declared", want))
}
