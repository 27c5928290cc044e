package java

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
)

// Candidate is a Java installation found on this machine.
type Candidate struct {
	Path   string
	Major  int
	Source string
}

// searchGlobs are the usual JVM install locations per OS.
func searchGlobs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Library/Java/JavaVirtualMachines/*/Contents/Home/bin/java",
			"/opt/homebrew/opt/openjdk*/bin/java",
			"/usr/local/opt/openjdk*/bin/java",
		}
	case "windows":
		var globs []string
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
			base := os.Getenv(env)
			if base == "" {
				continue
			}
			for _, vendor := range []string{"Java", "Eclipse Adoptium", "Microsoft", "Zulu", "BellSoft"} {
				globs = append(globs, filepath.Join(base, vendor, "*", "bin", "java.exe"))
			}
		}
		return globs
	}
	return []string{
		"/usr/lib/jvm/*/bin/java",
		"/usr/lib64/jvm/*/bin/java",
		"/usr/java/*/bin/java",
		"/opt/java/*/bin/java",
		"/opt/jdk*/bin/java",
	}
}

// Discover lists the Java installations visible through JAVA_HOME, PATH, the
// platform JVM directories and the managed runtimes directory, probing each
// once. Unusable binaries are skipped.
func Discover(ctx context.Context, runtimesDir string) []Candidate {
	type source struct{ path, name string }
	var found []source
	if home := os.Getenv("JAVA_HOME"); home != "" {
		found = append(found, source{filepath.Join(home, "bin", BinaryName()), "JAVA_HOME"})
	}
	if p, err := exec.LookPath(BinaryName()); err == nil {
		found = append(found, source{p, "PATH"})
	}
	for _, g := range searchGlobs() {
		matches, _ := filepath.Glob(g)
		sort.Strings(matches)
		for _, m := range matches {
			found = append(found, source{m, "system"})
		}
	}
	if runtimesDir != "" {
		for _, p := range managedBinaries(runtimesDir) {
			found = append(found, source{p, "managed"})
		}
	}

	seen := make(map[string]bool)
	var candidates []Candidate
	for _, s := range found {
		key := s.path
		if resolved, err := filepath.EvalSymlinks(s.path); err == nil {
			key = resolved
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		major, err := Probe(ctx, s.path)
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{Path: s.path, Major: major, Source: s.name})
	}
	return candidates
}

// managedBinaries lists java binaries of every installed runtime component.
func managedBinaries(runtimesDir string) []string {
	entries, err := os.ReadDir(runtimesDir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if p, ok := findBinary(filepath.Join(runtimesDir, e.Name())); ok {
			out = append(out, p)
		}
	}
	return out
}

// findBinary locates bin/java inside a runtime directory, including the
// macOS bundle layout Mojang ships.
func findBinary(dir string) (string, bool) {
	for _, rel := range []string{
		filepath.Join("bin", BinaryName()),
		filepath.Join("jre.bundle", "Contents", "Home", "bin", BinaryName()),
	} {
		p := filepath.Join(dir, rel)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// pick chooses the candidate for a required major: an exact match first,
// then the lowest newer major when allowNewer is set.
func pick(candidates []Candidate, required int, allowNewer bool) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range candidates {
		if c.Major == required {
			return c, true
		}
		if allowNewer && c.Major > required && (!found || c.Major < best.Major) {
			best = c
			found = true
		}
	}
	return best, found
}
