// Package java finds, checks and installs the Java runtime a game version needs.
package java

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/leocov-dev/launchwiz/core"
)

const probeTimeout = 15 * time.Second

var versionOutputPattern = regexp.MustCompile(`version "([^"]+)"`)

// RequiredMajor is the Java major a version document asks for, derived from
// the game version when the document carries no javaVersion.
func RequiredMajor(doc core.Document, gameVersion string) int {
	return core.RequiredJavaMajor(doc, gameVersion)
}

// ParseMajor reads the major from a Java version string: "1.8.0_392" is 8,
// "17.0.8" is 17 and "21" is 21.
func ParseMajor(version string) (int, error) {
	v := strings.TrimSpace(version)
	v = strings.Trim(v, `"`)
	if strings.HasPrefix(v, "1.") {
		v = v[2:]
	}
	end := strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		v = v[:end]
	}
	major, err := strconv.Atoi(v)
	if err != nil || major <= 0 {
		return 0, fmt.Errorf("unrecognized java version %q", version)
	}
	return major, nil
}

// BinaryName is the executable name of the Java launcher on this OS.
func BinaryName() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

// HomeOf returns the installation directory of a java binary (…/bin/java).
func HomeOf(javaPath string) string {
	return filepath.Dir(filepath.Dir(javaPath))
}

// Probe returns the major version of a java binary, reading the release file
// of its installation and falling back to running `java -version`.
func Probe(ctx context.Context, javaPath string) (int, error) {
	info, err := os.Stat(javaPath)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", javaPath)
	}
	if major, err := releaseMajor(filepath.Join(HomeOf(javaPath), "release")); err == nil {
		return major, nil
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, javaPath, "-version").CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("running %s -version: %w", javaPath, err)
	}
	m := versionOutputPattern.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no version in output of %s -version", javaPath)
	}
	return ParseMajor(string(m[1]))
}

func releaseMajor(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if ok && strings.TrimSpace(key) == "JAVA_VERSION" {
			return ParseMajor(value)
		}
	}
	return 0, fmt.Errorf("%s has no JAVA_VERSION", path)
}
