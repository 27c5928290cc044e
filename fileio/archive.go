package fileio

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/leocov-dev/launchwiz/core"
)

// ClientMarkers are class files found in every client jar since the launcher era.
var ClientMarkers = []string{
	"net/minecraft/client/main/Main.class",
	"net/minecraft/client/Minecraft.class",
}

// ValidateArchive opens path as a zip and, when markers are given, requires at
// least one of them to be present. Failures are IntegrityFailures.
func ValidateArchive(path string, markers ...string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return core.NewError(core.KindIntegrity, "open archive", path, err)
	}
	defer reader.Close()

	if len(reader.File) == 0 {
		return core.NewError(core.KindIntegrity, "open archive", path, fmt.Errorf("archive is empty"))
	}
	if len(markers) == 0 {
		return nil
	}
	for _, file := range reader.File {
		for _, m := range markers {
			if file.Name == m {
				return nil
			}
		}
	}
	return core.NewError(core.KindIntegrity, "inspect archive", path, fmt.Errorf("none of %v present", markers))
}

// ReadZipEntries returns the contents of the named entries that exist in the archive.
func ReadZipEntries(path string, names ...string) (map[string][]byte, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	out := make(map[string][]byte)
	for _, file := range reader.File {
		if !wanted[file.Name] {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", file.Name, path, err)
		}
		out[file.Name] = content
	}
	return out, nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ExtractZip unpacks src into dest, skipping entries for which skip returns true.
// Entries escaping dest are rejected.
func ExtractZip(src, dest string, skip func(name string) bool) (int, error) {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return 0, core.NewError(core.KindIntegrity, "open archive", src, err)
	}
	defer reader.Close()

	cleanDest := filepath.Clean(dest) + string(os.PathSeparator)
	count := 0
	for _, file := range reader.File {
		if skip != nil && skip(file.Name) {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(file.Name))
		if !strings.HasPrefix(target, cleanDest) {
			return count, fmt.Errorf("archive entry %q escapes %s", file.Name, dest)
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return count, err
			}
			continue
		}
		if err := extractZipFile(file, target); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func extractZipFile(file *zip.File, target string) error {
	in, err := file.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := CreateFile(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
