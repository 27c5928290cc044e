// Package testutil builds jars and version trees for package tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// JarBytes returns a zip holding entries in name order, stored uncompressed.
func JarBytes(t testing.TB, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		require.NoError(t, err)
		_, err = f.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// WriteJar writes a zip holding entries to path.
func WriteJar(t testing.TB, path string, entries map[string][]byte) []byte {
	t.Helper()
	data := JarBytes(t, entries)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return data
}

// ClientJarBytes is a structurally valid client jar just over 1 MiB.
func ClientJarBytes(t testing.TB) []byte {
	t.Helper()
	return JarBytes(t, map[string][]byte{
		"net/minecraft/client/main/Main.class": []byte("\xca\xfe\xba\xbe"),
		"assets/padding.bin":                   bytes.Repeat([]byte{0x5a}, 1<<20+1024),
	})
}

// WriteClientJar writes ClientJarBytes to path and returns the data.
func WriteClientJar(t testing.TB, path string) []byte {
	t.Helper()
	data := ClientJarBytes(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return data
}

// LibraryJar is a small valid jar used for classpath entries.
func LibraryJar(t testing.TB, path string) {
	t.Helper()
	WriteJar(t, path, map[string][]byte{"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n")})
}
