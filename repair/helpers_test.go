package repair

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/internal/testutil"
	"github.com/leocov-dev/launchwiz/resolver"
)

const assetText = "{\"language.name\": \"English\"}"

const versionDoc = `{
	"id": "%s",
	"jar": "1.20.1",
	"type": "release",
	"mainClass": "%s",
	"downloads": {"client": {"sha1": "%s", "url": "https://example.invalid/client.jar"}},
	"assetIndex": {"id": "5", "url": "https://example.invalid/indexes/5.json"},
	"libraries": [
		{"name": "com.mojang:logging:1.1.1", "downloads": {"artifact": {
			"path": "com/mojang/logging/1.1.1/logging-1.1.1.jar",
			"url": "https://example.invalid/logging-1.1.1.jar",
			"sha1": "%s"}}}
	]
}`

func linux() core.Platform {
	return core.Platform{OS: "linux", Arch: "x86_64", Features: map[string]bool{}}
}

type fixture struct {
	inst      core.Instance
	paths     core.InstancePaths
	clientJar string
	library   string
	asset     string
}

// newFixture lays out a fully provisioned instance. Fabric instances also get
// an installed loader profile.
func newFixture(t *testing.T, loader string) *fixture {
	t.Helper()
	tmp := t.TempDir()
	inst := core.Instance{
		ID:          "survival",
		GameVersion: "1.20.1",
		Loader:      loader,
		JavaMode:    core.JavaAuto,
		Dir:         filepath.Join(tmp, "instances", "survival"),
	}
	if loader == "fabric" {
		inst.LoaderVersion = "0.15.11"
	}
	paths := core.NewInstancePaths(inst, filepath.Join(tmp, "root"))
	require.NoError(t, os.MkdirAll(paths.GameDir, 0o755))

	fx := &fixture{
		inst:      inst,
		paths:     paths,
		clientJar: paths.ClientJar("1.20.1"),
		library:   filepath.Join(paths.LibrariesDir, "com", "mojang", "logging", "1.1.1", "logging-1.1.1.jar"),
	}
	clientSHA := fx.writeClientJar(t)
	libSHA := fx.writeLibrary(t)

	assetSHA, err := core.HashBytes([]byte(assetText), "sha1")
	require.NoError(t, err)
	fx.asset = resolver.AssetObjectPath(paths.AssetsDir, assetSHA)
	require.NoError(t, fileio.WriteAtomic(fx.asset, []byte(assetText)))
	require.NoError(t, fileio.WriteJSON(resolver.AssetIndexPath(paths.AssetsDir, "5"), map[string]interface{}{
		"objects": map[string]interface{}{
			"minecraft/lang/en_us.json": map[string]interface{}{"hash": assetSHA, "size": len(assetText)},
		},
	}))

	id, mainClass := "1.20.1", core.VanillaMainClass
	if loader == "fabric" {
		id, mainClass = "fabric-loader-0.15.11-1.20.1", core.FabricMainClass
		fx.writeProfile(t, id, "net.fabricmc:fabric-loader:0.15.11")
	}
	require.NoError(t, fileio.WriteAtomic(paths.VersionJSON, []byte(fmt.Sprintf(versionDoc, id, mainClass, clientSHA, libSHA))))
	return fx
}

func (fx *fixture) writeClientJar(t *testing.T) string {
	t.Helper()
	sha, err := core.HashBytes(testutil.WriteClientJar(t, fx.clientJar), "sha1")
	require.NoError(t, err)
	return sha
}

func (fx *fixture) writeLibrary(t *testing.T) string {
	t.Helper()
	data := testutil.WriteJar(t, fx.library, map[string][]byte{"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n")})
	sha, err := core.HashBytes(data, "sha1")
	require.NoError(t, err)
	return sha
}

func (fx *fixture) writeProfile(t *testing.T, id, library string) {
	t.Helper()
	require.NoError(t, fileio.WriteJSON(fx.paths.VersionFile(id), map[string]interface{}{
		"id":           id,
		"inheritsFrom": "1.20.1",
		"mainClass":    core.FabricMainClass,
		"libraries":    []interface{}{map[string]interface{}{"name": library}},
	}))
}

func (fx *fixture) modsDir() string {
	return fx.paths.ModsDir()
}

func writeMod(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	files := make(map[string][]byte, len(entries))
	for k, v := range entries {
		files[k] = []byte(v)
	}
	p := filepath.Join(dir, name)
	testutil.WriteJar(t, p, files)
	return p
}

func fabricMod(id string) map[string]string {
	return map[string]string{"fabric.mod.json": fmt.Sprintf(`{"id": %q}`, id)}
}

func gzipped(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// fakeProvisioner stands in for the resolver. Provision runs restore, which
// tests use to put removed files back.
type fakeProvisioner struct {
	mu           sync.Mutex
	resolves     []resolver.ResolveOptions
	provisions   int
	restore      func()
	resolveErr   error
	provisionErr error
}

func (f *fakeProvisioner) Resolve(_ context.Context, inst core.Instance, _ core.InstancePaths, opts resolver.ResolveOptions) (*resolver.Runtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolves = append(f.resolves, opts)
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &resolver.Runtime{GameVersion: inst.GameVersion}, nil
}

func (f *fakeProvisioner) Provision(context.Context, *resolver.Runtime, core.InstancePaths) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisions++
	if f.provisionErr != nil {
		return f.provisionErr
	}
	if f.restore != nil {
		f.restore()
	}
	return nil
}

func newManager(prov Provisioner) *Manager {
	return NewManager(prov, Options{Platform: linux()})
}
