package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/download"
	"github.com/leocov-dev/launchwiz/fileio"
)

const versionJSON = `{"id": "1.20.1", "type": "release", "mainClass": "net.minecraft.client.main.Main", "libraries": []}`

func newTestClient(t *testing.T, mux *http.ServeMux) (*Client, *httptest.Server) {
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	engine := download.New(download.Options{Client: srv.Client(), Attempts: 1})
	endpoints := Endpoints{
		MojangHosts:     []string{srv.URL + "/piston", srv.URL + "/launcher"},
		ManifestPath:    "/mc/game/version_manifest_v2.json",
		JavaRuntimes:    srv.URL + "/launcher/v1/products/java-runtime/all.json",
		FabricMeta:      srv.URL + "/fabric/v2",
		QuiltMeta:       srv.URL + "/quilt/v3",
		ForgeMavens:     []string{srv.URL + "/forge-maven/"},
		NeoForgeMavens:  []string{srv.URL + "/neo-maven"},
		ForgePromotions: srv.URL + "/forge/promotions_slim.json",
		AssetObjects:    srv.URL + "/objects",
	}
	return NewClient(engine, endpoints, nil), srv
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestManifestAndVersionDocumentDomainSwap(t *testing.T) {
	mux := http.NewServeMux()
	sum, err := core.HashBytes([]byte(versionJSON), "sha1")
	require.NoError(t, err)

	var srvURL string
	mux.HandleFunc("/piston/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	mux.HandleFunc("/launcher/mc/game/version_manifest_v2.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"latest": {"release": "1.20.1"}, "versions": [{"id": "1.20.1", "type": "release", "url": "`+srvURL+`/piston/v1/packages/abc/1.20.1.json", "sha1": "`+sum+`"}]}`)
	})
	mux.HandleFunc("/launcher/v1/packages/abc/1.20.1.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, versionJSON)
	})
	c, srv := newTestClient(t, mux)
	srvURL = srv.URL

	manifest, err := c.Manifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.20.1", manifest.Latest.Release)

	entry, ok := manifest.Find("1.20.1")
	require.True(t, ok)
	assert.Equal(t, []string{entry.URL, srv.URL + "/launcher/v1/packages/abc/1.20.1.json"}, c.MirrorsOf(entry.URL))

	dest := filepath.Join(t.TempDir(), "versions", "1.20.1", "1.20.1.json")
	doc, err := c.VersionDocument(context.Background(), entry, dest)
	require.NoError(t, err)
	assert.Equal(t, core.VanillaMainClass, doc.String("mainClass"))
	assert.True(t, fileio.Exists(dest))
}

func TestManifestAllHostsDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	c, _ := newTestClient(t, mux)

	_, err := c.Manifest(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNetwork))
	assert.Contains(t, err.Error(), "/piston/")
	assert.Contains(t, err.Error(), "/launcher/")
}

func TestLatestLoaderPrefersStable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fabric/v2/versions/loader/1.20.1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"loader": {"version": "0.16.0-beta.1", "stable": false}}, {"loader": {"version": "0.15.11", "stable": true}}]`)
	})
	mux.HandleFunc("/quilt/v3/versions/loader/1.20.1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"loader": {"version": "0.26.0-beta.3"}}, {"loader": {"version": "0.25.0"}}]`)
	})
	mux.HandleFunc("/fabric/v2/versions/loader/9.9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})
	c, _ := newTestClient(t, mux)

	v, err := c.LatestLoader(context.Background(), core.LoaderFabric, "1.20.1")
	require.NoError(t, err)
	assert.Equal(t, "0.15.11", v)

	v, err = c.LatestLoader(context.Background(), core.LoaderQuilt, "1.20.1")
	require.NoError(t, err)
	assert.Equal(t, "0.25.0", v)

	_, err = c.LatestLoader(context.Background(), core.LoaderFabric, "9.9")
	assert.True(t, errors.Is(err, core.ErrMissingMetadata))

	_, err = c.LatestLoader(context.Background(), core.LoaderForge, "1.20.1")
	assert.Error(t, err)
}

func TestLoaderProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fabric/v2/versions/loader/1.20.1/0.15.11/profile/json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id": "fabric-loader-0.15.11-1.20.1", "inheritsFrom": "1.20.1", "mainClass": "net.fabricmc.loader.impl.launch.knot.KnotClient",
			"libraries": [{"name": "net.fabricmc:fabric-loader:0.15.11", "url": "https://maven.fabricmc.net/"}]}`)
	})
	mux.HandleFunc("/fabric/v2/versions/loader/1.20.1/0.0.1/profile/json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id": "broken"}`)
	})
	c, _ := newTestClient(t, mux)

	doc, err := c.LoaderProfile(context.Background(), core.LoaderFabric, "1.20.1", "0.15.11")
	require.NoError(t, err)
	assert.Equal(t, ProfileID(core.LoaderFabric, "1.20.1", "0.15.11"), doc.String("id"))

	_, err = c.LoaderProfile(context.Background(), core.LoaderFabric, "1.20.1", "0.0.1")
	assert.True(t, errors.Is(err, core.ErrMissingMetadata))
}

func TestForgeAndNeoForgeVersions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/forge/promotions_slim.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"homepage": "", "promos": {"1.20.1-recommended": "47.2.0", "1.20.1-latest": "47.3.0"}}`)
	})
	mux.HandleFunc("/forge-maven/net/minecraftforge/forge/maven-metadata.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<metadata><versioning><versions><version>1.19.2-43.3.0</version><version>1.19.2-43.4.2</version></versions></versioning></metadata>`))
	})
	mux.HandleFunc("/neo-maven/net/neoforged/neoforge/maven-metadata.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<metadata><versioning><versions><version>20.4.190</version><version>20.4.237</version><version>21.1.1</version></versions></versioning></metadata>`))
	})
	mux.HandleFunc("/neo-maven/net/neoforged/forge/maven-metadata.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<metadata><versioning><versions><version>1.20.1-47.1.84</version><version>1.20.1-47.1.106</version></versions></versioning></metadata>`))
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	v, err := c.ForgeVersion(ctx, "1.20.1")
	require.NoError(t, err)
	assert.Equal(t, "47.2.0", v)

	v, err = c.ForgeVersion(ctx, "1.19.2")
	require.NoError(t, err)
	assert.Equal(t, "43.4.2", v)

	_, err = c.ForgeVersion(ctx, "1.0")
	assert.True(t, errors.Is(err, core.ErrMissingMetadata))

	v, err = c.NeoForgeVersion(ctx, "1.20.4")
	require.NoError(t, err)
	assert.Equal(t, "20.4.237", v)

	v, err = c.NeoForgeVersion(ctx, "1.20.1")
	require.NoError(t, err)
	assert.Equal(t, "47.1.106", v)
}

func TestInstallerPathAndTask(t *testing.T) {
	p, err := InstallerPath(core.LoaderForge, "1.20.1", "47.2.0")
	require.NoError(t, err)
	assert.Equal(t, "net/minecraftforge/forge/1.20.1-47.2.0/forge-1.20.1-47.2.0-installer.jar", p)

	p, err = InstallerPath(core.LoaderNeoForge, "1.20.4", "20.4.237")
	require.NoError(t, err)
	assert.Equal(t, "net/neoforged/neoforge/20.4.237/neoforge-20.4.237-installer.jar", p)

	p, err = InstallerPath(core.LoaderNeoForge, "1.20.1", "47.1.106")
	require.NoError(t, err)
	assert.Equal(t, "net/neoforged/forge/1.20.1-47.1.106/forge-1.20.1-47.1.106-installer.jar", p)

	_, err = InstallerPath(core.LoaderFabric, "1.20.1", "0.15.11")
	assert.Error(t, err)

	sha := strings.Repeat("ab", 20)
	mux := http.NewServeMux()
	mux.HandleFunc("/forge-maven/net/minecraftforge/forge/1.20.1-47.2.0/forge-1.20.1-47.2.0-installer.jar.sha1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sha + "\n"))
	})
	c, srv := newTestClient(t, mux)

	task, err := c.InstallerTask(context.Background(), core.LoaderForge, "1.20.1", "47.2.0", "/tmp/installer.jar")
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/forge-maven/net/minecraftforge/forge/1.20.1-47.2.0/forge-1.20.1-47.2.0-installer.jar"}, task.URLs)
	assert.Equal(t, sha, task.Hash)
	assert.True(t, task.RequireArchive)
}

func TestProfileID(t *testing.T) {
	assert.Equal(t, "quilt-loader-0.25.0-1.20.1", ProfileID(core.LoaderQuilt, "1.20.1", "0.25.0"))
	assert.Equal(t, "1.20.1-forge-47.2.0", ProfileID(core.LoaderForge, "1.20.1", "47.2.0"))
	assert.Equal(t, "neoforge-20.4.237", ProfileID(core.LoaderNeoForge, "1.20.4", "20.4.237"))
	assert.Equal(t, "1.20.1", ProfileID(core.LoaderVanilla, "1.20.1", ""))
}

func fakeJava(t *testing.T, script string) string {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stands in for java")
	}
	path := filepath.Join(t.TempDir(), "java")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestRunInstaller(t *testing.T) {
	root := t.TempDir()
	java := fakeJava(t, `echo "installing $4"; mkdir -p "$4/versions/1.20.1-forge-47.2.0"`)
	logPath := filepath.Join(t.TempDir(), "installer.log")

	err := RunInstaller(context.Background(), InstallerRun{Java: java, Installer: "forge-installer.jar", GameRoot: root, LogPath: logPath}, nil)
	require.NoError(t, err)
	assert.True(t, fileio.Exists(filepath.Join(root, "launcher_profiles.json")))
	assert.True(t, fileio.Exists(filepath.Join(root, "versions", "1.20.1-forge-47.2.0")))

	out, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "installing "+root)
}

func TestRunInstallerFailureAndTimeout(t *testing.T) {
	root := t.TempDir()
	logPath := filepath.Join(t.TempDir(), "installer.log")

	failing := fakeJava(t, `echo "broken" >&2; exit 3`)
	err := RunInstaller(context.Background(), InstallerRun{Java: failing, Installer: "x.jar", GameRoot: root, LogPath: logPath}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLoaderInstall))
	assert.Contains(t, core.Describe(err), logPath)

	hanging := fakeJava(t, `exec sleep 30`)
	start := time.Now()
	err = RunInstaller(context.Background(), InstallerRun{Java: hanging, Installer: "x.jar", GameRoot: root, LogPath: logPath, Timeout: 300 * time.Millisecond}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLoaderInstall))
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 10*time.Second)
}
