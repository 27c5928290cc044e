package launch

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/internal/testutil"
	"github.com/leocov-dev/launchwiz/java"
	"github.com/leocov-dev/launchwiz/resolver"
)

func linux() core.Platform {
	return core.Platform{OS: "linux", Arch: "x86_64", Features: map[string]bool{}}
}

const fabricProfile = `{
	"id": "fabric-loader-0.15.11-1.20.1",
	"inheritsFrom": "1.20.1",
	"jar": "1.20.1",
	"type": "release",
	"mainClass": "net.fabricmc.loader.impl.launch.knot.KnotClient",
	"assetIndex": {"id": "5"},
	"javaVersion": {"component": "java-runtime-gamma", "majorVersion": 17},
	"downloads": {"client": {"sha1": "%s", "url": "https://piston-data.mojang.com/client.jar"}},
	"libraries": [
		{"name": "net.fabricmc:fabric-loader:0.15.11", "url": "https://maven.fabricmc.net/"},
		{"name": "net.fabricmc:intermediary:1.20.1", "url": "https://maven.fabricmc.net/"},
		{"name": "org.ow2.asm:asm:9.6", "url": "https://maven.fabricmc.net/"},
		{"name": "org.ow2.asm:asm:9.3", "downloads": {"artifact": {"path": "org/ow2/asm/asm/9.3/asm-9.3.jar", "url": "https://libraries.minecraft.net/org/ow2/asm/asm/9.3/asm-9.3.jar", "sha1": "aa", "size": 1}}},
		{"name": "com.mojang:logging:1.1.1", "downloads": {"artifact": {"path": "com/mojang/logging/1.1.1/logging-1.1.1.jar", "url": "https://libraries.minecraft.net/com/mojang/logging/1.1.1/logging-1.1.1.jar", "sha1": "bb", "size": 1}}},
		{"name": "ca.weblite:java-objc-bridge:1.1", "rules": [{"action": "allow", "os": {"name": "osx"}}],
			"downloads": {"artifact": {"path": "ca/weblite/java-objc-bridge/1.1/java-objc-bridge-1.1.jar", "url": "https://libraries.minecraft.net/x.jar", "sha1": "cc", "size": 1}}},
		{"name": "org.lwjgl.lwjgl:lwjgl-platform:2.9.4", "natives": {"linux": "natives-linux"},
			"downloads": {"classifiers": {"natives-linux": {"path": "org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-linux.jar", "url": "https://libraries.minecraft.net/n.jar", "sha1": "dd", "size": 1}}}}
	],
	"arguments": {
		"game": [
			"--username", "${auth_player_name}", "--version", "${version_name}",
			"--gameDir", "${game_directory}", "--assetsDir", "${assets_root}",
			"--assetIndex", "${assets_index_name}", "--uuid", "${auth_uuid}",
			"--accessToken", "${auth_access_token}", "--clientId", "${clientid}",
			"--xuid", "${auth_xuid}", "--userType", "${user_type}", "--versionType", "${version_type}",
			{"rules": [{"action": "allow", "features": {"is_demo_user": true}}], "value": "--demo"},
			{"rules": [{"action": "allow", "features": {"has_custom_resolution": true}}], "value": ["--width", "${resolution_width}", "--height", "${resolution_height}"]},
			"--demo"
		],
		"jvm": [
			{"rules": [{"action": "allow", "os": {"name": "osx"}}], "value": ["-XstartOnFirstThread"]},
			"-Djava.library.path=${natives_directory}",
			"-Dminecraft.launcher.brand=${launcher_name}",
			"-cp", "${classpath}"
		]
	}
}`

type fixture struct {
	inst      core.Instance
	paths     core.InstancePaths
	rt        *resolver.Runtime
	clientJar string
	libs      []string
}

// newFabricFixture lays out an instance whose Fabric runtime is fully
// provisioned: metadata, client jar and every linux classpath library.
func newFabricFixture(t *testing.T) *fixture {
	t.Helper()
	tmp := t.TempDir()
	inst := core.Instance{
		ID:            "survival",
		Name:          "Survival",
		GameVersion:   "1.20.1",
		Loader:        "fabric",
		LoaderVersion: "0.15.11",
		JavaMode:      core.JavaAuto,
		Dir:           filepath.Join(tmp, "instances", "survival"),
	}
	paths := core.NewInstancePaths(inst, filepath.Join(tmp, "root"))
	require.NoError(t, fileio.WriteInstanceMetadata(paths, inst))

	clientJar := paths.ClientJar("1.20.1")
	data := testutil.WriteClientJar(t, clientJar)
	sha, err := core.HashBytes(data, "sha1")
	require.NoError(t, err)

	doc, err := core.ParseDocument([]byte(fmt.Sprintf(fabricProfile, sha)))
	require.NoError(t, err)

	var libs []string
	for _, rel := range []string{
		"net/fabricmc/fabric-loader/0.15.11/fabric-loader-0.15.11.jar",
		"net/fabricmc/intermediary/1.20.1/intermediary-1.20.1.jar",
		"org/ow2/asm/asm/9.6/asm-9.6.jar",
		"com/mojang/logging/1.1.1/logging-1.1.1.jar",
	} {
		p := filepath.Join(paths.LibrariesDir, filepath.FromSlash(rel))
		testutil.LibraryJar(t, p)
		libs = append(libs, p)
	}

	return &fixture{
		inst:  inst,
		paths: paths,
		rt: &resolver.Runtime{
			Document: doc,
			Profile: core.LoaderProfile{
				Kind:          core.LoaderFabric,
				ID:            "fabric-loader-0.15.11-1.20.1",
				LoaderVersion: "0.15.11",
				BaseID:        "1.20.1",
			},
			GameVersion: "1.20.1",
		},
		clientJar: clientJar,
		libs:      libs,
	}
}

func (fx *fixture) build(t *testing.T, opts Options, auth core.Auth) (core.LaunchPlan, core.RuntimeVersionSnapshot) {
	t.Helper()
	b := NewBuilder(linux(), opts, nil)
	plan, snapshot, err := b.Build(BuildInput{
		Instance: fx.inst,
		Paths:    fx.paths,
		Runtime:  fx.rt,
		Java:     java.Runtime{Path: "/usr/lib/jvm/17/bin/java", Major: 17, Source: "system"},
		Auth:     auth,
	})
	require.NoError(t, err)
	return plan, snapshot
}

// persisted builds and writes the plan so validation sees a complete runtime.
func (fx *fixture) persisted(t *testing.T) core.LaunchPlan {
	t.Helper()
	plan, snapshot := fx.build(t, Options{}, core.Auth{PlayerName: "Steve"})
	require.NoError(t, Persist(fx.paths, fx.rt, plan, snapshot))
	require.NoError(t, os.MkdirAll(fx.paths.LauncherLogs, 0o755))
	return plan
}

func writeModJar(t *testing.T, modsDir, name string, entries map[string]string) string {
	t.Helper()
	files := make(map[string][]byte, len(entries))
	for k, v := range entries {
		files[k] = []byte(v)
	}
	p := filepath.Join(modsDir, name)
	testutil.WriteJar(t, p, files)
	return p
}
