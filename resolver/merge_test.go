package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leocov-dev/launchwiz/core"
)

func mustDoc(t *testing.T, s string) core.Document {
	t.Helper()
	doc, err := core.ParseDocument([]byte(s))
	require.NoError(t, err)
	return doc
}

func TestMerge(t *testing.T) {
	parent := mustDoc(t, `{
		"id": "1.20.1",
		"mainClass": "net.minecraft.client.main.Main",
		"type": "release",
		"libraries": [{"name": "com.mojang:logging:1.1.1"}, {"name": "org.ow2.asm:asm:9.3"}],
		"arguments": {"game": ["--username", "${auth_player_name}"], "jvm": ["-Xss1M"]},
		"downloads": {"client": {"url": "https://example.invalid/client.jar", "sha1": "aa"}},
		"javaVersion": {"component": "java-runtime-gamma", "majorVersion": 17}
	}`)
	child := mustDoc(t, `{
		"id": "fabric-loader-0.15.11-1.20.1",
		"inheritsFrom": "1.20.1",
		"mainClass": "net.fabricmc.loader.impl.launch.knot.KnotClient",
		"libraries": [{"name": "org.ow2.asm:asm:9.6"}, {"name": "net.fabricmc:fabric-loader:0.15.11"}],
		"arguments": {"game": [], "jvm": ["-DFabricMcEmu= net.minecraft.client.main.Main "]},
		"javaVersion": {"majorVersion": 21}
	}`)

	merged := Merge(parent, child)

	names := make([]string, 0)
	for _, lib := range merged.Libraries() {
		names = append(names, lib.Name)
	}
	assert.Equal(t, []string{
		"org.ow2.asm:asm:9.6",
		"net.fabricmc:fabric-loader:0.15.11",
		"com.mojang:logging:1.1.1",
		"org.ow2.asm:asm:9.3",
	}, names)
	assert.Equal(t, "fabric-loader-0.15.11-1.20.1", merged.String("id"))
	assert.Equal(t, core.FabricMainClass, merged.String("mainClass"))
	assert.Equal(t, "release", merged.String("type"))
	assert.Len(t, merged.List("arguments", "game"), 2)
	assert.Equal(t, []interface{}{"-Xss1M", "-DFabricMcEmu= net.minecraft.client.main.Main "}, merged.List("arguments", "jvm"))
	assert.Equal(t, "java-runtime-gamma", merged.String("javaVersion", "component"))
	assert.Equal(t, int64(21), merged.Int("javaVersion", "majorVersion"))
	assert.Equal(t, "aa", merged.String("downloads", "client", "sha1"))

	// inputs are untouched
	assert.Len(t, parent.List("libraries"), 2)
	assert.Equal(t, "1.20.1", parent.String("id"))
	assert.Len(t, child.List("libraries"), 2)
}

func TestNormalize(t *testing.T) {
	profile := core.LoaderProfile{Kind: core.LoaderForge, ID: "1.20.1-forge-47.2.0", LoaderVersion: "47.2.0", BaseID: "1.20.1"}

	doc := Normalize(mustDoc(t, `{"id": "x", "inheritsFrom": "1.20", "jar": "1.20", "mainClass": "cpw.mods.modlauncher.Launcher"}`), profile)
	assert.Equal(t, "1.20.1-forge-47.2.0", doc.String("id"))
	assert.Equal(t, "1.20.1", doc.String("inheritsFrom"))
	assert.Equal(t, "1.20.1", doc.String("jar"))
	assert.Equal(t, core.ModLauncherMainClass, doc.String("mainClass"))

	doc = Normalize(mustDoc(t, `{"mainClass": "net.minecraft.client.main.Main"}`), profile)
	assert.Equal(t, core.BootstrapLauncherMainClass, doc.String("mainClass"))

	vanilla := core.LoaderProfile{Kind: core.LoaderVanilla, ID: "1.20.1", BaseID: "1.20.1"}
	doc = Normalize(mustDoc(t, `{"id": "1.20.1", "inheritsFrom": "junk", "mainClass": ""}`), vanilla)
	_, has := doc.Path("inheritsFrom")
	assert.False(t, has)
	assert.Equal(t, core.VanillaMainClass, doc.String("mainClass"))
}

func writeProfile(t *testing.T, versionsDir, id, body string) {
	t.Helper()
	dir := filepath.Join(versionsDir, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(body), 0o644))
}

func TestDiscoverProfileID(t *testing.T) {
	versions := t.TempDir()
	writeProfile(t, versions, "fabric-loader-0.15.11-1.20.1", `{}`)
	writeProfile(t, versions, "1.20.1-forge1.20.1-47.2.0", `{}`)
	writeProfile(t, versions, "1.20.1-Forge_47.1.0-custom", `{}`)
	writeProfile(t, versions, "neoforge-20.4.237", `{}`)
	require.NoError(t, os.MkdirAll(filepath.Join(versions, "1.20.1-forge-47.3.0"), 0o755))

	id, err := DiscoverProfileID(versions, core.LoaderFabric, "1.20.1", "0.15.11")
	require.NoError(t, err)
	assert.Equal(t, "fabric-loader-0.15.11-1.20.1", id)

	id, err = DiscoverProfileID(versions, core.LoaderForge, "1.20.1", "47.2.0")
	require.NoError(t, err)
	assert.Equal(t, "1.20.1-forge1.20.1-47.2.0", id)

	id, err = DiscoverProfileID(versions, core.LoaderForge, "1.20.1", "47.1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.20.1-Forge_47.1.0-custom", id)

	// directory without a profile document does not count
	_, err = DiscoverProfileID(versions, core.LoaderForge, "1.20.1", "47.3.0")
	assert.ErrorIs(t, err, core.ErrMissingMetadata)

	// a NeoForge profile never satisfies Forge
	_, err = DiscoverProfileID(versions, core.LoaderForge, "1.20.4", "20.4.237")
	assert.Error(t, err)

	id, err = DiscoverProfileID(versions, core.LoaderNeoForge, "1.20.4", "20.4.237")
	require.NoError(t, err)
	assert.Equal(t, "neoforge-20.4.237", id)

	_, err = DiscoverProfileID(filepath.Join(versions, "missing"), core.LoaderQuilt, "1.20.1", "0.25.0")
	assert.Error(t, err)
}

func TestValidateEvidence(t *testing.T) {
	good := mustDoc(t, `{"id": "fabric-loader-0.15.11-1.20.1", "inheritsFrom": "1.20.1",
		"mainClass": "net.fabricmc.loader.impl.launch.knot.KnotClient",
		"libraries": [{"name": "net.fabricmc:fabric-loader:0.15.11"}]}`)
	assert.NoError(t, ValidateEvidence(good, core.LoaderFabric, "1.20.1", "0.15.11"))
	assert.Error(t, ValidateEvidence(good, core.LoaderFabric, "1.20.1", "0.16.0"))
	assert.Error(t, ValidateEvidence(good, core.LoaderFabric, "1.19.4", "0.15.11"))
	assert.Error(t, ValidateEvidence(good, core.LoaderQuilt, "1.20.1", "0.15.11"))

	forge := mustDoc(t, `{"id": "1.20.1-forge-47.2.0", "inheritsFrom": "1.20.1",
		"mainClass": "cpw.mods.bootstraplauncher.BootstrapLauncher",
		"libraries": [{"name": "net.minecraftforge:fmlloader:1.20.1-47.2.0"}]}`)
	assert.NoError(t, ValidateEvidence(forge, core.LoaderForge, "1.20.1", "47.2.0"))
	assert.Error(t, ValidateEvidence(forge, core.LoaderForge, "1.20.1", "47.1.0"))
}
