package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoaderKind(t *testing.T) {
	tests := map[string]LoaderKind{
		"":          LoaderVanilla,
		"Vanilla":   LoaderVanilla,
		"fabric":    LoaderFabric,
		"Quilt":     LoaderQuilt,
		"forge":     LoaderForge,
		"NeoForge":  LoaderNeoForge,
		"neo-forge": LoaderNeoForge,
	}
	for input, want := range tests {
		got, err := ParseLoaderKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLoaderKind("liteloader")
	assert.Error(t, err)
}

func TestMainClassAccepted(t *testing.T) {
	assert.True(t, LoaderFabric.MainClassAccepted(FabricMainClass))
	assert.False(t, LoaderFabric.MainClassAccepted(VanillaMainClass))
	assert.True(t, LoaderForge.MainClassAccepted(LaunchWrapperMainClass))
	assert.True(t, LoaderNeoForge.MainClassAccepted(" "+BootstrapLauncherMainClass+" "))
	assert.False(t, LoaderNeoForge.MainClassAccepted(LaunchWrapperMainClass))
	assert.True(t, LoaderVanilla.MainClassAccepted(VanillaMainClass))
	assert.True(t, LoaderVanilla.MainClassAccepted(LaunchWrapperMainClass))
	assert.False(t, LoaderVanilla.MainClassAccepted(FabricMainClass))
}

func TestRuntimeMarkers(t *testing.T) {
	assert.Nil(t, LoaderVanilla.RuntimeMarkers(VanillaMainClass))

	forge := LoaderForge.RuntimeMarkers(BootstrapLauncherMainClass)
	require.Len(t, forge, 2)
	assert.Equal(t, "bootstraplauncher", forge[0].Name)

	legacy := LoaderForge.RuntimeMarkers(LaunchWrapperMainClass)
	assert.Equal(t, "launchwrapper", legacy[0].Name)

	fabric := LoaderFabric.RuntimeMarkers(FabricMainClass)
	assert.Equal(t, []string{"net/fabricmc/fabric-loader/"}, fabric[0].Fragments)
}

func TestEvidenceLibrary(t *testing.T) {
	assert.Equal(t, "net.fabricmc:fabric-loader:0.15.11", LoaderFabric.EvidenceLibrary("0.15.11"))
	assert.Equal(t, "", LoaderVanilla.EvidenceLibrary(""))
	assert.True(t, LoaderProfile{Kind: LoaderQuilt}.IsModded())
	assert.False(t, LoaderProfile{Kind: LoaderVanilla}.IsModded())
}
