package core

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

type LoaderKind string

const (
	LoaderVanilla  LoaderKind = "vanilla"
	LoaderFabric   LoaderKind = "fabric"
	LoaderQuilt    LoaderKind = "quilt"
	LoaderForge    LoaderKind = "forge"
	LoaderNeoForge LoaderKind = "neoforge"
)

const (
	VanillaMainClass = "net.minecraft.client.main.Main"
	FabricMainClass  = "net.fabricmc.loader.impl.launch.knot.KnotClient"
	QuiltMainClass   = "org.quiltmc.loader.impl.launch.knot.KnotClient"

	BootstrapLauncherMainClass = "cpw.mods.bootstraplauncher.BootstrapLauncher"
	ModLauncherMainClass       = "cpw.mods.modlauncher.Launcher"
	LaunchWrapperMainClass     = "net.minecraft.launchwrapper.Launch"

	// Pre-1.6 clients were started through this class directly.
	LegacyVanillaMainClass = "net.minecraft.client.Minecraft"
)

// ParseLoaderKind accepts registry spellings such as "Fabric", "neo-forge" or "".
func ParseLoaderKind(name string) (LoaderKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "")
	n = strings.ReplaceAll(n, "_", "")
	switch n {
	case "", "vanilla", "none", "minecraft":
		return LoaderVanilla, nil
	case "fabric":
		return LoaderFabric, nil
	case "quilt":
		return LoaderQuilt, nil
	case "forge":
		return LoaderForge, nil
	case "neoforge", "neoforged":
		return LoaderNeoForge, nil
	}
	return "", fmt.Errorf("unsupported loader %q", name)
}

func (k LoaderKind) FriendlyName() string {
	switch k {
	case LoaderFabric:
		return "Fabric loader"
	case LoaderQuilt:
		return "Quilt loader"
	case LoaderForge:
		return "Forge"
	case LoaderNeoForge:
		return "NeoForge"
	}
	return "Minecraft"
}

// CanonicalMainClass is the entrypoint a profile of this kind must launch through.
func (k LoaderKind) CanonicalMainClass() string {
	switch k {
	case LoaderFabric:
		return FabricMainClass
	case LoaderQuilt:
		return QuiltMainClass
	case LoaderForge, LoaderNeoForge:
		return BootstrapLauncherMainClass
	}
	return VanillaMainClass
}

// BootstrapChain lists the entrypoints Forge-family installers have produced over time.
func (k LoaderKind) BootstrapChain() []string {
	switch k {
	case LoaderForge:
		return []string{BootstrapLauncherMainClass, ModLauncherMainClass, LaunchWrapperMainClass}
	case LoaderNeoForge:
		return []string{BootstrapLauncherMainClass, ModLauncherMainClass}
	case LoaderFabric, LoaderQuilt:
		return []string{k.CanonicalMainClass()}
	}
	return []string{VanillaMainClass, LaunchWrapperMainClass, LegacyVanillaMainClass}
}

// MainClassAccepted reports whether mainClass is consistent with the loader.
func (k LoaderKind) MainClassAccepted(mainClass string) bool {
	return slices.Contains(k.BootstrapChain(), strings.TrimSpace(mainClass))
}

// RuntimeMarkerGroup is satisfied when any of its path fragments is on the classpath.
type RuntimeMarkerGroup struct {
	Name      string
	Fragments []string
}

// RuntimeMarkers lists the artifacts a working classpath of this kind must contain.
// Fragments are forward-slash maven path pieces.
func (k LoaderKind) RuntimeMarkers(mainClass string) []RuntimeMarkerGroup {
	switch k {
	case LoaderFabric:
		return []RuntimeMarkerGroup{
			{Name: "fabric-loader", Fragments: []string{"net/fabricmc/fabric-loader/"}},
			{Name: "intermediary", Fragments: []string{"net/fabricmc/intermediary/"}},
		}
	case LoaderQuilt:
		return []RuntimeMarkerGroup{
			{Name: "quilt-loader", Fragments: []string{"org/quiltmc/quilt-loader/"}},
		}
	case LoaderForge:
		switch mainClass {
		case LaunchWrapperMainClass:
			return []RuntimeMarkerGroup{
				{Name: "launchwrapper", Fragments: []string{"net/minecraft/launchwrapper/"}},
				{Name: "forge", Fragments: []string{"net/minecraftforge/forge/"}},
			}
		case ModLauncherMainClass:
			return []RuntimeMarkerGroup{
				{Name: "modlauncher", Fragments: []string{"cpw/mods/modlauncher/"}},
				{Name: "fmlloader", Fragments: []string{"net/minecraftforge/fmlloader/", "net/minecraftforge/forge/"}},
			}
		}
		return []RuntimeMarkerGroup{
			{Name: "bootstraplauncher", Fragments: []string{"cpw/mods/bootstraplauncher/"}},
			{Name: "fmlloader", Fragments: []string{"net/minecraftforge/fmlloader/"}},
		}
	case LoaderNeoForge:
		return []RuntimeMarkerGroup{
			{Name: "bootstraplauncher", Fragments: []string{"cpw/mods/bootstraplauncher/"}},
			{Name: "fml-loader", Fragments: []string{
				"net/neoforged/fancymodloader/loader/",
				"net/neoforged/fml/",
				"net/neoforged/fmlloader/",
				"net/minecraftforge/fmlloader/",
			}},
		}
	}
	return nil
}

// EvidenceLibrary is a coordinate prefix an installed profile of this kind must declare.
func (k LoaderKind) EvidenceLibrary(loaderVersion string) string {
	switch k {
	case LoaderFabric:
		return "net.fabricmc:fabric-loader:" + loaderVersion
	case LoaderQuilt:
		return "org.quiltmc:quilt-loader:" + loaderVersion
	case LoaderForge:
		return "net.minecraftforge:"
	case LoaderNeoForge:
		return "net.neoforged:"
	}
	return ""
}

// LoaderProfile identifies the launchable profile for an instance.
type LoaderProfile struct {
	Kind          LoaderKind `json:"kind"`
	ID            string     `json:"id"`
	LoaderVersion string     `json:"loaderVersion,omitempty"`
	BaseID        string     `json:"baseId"`
}

func (p LoaderProfile) IsModded() bool {
	return p.Kind != LoaderVanilla
}
