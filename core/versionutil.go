package core

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/unascribed/FlexVer/go/flexver"
)

// VersionMap keys are minecraft versions and value is list of valid loader
// versions for that minecraft version
type VersionMap map[string][]string

type mavenXmlMetadata struct {
	Versioning struct {
		Latest   string `xml:"latest"`
		Release  string `xml:"release"`
		Versions struct {
			Version []string `xml:"version"`
		} `xml:"versions"`
	} `xml:"versioning"`
}

// ParseMavenVersions returns the versions listed in a maven-metadata.xml body.
func ParseMavenVersions(body []byte) ([]string, error) {
	var metadata mavenXmlMetadata
	if err := xml.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("parsing maven metadata: %w", err)
	}
	return metadata.Versioning.Versions.Version, nil
}

// GroupVersions buckets maven versions by game version; keyValueCb returns
// empty strings for entries that should be skipped.
func GroupVersions(versions []string, keyValueCb func(version string) (string, string)) VersionMap {
	versionMap := make(VersionMap)
	for _, version := range versions {
		if version == "" {
			continue
		}
		minecraftVersion, loaderVersion := keyValueCb(version)
		if minecraftVersion == "" || loaderVersion == "" {
			continue
		}
		versionMap[minecraftVersion] = append(versionMap[minecraftVersion], loaderVersion)
	}
	for mcVersion, loaderVersions := range versionMap {
		versionMap[mcVersion] = SortDescending(loaderVersions)
	}
	return versionMap
}

// ForgeVersionKey splits "1.20.1-47.2.0" into game and loader version.
func ForgeVersionKey(version string) (string, string) {
	parts := strings.SplitN(version, "-", 2)
	if len(parts) < 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// NeoForgeVersionKey maps "20.4.190" to game version "1.20.4", and "21.0.1" to "1.21".
func NeoForgeVersionKey(version string) (string, string) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return "", ""
	}
	if parts[1] == "0" {
		return "1." + parts[0], version
	}
	return "1." + parts[0] + "." + parts[1], version
}

// SortDescending orders loader versions newest first using FlexVer and drops duplicates.
func SortDescending(versions []string) []string {
	out := make([]string, len(versions))
	copy(out, versions)
	flexver.VersionSlice(out).Sort()
	// Deduplicate the sorted array
	if len(out) > 0 {
		j := 0
		for i := 1; i < len(out); i++ {
			if out[i] != out[j] {
				j++
				out[j] = out[i]
			}
		}
		out = out[:j+1]
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

type ForgeRecommended struct {
	Homepage string            `json:"homepage"`
	Versions map[string]string `json:"promos"`
}

// Recommended gets mcVersion-recommended, falling back to mcVersion-latest.
func (f ForgeRecommended) Recommended(mcVersion string) string {
	if v := f.Versions[fmt.Sprintf("%s-recommended", mcVersion)]; v != "" {
		return v
	}
	return f.Versions[fmt.Sprintf("%s-latest", mcVersion)]
}
