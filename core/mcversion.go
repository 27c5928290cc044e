package core

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/exp/slices"
)

// VersionManifest is version_manifest_v2.json.
type VersionManifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []ManifestEntry `json:"versions"`
}

type ManifestEntry struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Time        string `json:"time"`
	ReleaseTime string `json:"releaseTime"`
	SHA1        string `json:"sha1"`
}

// Find returns the manifest entry for a version id.
func (m VersionManifest) Find(id string) (ManifestEntry, bool) {
	idx := slices.IndexFunc(m.Versions, func(e ManifestEntry) bool { return e.ID == id })
	if idx < 0 {
		return ManifestEntry{}, false
	}
	return m.Versions[idx], true
}

func (m VersionManifest) Releases() []string {
	versions := make([]string, 0)
	for _, v := range m.Versions {
		if v.Type != "release" {
			continue
		}
		versions = append(versions, v.ID)
	}
	return versions
}

var releaseVersionPattern = regexp.MustCompile(`^1\.\d+(\.\d+)?$`)

var javaRequirements = []struct {
	constraint *semver.Constraints
	major      int
}{
	{mustParseConstraint("< 1.17.0"), 8},
	{mustParseConstraint(">= 1.17.0, < 1.18.0"), 16},
	{mustParseConstraint(">= 1.18.0, < 1.20.5"), 17},
	{mustParseConstraint(">= 1.20.5"), 21},
}

// LatestJavaMajor is assumed for snapshots and ids we cannot order.
const LatestJavaMajor = 21

func mustParseConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// RequiredJavaMajorForGame derives the Java major from a release id when the
// version document does not declare javaVersion.
func RequiredJavaMajorForGame(gameVersion string) int {
	if !releaseVersionPattern.MatchString(gameVersion) {
		return LatestJavaMajor
	}
	v, err := semver.NewVersion(gameVersion)
	if err != nil {
		return LatestJavaMajor
	}
	for _, req := range javaRequirements {
		if req.constraint.Check(v) {
			return req.major
		}
	}
	return LatestJavaMajor
}

// RequiredJavaMajor prefers the document's javaVersion.majorVersion.
func RequiredJavaMajor(doc Document, gameVersion string) int {
	if major := doc.Int("javaVersion", "majorVersion"); major > 0 {
		return int(major)
	}
	return RequiredJavaMajorForGame(gameVersion)
}

// JavaRuntimeComponent maps a major to the Mojang java-runtime component name.
func JavaRuntimeComponent(doc Document, major int) (string, error) {
	if c := doc.String("javaVersion", "component"); c != "" {
		return c, nil
	}
	switch {
	case major <= 8:
		return "jre-legacy", nil
	case major <= 16:
		return "java-runtime-alpha", nil
	case major <= 17:
		return "java-runtime-gamma", nil
	case major <= 21:
		return "java-runtime-delta", nil
	}
	return "", fmt.Errorf("no runtime component known for java %d", major)
}
