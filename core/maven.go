package core

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Repositories tried, in order, after a library's own declared repository.
var DefaultMavenRepositories = []string{
	"https://libraries.minecraft.net/",
	"https://repo1.maven.org/maven2/",
	"https://maven.fabricmc.net/",
	"https://maven.quiltmc.org/repository/release/",
	"https://maven.minecraftforge.net/",
	"https://maven.neoforged.net/releases/",
}

// MavenCoordinate is group:artifact:version[:classifier][@extension].
type MavenCoordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

func ParseMavenCoordinate(name string) (MavenCoordinate, error) {
	c := MavenCoordinate{Extension: "jar"}
	if at := strings.LastIndex(name, "@"); at >= 0 {
		c.Extension = name[at+1:]
		name = name[:at]
	}
	parts := strings.Split(name, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return MavenCoordinate{}, fmt.Errorf("invalid maven coordinate %q", name)
	}
	for _, p := range parts {
		if p == "" {
			return MavenCoordinate{}, fmt.Errorf("invalid maven coordinate %q", name)
		}
	}
	c.Group, c.Artifact, c.Version = parts[0], parts[1], parts[2]
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	if c.Extension == "" {
		c.Extension = "jar"
	}
	return c, nil
}

// WithClassifier returns a copy pointing at a classifier artifact (natives jars).
func (c MavenCoordinate) WithClassifier(classifier string) MavenCoordinate {
	c.Classifier = classifier
	return c
}

// Key identifies the artifact independent of version, for classpath de-duplication.
func (c MavenCoordinate) Key() string {
	if c.Classifier != "" {
		return c.Group + ":" + c.Artifact + ":" + c.Classifier
	}
	return c.Group + ":" + c.Artifact
}

func (c MavenCoordinate) String() string {
	s := c.Group + ":" + c.Artifact + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	if c.Extension != "jar" {
		s += "@" + c.Extension
	}
	return s
}

func (c MavenCoordinate) FileName() string {
	name := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + "." + c.Extension
}

// RelativePath is the forward-slash repository layout path.
func (c MavenCoordinate) RelativePath() string {
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, c.FileName())
}

// LocalPath resolves the artifact under a libraries directory.
func (c MavenCoordinate) LocalPath(librariesDir string) string {
	return filepath.Join(librariesDir, filepath.FromSlash(c.RelativePath()))
}

// URLs returns candidate download URLs: the declared repository first, then the defaults.
func (c MavenCoordinate) URLs(declaredRepo string) []string {
	rel := c.RelativePath()
	seen := make(map[string]bool)
	var urls []string
	add := func(repo string) {
		if repo == "" {
			return
		}
		if !strings.HasSuffix(repo, "/") {
			repo += "/"
		}
		u := repo + rel
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	add(declaredRepo)
	for _, r := range DefaultMavenRepositories {
		add(r)
	}
	return urls
}
