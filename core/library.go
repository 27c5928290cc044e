package core

import (
	"path/filepath"
	"strings"
)

// LibraryArtifact is downloads.artifact or one of downloads.classifiers.
type LibraryArtifact struct {
	Path string `mapstructure:"path"`
	URL  string `mapstructure:"url"`
	SHA1 string `mapstructure:"sha1"`
	Size int64  `mapstructure:"size"`
}

// Library is a typed view over one "libraries" entry. Mojang entries carry
// downloads, meta-API entries only a name, a repository url and sometimes a sha1.
type Library struct {
	Name    string            `mapstructure:"name"`
	URL     string            `mapstructure:"url"`
	SHA1    string            `mapstructure:"sha1"`
	Size    int64             `mapstructure:"size"`
	Rules   []interface{}     `mapstructure:"rules"`
	Natives map[string]string `mapstructure:"natives"`
	Extract struct {
		Exclude []string `mapstructure:"exclude"`
	} `mapstructure:"extract"`
	Downloads struct {
		Artifact    *LibraryArtifact           `mapstructure:"artifact"`
		Classifiers map[string]LibraryArtifact `mapstructure:"classifiers"`
	} `mapstructure:"downloads"`
}

// LibraryFile is a concrete file a library contributes.
type LibraryFile struct {
	Coordinate MavenCoordinate
	Path       string
	URLs       []string
	SHA1       string
	Size       int64
	// Native files are extracted into the natives directory and never put on the classpath.
	Native  bool
	Exclude []string
}

// Libraries decodes the libraries list, skipping entries without a usable name.
func (d Document) Libraries() []Library {
	raw := d.List("libraries")
	libs := make([]Library, 0, len(raw))
	for _, entry := range raw {
		var lib Library
		if err := DecodeValue(entry, &lib); err != nil || lib.Name == "" {
			continue
		}
		libs = append(libs, lib)
	}
	return libs
}

func (l Library) Allowed(p Platform) bool {
	return RulesAllow(l.Rules, p)
}

// NativeClassifier returns the legacy natives classifier for the platform, if any.
func (l Library) NativeClassifier(p Platform) (string, bool) {
	if len(l.Natives) == 0 {
		return "", false
	}
	classifier, ok := l.Natives[p.OS]
	if !ok {
		return "", false
	}
	bits := "64"
	if p.Arch == "x86" || p.Arch == "arm32" {
		bits = "32"
	}
	return strings.ReplaceAll(classifier, "${arch}", bits), true
}

// NativesOnly is true for legacy entries that exist only to ship native binaries.
func (l Library) NativesOnly() bool {
	return len(l.Natives) > 0 && l.Downloads.Artifact == nil
}

// Files lists the artifact (when the library has one) and the native jar for p.
func (l Library) Files(librariesDir string, p Platform) ([]LibraryFile, error) {
	coord, err := ParseMavenCoordinate(l.Name)
	if err != nil {
		return nil, err
	}
	var files []LibraryFile
	if !l.NativesOnly() {
		files = append(files, l.file(coord, l.Downloads.Artifact, librariesDir))
	}
	if classifier, ok := l.NativeClassifier(p); ok {
		var art *LibraryArtifact
		if c, found := l.Downloads.Classifiers[classifier]; found {
			art = &c
		}
		native := l.file(coord.WithClassifier(classifier), art, librariesDir)
		native.Native = true
		native.Exclude = append([]string{"META-INF/"}, l.Extract.Exclude...)
		files = append(files, native)
	}
	return files, nil
}

func (l Library) file(coord MavenCoordinate, art *LibraryArtifact, librariesDir string) LibraryFile {
	f := LibraryFile{
		Coordinate: coord,
		Path:       coord.LocalPath(librariesDir),
		SHA1:       l.SHA1,
		Size:       l.Size,
	}
	if art == nil {
		f.URLs = coord.URLs(l.URL)
		return f
	}
	if art.Path != "" {
		f.Path = filepath.Join(librariesDir, filepath.FromSlash(art.Path))
	}
	f.SHA1 = art.SHA1
	f.Size = art.Size
	if art.URL != "" {
		f.URLs = []string{art.URL}
	}
	// Installer-generated artifacts publish no url; the mavens are the only fallback.
	for _, u := range coord.URLs(l.URL) {
		if len(f.URLs) == 0 || f.URLs[0] != u {
			f.URLs = append(f.URLs, u)
		}
	}
	return f
}
