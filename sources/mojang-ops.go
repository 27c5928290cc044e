package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/download"
)

// MirrorsOf returns u followed by the same URL on every other Mojang host.
func (c *Client) MirrorsOf(u string) []string {
	urls := []string{u}
	for _, host := range c.endpoints.MojangHosts {
		if !strings.HasPrefix(u, host) {
			continue
		}
		rest := strings.TrimPrefix(u, host)
		for _, other := range c.endpoints.MojangHosts {
			if other != host {
				urls = append(urls, other+rest)
			}
		}
		break
	}
	return urls
}

// Manifest fetches version_manifest_v2.json from the first host that answers.
func (c *Client) Manifest(ctx context.Context) (core.VersionManifest, error) {
	var errs []error
	for _, host := range c.endpoints.MojangHosts {
		url := host + c.endpoints.ManifestPath
		var manifest core.VersionManifest
		if err := c.getJSON(ctx, url, &manifest); err != nil {
			errs = append(errs, err)
			continue
		}
		if len(manifest.Versions) == 0 {
			errs = append(errs, fmt.Errorf("%s: manifest lists no versions", url))
			continue
		}
		return manifest, nil
	}
	return core.VersionManifest{}, core.NewError(core.KindNetwork, "fetch version manifest", c.endpoints.ManifestPath, errors.Join(errs...)).
		WithHint("Mojang's metadata servers could not be reached")
}

// VersionDocument stores the version JSON at dest through the download engine,
// verified against the manifest sha1, and parses it.
func (c *Client) VersionDocument(ctx context.Context, entry core.ManifestEntry, dest string) (core.Document, error) {
	if entry.URL == "" {
		return nil, core.NewError(core.KindMissingMetadata, "version document", entry.ID, fmt.Errorf("manifest entry has no url"))
	}
	_, err := c.engine.Fetch(ctx, download.Task{
		Name: entry.ID + ".json",
		URLs: c.MirrorsOf(entry.URL),
		Dest: dest,
		Hash: entry.SHA1,
	})
	if err != nil {
		return nil, err
	}
	doc, err := core.LoadDocument(dest)
	if err != nil {
		return nil, core.NewError(core.KindMissingMetadata, "version document", entry.ID, err)
	}
	return doc, nil
}

// JavaRuntimeIndex is the all.json runtime listing keyed by platform then component.
type JavaRuntimeIndex map[string]map[string][]JavaRuntimeEntry

type JavaRuntimeEntry struct {
	Manifest struct {
		SHA1 string `json:"sha1"`
		Size int64  `json:"size"`
		URL  string `json:"url"`
	} `json:"manifest"`
	Version struct {
		Name     string `json:"name"`
		Released string `json:"released"`
	} `json:"version"`
}

// JavaRuntimeFile is one entry of a runtime component manifest.
type JavaRuntimeFile struct {
	Type       string `json:"type"`
	Executable bool   `json:"executable"`
	Target     string `json:"target"`
	Downloads  struct {
		Raw struct {
			SHA1 string `json:"sha1"`
			Size int64  `json:"size"`
			URL  string `json:"url"`
		} `json:"raw"`
	} `json:"downloads"`
}

type JavaRuntimeManifest struct {
	Files map[string]JavaRuntimeFile `json:"files"`
}

func (c *Client) JavaRuntimes(ctx context.Context) (JavaRuntimeIndex, error) {
	var errs []error
	for _, url := range c.MirrorsOf(c.endpoints.JavaRuntimes) {
		var index JavaRuntimeIndex
		if err := c.getJSON(ctx, url, &index); err != nil {
			errs = append(errs, err)
			continue
		}
		return index, nil
	}
	return nil, core.NewError(core.KindNetwork, "fetch java runtime index", c.endpoints.JavaRuntimes, errors.Join(errs...))
}

func (c *Client) JavaRuntimeManifest(ctx context.Context, entry JavaRuntimeEntry) (JavaRuntimeManifest, error) {
	var errs []error
	for _, url := range c.MirrorsOf(entry.Manifest.URL) {
		var manifest JavaRuntimeManifest
		if err := c.getJSON(ctx, url, &manifest); err != nil {
			errs = append(errs, err)
			continue
		}
		return manifest, nil
	}
	return JavaRuntimeManifest{}, core.NewError(core.KindNetwork, "fetch java runtime manifest", entry.Manifest.URL, errors.Join(errs...))
}
