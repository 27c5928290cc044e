package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/leocov-dev/launchwiz/core"
)

type metaLoaderEntry struct {
	Loader struct {
		Version string `json:"version"`
		Stable  *bool  `json:"stable"`
	} `json:"loader"`
}

func (c *Client) metaBase(kind core.LoaderKind) (string, error) {
	switch kind {
	case core.LoaderFabric:
		return c.endpoints.FabricMeta, nil
	case core.LoaderQuilt:
		return c.endpoints.QuiltMeta, nil
	}
	return "", fmt.Errorf("%s has no meta API", kind.FriendlyName())
}

// LatestLoader picks the newest stable loader for a game version. Quilt does not
// publish a stable flag, so pre-release tags are skipped instead.
func (c *Client) LatestLoader(ctx context.Context, kind core.LoaderKind, game string) (string, error) {
	base, err := c.metaBase(kind)
	if err != nil {
		return "", err
	}
	var entries []metaLoaderEntry
	u := fmt.Sprintf("%s/versions/loader/%s", base, url.PathEscape(game))
	if err := c.getJSON(ctx, u, &entries); err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", core.NewError(core.KindMissingMetadata, "loader versions", u, fmt.Errorf("no %s available for %s", kind.FriendlyName(), game))
	}
	for _, e := range entries {
		if e.Loader.Stable != nil {
			if *e.Loader.Stable {
				return e.Loader.Version, nil
			}
			continue
		}
		if !isPrerelease(e.Loader.Version) {
			return e.Loader.Version, nil
		}
	}
	return entries[0].Loader.Version, nil
}

func isPrerelease(v string) bool {
	v = strings.ToLower(v)
	for _, tag := range []string{"-beta", "-alpha", "-pre", "-rc"} {
		if strings.Contains(v, tag) {
			return true
		}
	}
	return false
}

// LoaderProfile fetches the launcher profile JSON for game+loader.
func (c *Client) LoaderProfile(ctx context.Context, kind core.LoaderKind, game, loader string) (core.Document, error) {
	base, err := c.metaBase(kind)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json", base, url.PathEscape(game), url.PathEscape(loader))
	doc, err := c.getDocument(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := doc.Require("id", "mainClass", "libraries"); err != nil {
		return nil, err
	}
	return doc, nil
}

// ProfileID is the id the meta APIs assign, e.g. fabric-loader-0.15.11-1.20.1.
func ProfileID(kind core.LoaderKind, game, loader string) string {
	switch kind {
	case core.LoaderFabric:
		return fmt.Sprintf("fabric-loader-%s-%s", loader, game)
	case core.LoaderQuilt:
		return fmt.Sprintf("quilt-loader-%s-%s", loader, game)
	case core.LoaderForge:
		return fmt.Sprintf("%s-forge-%s", game, loader)
	case core.LoaderNeoForge:
		if game == "1.20.1" {
			return fmt.Sprintf("%s-forge-%s", game, loader)
		}
		return fmt.Sprintf("neoforge-%s", loader)
	}
	return game
}
