package sources

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/download"
)

// legacyNeoForgeGame is the only game version NeoForge published under the forge artifact.
const legacyNeoForgeGame = "1.20.1"

func (c *Client) mavenVersions(ctx context.Context, repos []string, artifactPath string) ([]string, error) {
	var lastErr error
	for _, repo := range repos {
		body, err := c.getBytes(ctx, joinURL(repo, artifactPath+"/maven-metadata.xml"), "application/xml")
		if err != nil {
			lastErr = err
			continue
		}
		return core.ParseMavenVersions(body)
	}
	return nil, lastErr
}

// ForgeVersion resolves the recommended Forge build for a game version, then
// the latest promotion, then the newest build on the maven.
func (c *Client) ForgeVersion(ctx context.Context, game string) (string, error) {
	var promos core.ForgeRecommended
	if err := c.getJSON(ctx, c.endpoints.ForgePromotions, &promos); err == nil {
		if v := promos.Recommended(game); v != "" {
			return v, nil
		}
	} else {
		c.log.Debug("forge promotions unavailable", zap.Error(err))
	}

	versions, err := c.mavenVersions(ctx, c.endpoints.ForgeMavens, "net/minecraftforge/forge")
	if err != nil {
		return "", err
	}
	if list := core.GroupVersions(versions, core.ForgeVersionKey)[game]; len(list) > 0 {
		return list[0], nil
	}
	return "", core.NewError(core.KindMissingMetadata, "forge versions", game, fmt.Errorf("no Forge build for %s", game))
}

// NeoForgeVersion returns the newest NeoForge build matching the game version.
func (c *Client) NeoForgeVersion(ctx context.Context, game string) (string, error) {
	artifact, key := "net/neoforged/neoforge", core.NeoForgeVersionKey
	if game == legacyNeoForgeGame {
		artifact, key = "net/neoforged/forge", core.ForgeVersionKey
	}
	versions, err := c.mavenVersions(ctx, c.endpoints.NeoForgeMavens, artifact)
	if err != nil {
		return "", err
	}
	if list := core.GroupVersions(versions, key)[game]; len(list) > 0 {
		return list[0], nil
	}
	return "", core.NewError(core.KindMissingMetadata, "neoforge versions", game, fmt.Errorf("no NeoForge build for %s", game))
}

// InstallerPath is the maven-relative path of the installer jar.
func InstallerPath(kind core.LoaderKind, game, loader string) (string, error) {
	switch kind {
	case core.LoaderForge:
		v := game + "-" + loader
		return fmt.Sprintf("net/minecraftforge/forge/%s/forge-%s-installer.jar", v, v), nil
	case core.LoaderNeoForge:
		if game == legacyNeoForgeGame {
			v := game + "-" + loader
			return fmt.Sprintf("net/neoforged/forge/%s/forge-%s-installer.jar", v, v), nil
		}
		return fmt.Sprintf("net/neoforged/neoforge/%s/neoforge-%s-installer.jar", loader, loader), nil
	}
	return "", fmt.Errorf("%s has no installer", kind.FriendlyName())
}

// InstallerTask builds the download task for an installer, checking the
// maven's .sha1 sidecar when one is published.
func (c *Client) InstallerTask(ctx context.Context, kind core.LoaderKind, game, loader, dest string) (download.Task, error) {
	rel, err := InstallerPath(kind, game, loader)
	if err != nil {
		return download.Task{}, err
	}
	repos := c.endpoints.ForgeMavens
	if kind == core.LoaderNeoForge {
		repos = c.endpoints.NeoForgeMavens
	}
	task := download.Task{
		Name:           kind.FriendlyName() + " installer " + loader,
		Dest:           dest,
		RequireArchive: true,
	}
	for _, repo := range repos {
		task.URLs = append(task.URLs, joinURL(repo, rel))
	}
	for _, u := range task.URLs {
		body, err := c.getBytes(ctx, u+".sha1", "text/plain")
		if err != nil {
			continue
		}
		if sum := strings.TrimSpace(string(body)); len(sum) == 40 {
			task.Hash = sum
			break
		}
	}
	return task, nil
}

func joinURL(base, rel string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(rel, "/")
}
