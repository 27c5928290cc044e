// Package sources talks to the metadata endpoints a runtime is assembled from:
// Mojang's launcher metadata, the Fabric and Quilt meta APIs and the Forge and
// NeoForge mavens.
package sources

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/download"
)

// Endpoints holds every base URL so tests and mirrors can redirect them.
type Endpoints struct {
	// MojangHosts are interchangeable hosts for launcher metadata; the first is
	// tried first and the others are swapped in on failure.
	MojangHosts     []string
	ManifestPath    string
	JavaRuntimes    string
	FabricMeta      string
	QuiltMeta       string
	ForgeMavens     []string
	NeoForgeMavens  []string
	ForgePromotions string
	AssetObjects    string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		MojangHosts:     []string{"https://piston-meta.mojang.com", "https://launchermeta.mojang.com"},
		ManifestPath:    "/mc/game/version_manifest_v2.json",
		JavaRuntimes:    "https://launchermeta.mojang.com/v1/products/java-runtime/2ec0cc96c44e5a76b9c8b7c39df7210883d12871/all.json",
		FabricMeta:      "https://meta.fabricmc.net/v2",
		QuiltMeta:       "https://meta.quiltmc.org/v3",
		ForgeMavens:     []string{"https://maven.minecraftforge.net/", "https://files.minecraftforge.net/maven/"},
		NeoForgeMavens:  []string{"https://maven.neoforged.net/releases/"},
		ForgePromotions: "https://files.minecraftforge.net/net/minecraftforge/forge/promotions_slim.json",
		AssetObjects:    "https://resources.download.minecraft.net",
	}
}

type Client struct {
	engine    *download.Engine
	http      *resty.Client
	endpoints Endpoints
	log       *zap.Logger
}

// NewClient shares the download engine's HTTP client so every request is counted.
func NewClient(engine *download.Engine, endpoints Endpoints, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		engine:    engine,
		http:      engine.Client(),
		endpoints: endpoints,
		log:       log,
	}
}

func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

func (c *Client) Engine() *download.Engine {
	return c.engine
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(out).
		ForceContentType("application/json").
		Get(url)
	if err != nil {
		return core.NewError(core.KindNetwork, "GET", url, err)
	}
	if resp.IsError() {
		return core.NewError(core.KindNetwork, "GET", url, fmt.Errorf("unexpected status %s", resp.Status()))
	}
	return nil
}

func (c *Client) getBytes(ctx context.Context, url, accept string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", accept).
		Get(url)
	if err != nil {
		return nil, core.NewError(core.KindNetwork, "GET", url, err)
	}
	if resp.IsError() {
		return nil, core.NewError(core.KindNetwork, "GET", url, fmt.Errorf("unexpected status %s", resp.Status()))
	}
	return resp.Body(), nil
}

func (c *Client) getDocument(ctx context.Context, url string) (core.Document, error) {
	body, err := c.getBytes(ctx, url, "application/json")
	if err != nil {
		return nil, err
	}
	doc, err := core.ParseDocument(body)
	if err != nil {
		return nil, core.NewError(core.KindMissingMetadata, "parse", url, err)
	}
	return doc, nil
}
