package java

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/download"
	"github.com/leocov-dev/launchwiz/fileio"
	"github.com/leocov-dev/launchwiz/sources"
)

// Runtime is the Java binary chosen for a launch.
type Runtime struct {
	Path   string
	Major  int
	Source string
}

type Request struct {
	Mode       core.JavaMode
	CustomPath string
	Required   int
	// Component is the Mojang runtime component; derived from Required when empty.
	Component string
}

type Provisioner struct {
	sources     *sources.Client
	engine      *download.Engine
	runtimesDir string
	platformKey string
	progress    download.Progress
	log         *zap.Logger

	discover func(ctx context.Context) []Candidate
}

func NewProvisioner(src *sources.Client, runtimesDir string, progress download.Progress, log *zap.Logger) *Provisioner {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Provisioner{
		sources:     src,
		engine:      src.Engine(),
		runtimesDir: runtimesDir,
		platformKey: PlatformKey(runtime.GOOS, runtime.GOARCH),
		progress:    progress,
		log:         log,
	}
	p.discover = func(ctx context.Context) []Candidate {
		return Discover(ctx, p.runtimesDir)
	}
	return p
}

// PlatformKey is the platform name used by Mojang's java-runtime index.
func PlatformKey(goos, goarch string) string {
	switch goos {
	case "windows":
		switch goarch {
		case "386":
			return "windows-x86"
		case "arm64":
			return "windows-arm64"
		}
		return "windows-x64"
	case "darwin":
		if goarch == "arm64" {
			return "mac-os-arm64"
		}
		return "mac-os"
	}
	if goarch == "386" {
		return "linux-i386"
	}
	return "linux"
}

// Resolve picks the Java runtime for a launch. Custom mode uses the configured
// binary, system mode the installed JVMs, and auto mode a managed or installed
// JVM of the exact major before downloading Mojang's runtime.
func (p *Provisioner) Resolve(ctx context.Context, req Request) (Runtime, error) {
	if req.Required <= 0 {
		req.Required = core.LatestJavaMajor
	}
	switch req.Mode {
	case core.JavaCustom:
		return p.custom(ctx, req)
	case core.JavaSystem:
		c, ok := pick(p.discover(ctx), req.Required, true)
		if !ok {
			return Runtime{}, core.NewError(core.KindValidation, "find java", fmt.Sprintf("java %d", req.Required),
				fmt.Errorf("no installed Java %d or newer found", req.Required)).
				WithHint(fmt.Sprintf("install Java %d or switch the instance to automatic Java", req.Required))
		}
		return Runtime{Path: c.Path, Major: c.Major, Source: c.Source}, nil
	}

	component := req.Component
	if component == "" {
		var err error
		if component, err = core.JavaRuntimeComponent(nil, req.Required); err != nil {
			return Runtime{}, core.NewError(core.KindMissingMetadata, "java runtime", fmt.Sprint(req.Required), err)
		}
	}
	if bin, ok := findBinary(filepath.Join(p.runtimesDir, component)); ok {
		if major, err := Probe(ctx, bin); err == nil && major >= req.Required {
			return Runtime{Path: bin, Major: major, Source: "managed"}, nil
		}
	}
	if c, ok := pick(p.discover(ctx), req.Required, false); ok {
		return Runtime{Path: c.Path, Major: c.Major, Source: c.Source}, nil
	}

	bin, err := p.Install(ctx, component)
	if err != nil {
		return Runtime{}, err
	}
	major, err := Probe(ctx, bin)
	if err != nil {
		return Runtime{}, core.NewError(core.KindIntegrity, "probe java", bin, err)
	}
	if major < req.Required {
		return Runtime{}, core.NewError(core.KindValidation, "java runtime", component,
			fmt.Errorf("installed runtime is Java %d, need %d", major, req.Required))
	}
	return Runtime{Path: bin, Major: major, Source: "managed"}, nil
}

func (p *Provisioner) custom(ctx context.Context, req Request) (Runtime, error) {
	if req.CustomPath == "" {
		return Runtime{}, core.NewError(core.KindValidation, "custom java", "", fmt.Errorf("no Java path configured")).
			WithHint("set the instance's Java path or switch to automatic Java")
	}
	bin := req.CustomPath
	if info, err := os.Stat(bin); err == nil && info.IsDir() {
		if found, ok := findBinary(bin); ok {
			bin = found
		}
	}
	major, err := Probe(ctx, bin)
	if err != nil {
		return Runtime{}, core.NewError(core.KindValidation, "custom java", bin, err)
	}
	if major < req.Required {
		return Runtime{}, core.NewError(core.KindValidation, "custom java", bin,
			fmt.Errorf("Java %d is older than the required %d", major, req.Required)).
			WithHint(fmt.Sprintf("point the instance at Java %d or newer", req.Required))
	}
	return Runtime{Path: bin, Major: major, Source: "custom"}, nil
}

// Install downloads a Mojang runtime component file by file into the runtimes
// directory, restoring executable bits and links, and returns its java binary.
func (p *Provisioner) Install(ctx context.Context, component string) (string, error) {
	index, err := p.sources.JavaRuntimes(ctx)
	if err != nil {
		return "", err
	}
	entries := index[p.platformKey][component]
	if len(entries) == 0 {
		return "", core.NewError(core.KindMissingMetadata, "java runtime", component,
			fmt.Errorf("no %s runtime published for %s", component, p.platformKey))
	}
	manifest, err := p.sources.JavaRuntimeManifest(ctx, entries[0])
	if err != nil {
		return "", err
	}

	dir := filepath.Join(p.runtimesDir, component)
	cleanDir := filepath.Clean(dir) + string(os.PathSeparator)
	var (
		tasks       []download.Task
		executables []string
		links       = make(map[string]string)
	)
	for name, f := range manifest.Files {
		target := filepath.Join(dir, filepath.FromSlash(name))
		if !strings.HasPrefix(target, cleanDir) {
			return "", core.NewError(core.KindIntegrity, "java runtime", component, fmt.Errorf("entry %q escapes the runtime directory", name))
		}
		switch f.Type {
		case "directory":
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return "", err
			}
		case "file":
			tasks = append(tasks, download.Task{
				Name: component + "/" + name,
				URLs: []string{f.Downloads.Raw.URL},
				Dest: target,
				Hash: f.Downloads.Raw.SHA1,
				Size: f.Downloads.Raw.Size,
			})
			if f.Executable {
				executables = append(executables, target)
			}
		case "link":
			links[target] = f.Target
		}
	}

	p.log.Info("installing java runtime", zap.String("component", component), zap.Int("files", len(tasks)))
	if _, err := p.engine.FetchAll(ctx, tasks, download.Libraries, p.progress); err != nil {
		return "", err
	}
	if runtime.GOOS != "windows" {
		for _, exe := range executables {
			if err := os.Chmod(exe, 0o755); err != nil {
				return "", err
			}
		}
		for link, target := range links {
			if existing, err := os.Readlink(link); err == nil && existing == target {
				continue
			}
			_ = os.Remove(link)
			if err := os.MkdirAll(filepath.Dir(link), os.ModePerm); err != nil {
				return "", err
			}
			if err := os.Symlink(target, link); err != nil {
				return "", err
			}
		}
	}
	if err := fileio.WriteAtomic(filepath.Join(dir, ".version"), []byte(entries[0].Version.Name+"\n")); err != nil {
		return "", err
	}

	bin, ok := findBinary(dir)
	if !ok {
		return "", core.NewError(core.KindIntegrity, "java runtime", component, fmt.Errorf("no java binary in %s", dir))
	}
	return bin, nil
}
