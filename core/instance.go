package core

import (
	"path/filepath"
)

type JavaMode string

const (
	JavaAuto   JavaMode = "auto"
	JavaSystem JavaMode = "system"
	JavaCustom JavaMode = "custom"
)

// Instance is the record the registry hands to the engine.
type Instance struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	GameVersion   string   `json:"gameVersion"`
	Loader        string   `json:"loader"`
	LoaderVersion string   `json:"loaderVersion,omitempty"`
	JavaMode      JavaMode `json:"javaMode"`
	JavaPath      string   `json:"javaPath,omitempty"`
	Dir           string   `json:"dir"`
	GameDir       string   `json:"gameDir"`
}

func (i Instance) LoaderKind() (LoaderKind, error) {
	return ParseLoaderKind(i.Loader)
}

// InstancePaths is every on-disk location the engine touches for one instance.
// Versions, libraries and assets live in the shared installation root.
type InstancePaths struct {
	Dir          string
	GameDir      string
	Metadata     string
	RuntimeDir   string
	VersionJSON  string
	RuntimeState string
	LaunchPlan   string
	CommandText  string
	StateFile    string
	EventLog     string
	LauncherLogs string
	Diagnostics  string
	LockFile     string

	Root         string
	VersionsDir  string
	LibrariesDir string
	AssetsDir    string
	NativesDir   string
	RuntimesDir  string
}

// NewInstancePaths lays out an instance under its directory with the shared root.
func NewInstancePaths(inst Instance, root string) InstancePaths {
	dir := inst.Dir
	gameDir := inst.GameDir
	if gameDir == "" {
		gameDir = filepath.Join(dir, "minecraft")
	}
	runtimeDir := filepath.Join(dir, ".runtime")
	return InstancePaths{
		Dir:          dir,
		GameDir:      gameDir,
		Metadata:     filepath.Join(dir, "instance.json"),
		RuntimeDir:   runtimeDir,
		VersionJSON:  filepath.Join(runtimeDir, "version.json"),
		RuntimeState: filepath.Join(runtimeDir, "runtime_state.json"),
		LaunchPlan:   filepath.Join(dir, "launch-plan.json"),
		CommandText:  filepath.Join(dir, "launch-command.txt"),
		StateFile:    filepath.Join(dir, "state.json"),
		EventLog:     filepath.Join(dir, "events.log"),
		LauncherLogs: filepath.Join(dir, "logs", "launcher"),
		Diagnostics:  filepath.Join(dir, "diagnostics"),
		LockFile:     filepath.Join(dir, ".lock"),

		Root:         root,
		VersionsDir:  filepath.Join(root, "versions"),
		LibrariesDir: filepath.Join(root, "libraries"),
		AssetsDir:    filepath.Join(root, "assets"),
		NativesDir:   filepath.Join(runtimeDir, "natives"),
		RuntimesDir:  filepath.Join(root, "runtimes"),
	}
}

func (p InstancePaths) ModsDir() string {
	return filepath.Join(p.GameDir, "mods")
}

func (p InstancePaths) VersionDir(id string) string {
	return filepath.Join(p.VersionsDir, id)
}

func (p InstancePaths) VersionFile(id string) string {
	return filepath.Join(p.VersionsDir, id, id+".json")
}

func (p InstancePaths) ClientJar(id string) string {
	return filepath.Join(p.VersionsDir, id, id+".jar")
}
