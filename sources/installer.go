package sources

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
)

const (
	DefaultInstallerTimeout = 10 * time.Minute
	installerPollInterval   = 500 * time.Millisecond
)

// launcherProfilesStub is the minimum the Forge installers accept as a launcher install.
const launcherProfilesStub = `{
  "profiles": {},
  "selectedProfile": "",
  "clientToken": "",
  "launcherVersion": {"name": "launchwiz", "format": 21}
}
`

type InstallerRun struct {
	Java      string
	Installer string
	GameRoot  string
	LogPath   string
	Timeout   time.Duration
}

// EnsureLauncherProfiles writes launcher_profiles.json when it is missing.
func EnsureLauncherProfiles(root string) error {
	path := filepath.Join(root, "launcher_profiles.json")
	if fileio.Exists(path) {
		return nil
	}
	return fileio.WriteAtomic(path, []byte(launcherProfilesStub))
}

// RunInstaller executes `java -jar installer --installClient root`, polling for
// completion and killing the child when the absolute timeout passes.
func RunInstaller(ctx context.Context, run InstallerRun, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if run.Timeout <= 0 {
		run.Timeout = DefaultInstallerTimeout
	}
	if err := EnsureLauncherProfiles(run.GameRoot); err != nil {
		return core.NewError(core.KindLoaderInstall, "prepare installer", run.GameRoot, err)
	}

	logFile, err := fileio.CreateFile(run.LogPath)
	if err != nil {
		return core.NewError(core.KindLoaderInstall, "open installer log", run.LogPath, err)
	}
	defer logFile.Close()

	cmd := exec.Command(run.Java, "-jar", run.Installer, "--installClient", run.GameRoot)
	cmd.Dir = run.GameRoot
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return core.NewError(core.KindLoaderInstall, "start installer", run.Installer, err).
			WithHint("check that the Java runtime can be executed")
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	started := time.Now()
	deadline := time.NewTimer(run.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(installerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if err != nil {
				return core.NewError(core.KindLoaderInstall, "run installer", run.Installer, err).
					WithHint("the loader installer failed; its output is in the log").
					WithArtifacts(run.LogPath)
			}
			log.Info("loader installer finished", zap.Duration("elapsed", time.Since(started)))
			return nil
		case <-ticker.C:
			log.Debug("waiting for loader installer", zap.Duration("elapsed", time.Since(started)))
		case <-deadline.C:
			_ = cmd.Process.Kill()
			<-done
			return core.NewError(core.KindLoaderInstall, "run installer", run.Installer, fmt.Errorf("timed out after %s", run.Timeout)).
				WithHint("the installer was killed; retry or raise the installer timeout").
				WithArtifacts(run.LogPath)
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-done
			return core.NewError(core.KindLoaderInstall, "run installer", run.Installer, ctx.Err())
		}
	}
}

// RemoveInstallerLeftovers deletes files installers leave in the game root.
func RemoveInstallerLeftovers(root string) {
	for _, name := range []string{"installer.log", "launcher_profiles_microsoft_store.json"} {
		_ = os.Remove(filepath.Join(root, name))
	}
}
