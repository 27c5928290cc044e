package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
)

const (
	DefaultEarlyExitWindow = 10 * time.Second
	DefaultPollInterval    = 250 * time.Millisecond
)

type LauncherOptions struct {
	EarlyExitWindow time.Duration
	PollInterval    time.Duration
	// OnExit is called from the monitor goroutine when a process that
	// survived the early window terminates.
	OnExit func(*Process)
	Logger *zap.Logger
}

type Launcher struct {
	window time.Duration
	tick   time.Duration
	onExit func(*Process)
	log    *zap.Logger
	now    func() time.Time
}

func NewLauncher(opts LauncherOptions) *Launcher {
	if opts.EarlyExitWindow <= 0 {
		opts.EarlyExitWindow = DefaultEarlyExitWindow
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Launcher{
		window: opts.EarlyExitWindow,
		tick:   opts.PollInterval,
		onExit: opts.OnExit,
		log:    opts.Logger,
		now:    time.Now,
	}
}

// Process is one run of the game.
type Process struct {
	RunID      string
	StdoutPath string
	StderrPath string
	Started    time.Time

	cmd  *exec.Cmd
	done chan struct{}

	mu       sync.Mutex
	exited   bool
	detached bool
	exitCode int
	waitErr  error
	ended    time.Time
}

// LogPaths lists the captured output files, stderr first.
func (p *Process) LogPaths() []string {
	return []string{p.StderrPath, p.StdoutPath}
}

// Done is closed once the process has exited and its logs are flushed.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// ExitCode is -1 until the process exits, and for deaths by signal.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.exited {
		return -1
	}
	return p.exitCode
}

// Abnormal reports an exit with a non-zero status.
func (p *Process) Abnormal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited && p.exitCode != 0
}

func (p *Process) Runtime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.exited {
		return 0
	}
	return p.ended.Sub(p.Started)
}

// PID is the operating system id of the game process.
func (p *Process) PID() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Wait blocks until the process exits or ctx is done.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill stops the process and waits for the logs to be flushed.
func (p *Process) Kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	<-p.done
}

func newRunID(now time.Time) string {
	return now.UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}

// Start spawns the plan's command with output captured under the instance's
// launcher log directory, then watches it for the early exit window. A
// process that exits inside the window is returned exited; one that outlives
// it is handed to a background monitor.
func (l *Launcher) Start(ctx context.Context, plan core.LaunchPlan, paths core.InstancePaths) (*Process, error) {
	started := l.now()
	runID := newRunID(started)
	p := &Process{
		RunID:      runID,
		StdoutPath: filepath.Join(paths.LauncherLogs, runID+".stdout.log"),
		StderrPath: filepath.Join(paths.LauncherLogs, runID+".stderr.log"),
		Started:    started,
		done:       make(chan struct{}),
	}
	if err := os.MkdirAll(plan.GameDir, os.ModePerm); err != nil {
		return nil, core.NewError(core.KindProcessLaunch, "prepare game directory", plan.GameDir, err)
	}
	stdout, err := fileio.CreateFile(p.StdoutPath)
	if err != nil {
		return nil, core.NewError(core.KindProcessLaunch, "open run log", p.StdoutPath, err)
	}
	stderr, err := fileio.CreateFile(p.StderrPath)
	if err != nil {
		stdout.Close()
		return nil, core.NewError(core.KindProcessLaunch, "open run log", p.StderrPath, err)
	}

	args := plan.CommandLine()
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = plan.GameDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = os.Environ()
	for k, v := range plan.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	p.cmd = cmd

	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, core.NewError(core.KindProcessLaunch, "start java", plan.JavaPath, err).
			WithHint("check that the Java path in the launch plan exists and is executable").
			WithArtifacts(paths.LaunchPlan)
	}
	l.log.Info("game process started",
		zap.String("run", runID),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("version", plan.VersionID))

	go l.wait(p, stdout, stderr)

	if err := l.watchEarlyExit(ctx, p); err != nil {
		p.Kill()
		return nil, err
	}
	return p, nil
}

func (l *Launcher) wait(p *Process, stdout, stderr *os.File) {
	err := p.cmd.Wait()
	code := 0
	if err != nil {
		code = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
	}
	stdout.Close()
	stderr.Close()

	p.mu.Lock()
	p.exited = true
	p.exitCode = code
	p.waitErr = err
	p.ended = l.now()
	notify := p.detached
	p.mu.Unlock()

	l.log.Info("game process exited",
		zap.String("run", p.RunID),
		zap.Int("code", code),
		zap.Bool("monitored", notify))
	if notify && l.onExit != nil {
		l.onExit(p)
	}
	close(p.done)
}

// watchEarlyExit polls until the window passes or the process exits.
func (l *Launcher) watchEarlyExit(ctx context.Context, p *Process) error {
	window := time.NewTimer(l.window)
	defer window.Stop()
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return nil
		case <-ticker.C:
			if p.Exited() {
				<-p.done
				return nil
			}
		case <-window.C:
			p.mu.Lock()
			exited := p.exited
			if !exited {
				p.detached = true
			}
			p.mu.Unlock()
			if exited {
				<-p.done
			}
			return nil
		case <-ctx.Done():
			return core.NewError(core.KindProcessLaunch, "watch game", p.RunID, fmt.Errorf("cancelled during start: %w", ctx.Err()))
		}
	}
}
