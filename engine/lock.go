package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
)

// acquire takes the instance's in-process slot and its OS file lock. It never
// waits: a held instance fails with core.ErrInstanceBusy.
func (e *Engine) acquire(inst core.Instance, paths core.InstancePaths) (func(), error) {
	e.mu.Lock()
	if e.busy[inst.ID] {
		e.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", inst.ID, core.ErrInstanceBusy)
	}
	e.busy[inst.ID] = true
	e.mu.Unlock()

	free := func() {
		e.mu.Lock()
		delete(e.busy, inst.ID)
		e.mu.Unlock()
	}

	lock, err := fileio.TryLockFile(paths.LockFile)
	if err != nil {
		free()
		if errors.Is(err, core.ErrInstanceBusy) {
			return nil, fmt.Errorf("%s is in use by another process: %w", inst.ID, core.ErrInstanceBusy)
		}
		return nil, fmt.Errorf("locking %s: %w", paths.LockFile, err)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			e.log.Warn("could not release instance lock", zap.String("instance", inst.ID), zap.Error(err))
		}
		free()
	}, nil
}
