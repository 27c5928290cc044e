package fileio

import (
	"os"
	"path/filepath"
)

// FileLock is an advisory, non-blocking OS lock on a single file.
type FileLock struct {
	f *os.File
}

// TryLockFile locks path or returns core.ErrInstanceBusy if another holder has it.
func TryLockFile(path string) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := tryLock(f); err != nil {
		f.Close()
		return nil, err
	}
	return &FileLock{f: f}, nil
}

func (l *FileLock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
