package download

import (
	"fmt"
	"strings"

	"github.com/leocov-dev/launchwiz/core"
)

// Class selects the fan-out bound for a batch.
type Class int

const (
	Libraries Class = iota
	Assets
)

func (c Class) String() string {
	if c == Assets {
		return "assets"
	}
	return "libraries"
}

// Task describes one artifact. It is idempotent: running it again against a
// verified destination does nothing.
type Task struct {
	Name       string
	URLs       []string
	Dest       string
	Hash       string
	HashFormat string
	Size       int64
	// Attempts is the number of passes over URLs; 0 uses the engine default.
	Attempts       int
	RequireArchive bool
	ArchiveMarkers []string
}

func (t Task) withDefaults(attempts int) Task {
	if t.HashFormat == "" {
		t.HashFormat = core.DefaultHashFormat
	}
	if t.Attempts <= 0 {
		t.Attempts = attempts
	}
	t.Hash = strings.ToLower(t.Hash)
	if t.Name == "" {
		t.Name = t.Dest
	}
	return t
}

func (t Task) validate() error {
	if t.Dest == "" {
		return fmt.Errorf("download task has no destination")
	}
	if len(t.URLs) == 0 {
		return core.NewError(core.KindMissingMetadata, "download", t.Dest, fmt.Errorf("no candidate URLs"))
	}
	return nil
}

// partPath is where an interrupted download waits to be resumed.
func (t Task) partPath() string {
	return t.Dest + ".part"
}

type Source string

const (
	FromDisk    Source = "disk"
	FromCache   Source = "cache"
	FromNetwork Source = "network"
)

type Result struct {
	Task   Task
	Source Source
	URL    string
	Bytes  int64
}
