package download

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/fileio"
)

// Cache is a content-addressed store laid out as <root>/<xx>/<hash>.
// Entries are immutable; the first writer wins.
type Cache struct {
	root string
	log  *zap.Logger
}

func NewCache(root string, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{root: root, log: log}
}

func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) Path(hash string) string {
	hash = strings.ToLower(hash)
	prefix := hash
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(c.root, prefix, hash)
}

// Lookup returns the entry path when it exists and verifies. An entry that
// fails verification is evicted.
func (c *Cache) Lookup(task Task) (string, bool) {
	if c == nil || task.Hash == "" {
		return "", false
	}
	p := c.Path(task.Hash)
	if !fileio.Exists(p) {
		return "", false
	}
	if err := verify(task, p); err != nil {
		c.log.Warn("evicting corrupt cache entry", zap.String("path", p), zap.Error(err))
		_ = c.Evict(task.Hash)
		return "", false
	}
	return p, true
}

// Store copies src into the cache under hash unless an entry already exists.
func (c *Cache) Store(src, hash string) error {
	if c == nil || hash == "" {
		return nil
	}
	final := c.Path(hash)
	if fileio.Exists(final) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(final), os.ModePerm); err != nil {
		return err
	}
	tmp, err := copyToTemp(src, filepath.Dir(final))
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	err = os.Link(tmp, final)
	if err == nil || os.IsExist(err) {
		return nil
	}
	if fileio.Exists(final) {
		return nil
	}
	return os.Rename(tmp, final)
}

func (c *Cache) Evict(hash string) error {
	if c == nil {
		return nil
	}
	err := os.Remove(c.Path(hash))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// copyToTemp copies src to a hidden temp file in dir and returns its path.
func copyToTemp(src, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp(dir, ".entry-*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

// promote copies a verified cache entry to dest through a side file.
func promote(entry, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
		return err
	}
	tmp, err := copyToTemp(entry, filepath.Dir(dest))
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Verify checks the task's destination without downloading anything.
func (t Task) Verify() error {
	return verify(t.withDefaults(1), t.Dest)
}

// verify checks size, hash and archive structure of a file against the task.
func verify(task Task, path string) error {
	if err := core.VerifyFile(path, task.HashFormat, task.Hash, task.Size); err != nil {
		return err
	}
	if task.RequireArchive {
		return fileio.ValidateArchive(path, task.ArchiveMarkers...)
	}
	return nil
}
