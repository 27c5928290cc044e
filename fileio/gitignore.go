package fileio

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// RepairIgnoreFile lists game-dir paths the repair manager must leave alone.
const RepairIgnoreFile = ".repairignore"

var ignoreDefaults = []string{
	// Defaults (can be overridden with a negating pattern preceded with !)

	// Exclude Git metadata
	".git/**",
	".gitattributes",
	".gitignore",

	// Exclude macOS metadata
	".DS_Store",

	// Previous repair backups
	"*.bak",
}

func readGitignore(path string) (*gitignore.GitIgnore, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gitignore.CompileIgnoreLines(ignoreDefaults...), false
	}

	s := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	var lines []string
	lines = append(lines, ignoreDefaults...)
	lines = append(lines, s...)
	return gitignore.CompileIgnoreLines(lines...), true
}

// RepairIgnore matches paths relative to a game directory.
type RepairIgnore struct {
	root    string
	matcher *gitignore.GitIgnore
	Custom  bool
}

func LoadRepairIgnore(gameDir string) *RepairIgnore {
	m, custom := readGitignore(filepath.Join(gameDir, RepairIgnoreFile))
	return &RepairIgnore{root: gameDir, matcher: m, Custom: custom}
}

// Ignored accepts an absolute path under the game dir or a relative one.
func (r *RepairIgnore) Ignored(path string) bool {
	rel := path
	if filepath.IsAbs(path) {
		var err error
		rel, err = filepath.Rel(r.root, path)
		if err != nil {
			return false
		}
	}
	return r.matcher.MatchesPath(filepath.ToSlash(rel))
}
