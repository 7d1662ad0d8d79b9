package sessions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moby/patternmatcher"
)

// Scanner lists candidate session files in a directory.
type Scanner struct {
	dir    string
	ignore *patternmatcher.PatternMatcher
}

// NewScanner builds a scanner for dir. ignore holds gitignore-style patterns
// matched against file names relative to dir.
func NewScanner(dir string, ignore []string) (*Scanner, error) {
	s := &Scanner{dir: dir}
	if len(ignore) > 0 {
		pm, err := patternmatcher.New(ignore)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern: %w", err)
		}
		s.ignore = pm
	}
	return s, nil
}

// Dir returns the scanned directory.
func (s *Scanner) Dir() string {
	return s.dir
}

// List returns the paths of all regular *.json files, sorted by name.
func (s *Scanner) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, Extension) || name == Extension {
			continue
		}
		if s.ignored(name) {
			continue
		}
		files = append(files, filepath.Join(s.dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func (s *Scanner) ignored(name string) bool {
	if s.ignore == nil {
		return false
	}
	matched, err := s.ignore.MatchesOrParentMatches(name)
	return err == nil && matched
}
