package indexer

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/ktxref/ktxref/internal/indexer/parsers"
)

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery walks a project root and returns the Kotlin and Java source
// files, skipping build output directories by conventional names plus any
// configured ignore patterns.
type FileDiscovery struct {
	rootDir        string
	skipDirs       map[string]bool
	ignorePatterns []compiledPattern
}

// NewFileDiscovery creates a discovery instance.
func NewFileDiscovery(rootDir string, skipDirs, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir:  rootDir,
		skipDirs: make(map[string]bool, len(skipDirs)),
	}
	for _, name := range skipDirs {
		fd.skipDirs[name] = true
	}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return fd, nil
}

// DiscoverFiles returns source file paths in lexicographic order.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	var files []string

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path != fd.rootDir && (fd.skipDirs[name] || len(name) > 1 && name[0] == '.') {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := parsers.DetectLanguage(path); !ok {
			return nil
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		if fd.shouldIgnore(filepath.ToSlash(relPath)) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	for _, cp := range fd.ignorePatterns {
		if cp.glob.Match(relPath) {
			return true
		}
	}
	return false
}
