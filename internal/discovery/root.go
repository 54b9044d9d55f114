package discovery

import (
	"fmt"
	"os"
	"path/filepath"
)

// ErrProjectNotFound is returned by FindProjectRoot when no ancestor
// directory contains a Library subdirectory.
var ErrProjectNotFound = fmt.Errorf("project root not found: no ancestor directory contains a %s directory", LibraryDir)

// FindProjectRoot walks upward from start until it finds a directory
// containing a Library subdirectory, or reaches the filesystem root (spec
// §4.8). start may be relative; it is resolved to an absolute path first.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	for {
		candidate := filepath.Join(dir, LibraryDir)
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrProjectNotFound
		}
		dir = parent
	}
}
