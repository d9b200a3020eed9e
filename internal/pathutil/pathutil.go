// Package pathutil resolves user-supplied paths (mountpoints, config
// files, log and cache-backing directories) to absolute ones.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ParentProcessDirEnv names the environment variable a daemonized child
// process reads to learn its parent's working directory, since the child
// itself may have already chdir'd elsewhere by the time it resolves a
// relative path a user passed on the original command line.
const ParentProcessDirEnv = "RESTFUSE_PARENT_PROCESS_DIR"

// GetResolvedPath resolves path to an absolute one. A leading "~" expands
// against the user's home directory. Any other relative path is resolved
// against ParentProcessDirEnv if set, or the current working directory
// otherwise. An empty path resolves to itself.
func GetResolvedPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}

	if filepath.IsAbs(path) {
		return path, nil
	}

	base := os.Getenv(ParentProcessDirEnv)
	if base == "" {
		var err error
		base, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(base, path), nil
}
