// Command restfuse mounts a remote directory served by restfused as a
// local file system.
package main

import (
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/restfuse-project/restfuse/cmd"
)

func main() {
	if crashLog, err := crashLogPath(); err == nil {
		if err := os.MkdirAll(filepath.Dir(crashLog), 0755); err == nil {
			debug.SetCrashOutput(&cmd.CrashWriter{FileName: crashLog}, debug.CrashOptions{})
		}
	}

	cmd.Execute()
}

func crashLogPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "restfuse", "crash.log"), nil
}
