package cmd

import (
	"os"
)

// CrashWriter appends whatever it's given to FileName, opening and closing
// the file on every write so a crash handler installed via
// debug.SetCrashOutput doesn't need to keep a file descriptor alive across
// the process's entire lifetime.
type CrashWriter struct {
	FileName string
}

func (w *CrashWriter) Write(p []byte) (n int, err error) {
	f, err := os.OpenFile(w.FileName, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	n, err = f.Write(p)

	return
}
