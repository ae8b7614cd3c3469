package main

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// setupLog routes logging to the file named by MURMUR_LOGFILE, at debug
// level. Without it, logs are discarded.
func setupLog() (func() error, error) {
	if logFile := os.Getenv("MURMUR_LOGFILE"); logFile != "" {
		f, err := tea.LogToFileWith(logFile, "murmur", log.Default())
		if err != nil {
			return nil, err
		}
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}
