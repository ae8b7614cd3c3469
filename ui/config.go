package ui

import "github.com/dgnsrekt/murmur/internal/provider"

// Config contains TUI-specific configuration.
type Config struct {
	ShowAllFiles     bool
	ShowLineNumbers  bool
	Gopath           string `env:"GOPATH"`
	HomeDir          string `env:"HOME"`
	GlamourMaxWidth  uint
	GlamourStyle     string `env:"GLAMOUR_STYLE"`
	EnableMouse      bool
	PreserveNewLines bool

	// Working directory or file path
	Path string

	// Speech provider configuration for the session
	Speech provider.Config

	// Overrides for the audio store and synthesis cache locations.
	// Empty means the user's data and cache directories.
	DataDir  string
	CacheDir string
	NoCache  bool

	// For debugging the UI
	HighPerformancePager bool `env:"MURMUR_HIGH_PERFORMANCE_PAGER" envDefault:"true"`
	GlamourEnabled       bool `env:"MURMUR_ENABLE_GLAMOUR"         envDefault:"true"`
}
