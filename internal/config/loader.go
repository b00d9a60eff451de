package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// rcName is the per-directory config file honoured by development builds.
const rcName = ".framestudiorc"

// Loader finds and reads the rc file.
type Loader struct {
	Version      string // "dev" enables the working directory rc file
	OverridePath string // -ldflags value or FRAMESTUDIO_CONFIG
}

// NewLoader returns a Loader. An empty overridePath falls back to the
// FRAMESTUDIO_CONFIG environment variable.
func NewLoader(version string, overridePath string) *Loader {
	if overridePath == "" {
		overridePath = os.Getenv(EnvPrefix + "CONFIG")
	}
	return &Loader{Version: version, OverridePath: overridePath}
}

// Candidates lists the paths consulted, highest priority first.
func (l *Loader) Candidates() []string {
	var paths []string
	if l.OverridePath != "" {
		paths = append(paths, l.OverridePath)
	}
	if l.Version == "dev" {
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, rcName))
		}
	}
	return append(paths, DefaultPath())
}

// GetConfigPath returns the first existing candidate, or "" when there is
// none.
func (l *Loader) GetConfigPath() string {
	for _, p := range l.Candidates() {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// Load parses the rc file, or returns defaults when none exists.
func (l *Loader) Load() (*Config, error) {
	path := l.GetConfigPath()
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath is where a new configuration file is written.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "framestudio", "config.rc")
}
