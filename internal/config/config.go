package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/framestudio/internal/frame"
	"github.com/example/framestudio/internal/theme"
)

// EnvPrefix prefixes every environment variable the tool reads.
const EnvPrefix = "FRAMESTUDIO_"

// Notify holds notification settings.
type Notify struct {
	Save bool
	Copy bool
}

// Frame is a frame template declared in a [frame.<id>] section.
type Frame struct {
	Name string
	URL  string
	Mode frame.Mode
}

// Config holds the application configuration.
type Config struct {
	Mode     string
	Frame    string
	SaveDir  string
	Prefix   string
	Theme    string
	LogLevel string
	Notify   Notify
	Frames   map[string]Frame
	Themes   map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Frames: make(map[string]Frame),
		Themes: make(map[string]*theme.Theme),
	}
}

// ApplyEnv overrides settings from FRAMESTUDIO_* variables returned by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for key, dst := range map[string]*string{
		"MODE":      &c.Mode,
		"FRAME":     &c.Frame,
		"SAVE_DIR":  &c.SaveDir,
		"PREFIX":    &c.Prefix,
		"THEME":     &c.Theme,
		"LOGLEVEL":  &c.LogLevel,
		"LOG_LEVEL": &c.LogLevel,
	} {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	for key, dst := range map[string]*bool{
		"NOTIFY_SAVE": &c.Notify.Save,
		"NOTIFY_COPY": &c.Notify.Copy,
	} {
		if v := getenv(EnvPrefix + key); v != "" {
			b, err := parseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Catalog returns the built-in frames plus those declared in the config.
func (c *Config) Catalog() *frame.Catalog {
	cat := frame.Builtin()
	for _, id := range sortedKeys(c.Frames) {
		f := c.Frames[id]
		mode := f.Mode
		if mode == "" {
			mode = frame.ModeProfile
		}
		name := f.Name
		if name == "" {
			name = id
		}
		cat.Add(frame.Template{ID: id, Name: name, URL: f.URL, Mode: mode, AspectRatio: mode.AspectRatio()})
	}
	return cat
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	for _, kv := range [][2]string{
		{"mode", c.Mode},
		{"frame", c.Frame},
		{"save_dir", c.SaveDir},
		{"prefix", c.Prefix},
		{"theme", c.Theme},
		{"log_level", c.LogLevel},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&sb, "%s = %s\n", kv[0], kv[1])
		}
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	for _, id := range sortedKeys(c.Frames) {
		f := c.Frames[id]
		fmt.Fprintf(&sb, "[frame.%s]\n", id)
		if f.Name != "" {
			fmt.Fprintf(&sb, "name = %s\n", f.Name)
		}
		fmt.Fprintf(&sb, "url = %s\n", f.URL)
		if f.Mode != "" {
			fmt.Fprintf(&sb, "mode = %s\n", f.Mode)
		}
		sb.WriteString("\n")
	}

	for _, name := range sortedKeys(c.Themes) {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, kv := range t.Entries() {
			fmt.Fprintf(&sb, "%s: %s\n", kv[0], kv[1])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
