package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/framestudio/internal/frame"
	"github.com/example/framestudio/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme
	var currentFrame string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil
			currentFrame = ""

			if name, ok := strings.CutPrefix(currentSection, "theme."); ok {
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = name
				cfg.Themes[name] = currentTheme
			}
			if id, ok := strings.CutPrefix(currentSection, "frame."); ok {
				currentFrame = id
				cfg.Frames[id] = Frame{}
			}
			continue
		}

		// Key = Value or Key: Value; '=' wins so URLs keep their colon.
		var key, value string
		if k, v, ok := strings.Cut(line, "="); ok {
			key, value = k, v
		} else if k, v, ok := strings.Cut(line, ":"); ok {
			key, value = k, v
		} else {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
			value = value[1 : len(value)-1]
		}

		switch {
		case currentTheme != nil:
			if err := currentTheme.Set(key, value); err != nil {
				return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
			}
		case currentFrame != "":
			f := cfg.Frames[currentFrame]
			if err := setFrameField(&f, key, value); err != nil {
				return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
			}
			cfg.Frames[currentFrame] = f
		case currentSection == "notify":
			if err := setNotifyField(&cfg.Notify, key, value); err != nil {
				return nil, fmt.Errorf("error in section [notify]: %w", err)
			}
		case currentSection == "":
			if err := setRootField(cfg, key, value); err != nil {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "mode":
		if _, err := frame.ParseMode(value); err != nil {
			return err
		}
		cfg.Mode = value
	case "frame":
		cfg.Frame = value
	case "save_dir":
		cfg.SaveDir = value
	case "prefix":
		cfg.Prefix = value
	case "theme":
		cfg.Theme = value
	case "log_level", "loglevel":
		cfg.LogLevel = value
	}
	return nil
}

func setFrameField(f *Frame, key, value string) error {
	switch strings.ToLower(key) {
	case "name":
		f.Name = value
	case "url", "path", "ref":
		f.URL = value
	case "mode":
		m, err := frame.ParseMode(value)
		if err != nil {
			return err
		}
		f.Mode = m
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := parseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(value)
}
