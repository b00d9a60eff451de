package main

import (
	"fmt"
	"strings"
)

// programTitle prefixes every window title.
const programTitle = "Frame Studio"

type titleOptions struct {
	Photo  string
	Frame  string
	Mode   string
	Extras []string
}

func windowTitle(opts titleOptions) string {
	parts := []string{programTitle}

	photo := strings.TrimSpace(opts.Photo)
	if photo != "" {
		parts = append(parts, photo)
	}

	fr := strings.TrimSpace(opts.Frame)
	if fr != "" {
		parts = append(parts, fr)
	}

	mode := strings.TrimSpace(opts.Mode)
	if mode != "" {
		parts = append(parts, mode)
	}

	extras := make([]string, 0, len(opts.Extras)+3)

	if strings.TrimSpace(version) != "" {
		extras = append(extras, fmt.Sprintf("v%s", strings.TrimSpace(version)))
	}

	if strings.TrimSpace(commit) != "" {
		extras = append(extras, fmt.Sprintf("commit %s", strings.TrimSpace(commit)))
	}

	if strings.TrimSpace(date) != "" {
		extras = append(extras, strings.TrimSpace(date))
	}

	extras = append(extras, opts.Extras...)

	return strings.Join(append(parts, extras...), " - ")
}
