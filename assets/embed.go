package assets

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// Embedded built-in frame overlays.
//
//go:embed frames/*.png
var embeddedFrames embed.FS

var (
	loadFramesOnce sync.Once
	loadFramesErr  error

	frameData   = map[string][]byte{}
	frameBounds = map[string]image.Rectangle{}
)

func loadFrames() {
	entries, err := fs.ReadDir(embeddedFrames, "frames")
	if err != nil {
		loadFramesErr = err
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".png") {
			continue
		}
		data, err := embeddedFrames.ReadFile(path.Join("frames", name))
		if err != nil {
			loadFramesErr = err
			return
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			loadFramesErr = fmt.Errorf("frame %s: %w", name, err)
			return
		}
		base := strings.TrimSuffix(name, ".png")
		frameData[base] = data
		frameBounds[base] = image.Rect(0, 0, cfg.Width, cfg.Height)
	}
}

func ensureFrames() error {
	loadFramesOnce.Do(loadFrames)
	return loadFramesErr
}

// FramePNG returns a copy of the raw PNG bytes of an embedded frame.
func FramePNG(name string) ([]byte, error) {
	if err := ensureFrames(); err != nil {
		return nil, err
	}
	data, ok := frameData[name]
	if !ok {
		return nil, fmt.Errorf("frame %q not embedded", name)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// FrameBounds reports the pixel bounds of an embedded frame without decoding it.
func FrameBounds(name string) (image.Rectangle, error) {
	if err := ensureFrames(); err != nil {
		return image.Rectangle{}, err
	}
	b, ok := frameBounds[name]
	if !ok {
		return image.Rectangle{}, fmt.Errorf("frame %q not embedded", name)
	}
	return b, nil
}

// FrameNames lists the embedded frames in lexical order.
func FrameNames() []string {
	if err := ensureFrames(); err != nil {
		return nil
	}
	names := make([]string, 0, len(frameData))
	for name := range frameData {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
