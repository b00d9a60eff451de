package frame

import (
	"fmt"
	"image"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Mode selects the canvas aspect of a frame.
type Mode string

const (
	// ModeProfile is the square profile picture format.
	ModeProfile Mode = "profile"
	// ModePost is the taller post format.
	ModePost Mode = "post"
)

const (
	// SurfaceWidth is the raster width shared by every mode.
	SurfaceWidth = 1080
	// PostHeight is the post surface height. The post artwork is 1580x1875;
	// scaled to SurfaceWidth that is 1281 rows.
	PostHeight = SurfaceWidth * 1875 / 1580
)

// ParseMode converts a user supplied name into a Mode. An empty string selects
// the profile mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "profile", "square":
		return ModeProfile, nil
	case "post", "portrait":
		return ModePost, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want profile or post)", s)
	}
}

// SurfaceSize returns the fixed raster resolution for the mode.
func (m Mode) SurfaceSize() image.Point {
	if m == ModePost {
		return image.Pt(SurfaceWidth, PostHeight)
	}
	return image.Pt(SurfaceWidth, SurfaceWidth)
}

// AspectRatio returns width/height of the mode's surface.
func (m Mode) AspectRatio() float64 {
	sz := m.SurfaceSize()
	return float64(sz.X) / float64(sz.Y)
}

// Template describes a decorative frame. Either URL or Data supplies the
// image; Data wins when both are set.
type Template struct {
	ID          string
	Name        string
	URL         string
	Data        []byte
	Mode        Mode
	AspectRatio float64
}

// Ref returns the reference used to load the frame.
func (t Template) Ref() string {
	if len(t.Data) > 0 {
		return "upload:" + t.ID
	}
	return t.URL
}

// SurfaceSize returns the raster resolution the frame is drawn onto.
func (t Template) SurfaceSize() image.Point {
	return t.Mode.SurfaceSize()
}

// Ratio returns the display aspect ratio, falling back to the mode's ratio.
func (t Template) Ratio() float64 {
	if t.AspectRatio > 0 {
		return t.AspectRatio
	}
	return t.Mode.AspectRatio()
}

// IsZero reports whether the template is unset.
func (t Template) IsZero() bool {
	return t.ID == "" && t.URL == "" && len(t.Data) == 0
}

// Custom creates a template for frame bytes uploaded during a session.
func Custom(name string, data []byte, mode Mode) Template {
	if mode == "" {
		mode = ModeProfile
	}
	if strings.TrimSpace(name) == "" {
		name = "Custom frame"
	}
	return Template{
		ID:          "custom-" + strings.ToLower(ulid.Make().String()),
		Name:        name,
		Data:        data,
		Mode:        mode,
		AspectRatio: mode.AspectRatio(),
	}
}
