package imagestate

import (
	"fmt"
)

const (
	// DefaultZoom renders the photo at its native pixel size.
	DefaultZoom = 100
	// MinZoom and MaxZoom bound the zoom controls.
	MinZoom = 10
	MaxZoom = 500
	// RotateStep is the number of degrees removed by one rotate action.
	RotateStep = 90
)

// Source references the photo bytes behind an ImageState. Data holds the raw
// encoded bytes when they are already in memory; otherwise Ref names where to
// read them from.
type Source struct {
	Name string
	Ref  string
	Data []byte
}

// Label returns a short human readable name for the source.
func (s *Source) Label() string {
	if s == nil {
		return ""
	}
	if s.Name != "" {
		return s.Name
	}
	if s.Ref != "" {
		return s.Ref
	}
	return fmt.Sprintf("%d bytes", len(s.Data))
}

// ImageState is the photo and its geometric transform. Offsets are in surface
// pixels relative to the surface centre.
type ImageState struct {
	Source   *Source
	Zoom     float64
	Rotation int
	OffsetX  float64
	OffsetY  float64
}

// New returns the state of a session that has no photo yet.
func New() ImageState {
	return ImageState{Zoom: DefaultZoom}
}

// HasPhoto reports whether a photo source is set.
func (s ImageState) HasPhoto() bool { return s.Source != nil }

// Scale converts the zoom percentage into a scale factor.
func (s ImageState) Scale() float64 { return s.Zoom / 100 }

// NormalizedRotation returns Rotation folded into [0, 360).
func (s ImageState) NormalizedRotation() int {
	r := s.Rotation % 360
	if r < 0 {
		r += 360
	}
	return r
}

// IsDefaultTransform reports whether the transform equals the reset values.
func (s ImageState) IsDefaultTransform() bool {
	return s.Zoom == DefaultZoom && s.Rotation == 0 && s.OffsetX == 0 && s.OffsetY == 0
}

func (s ImageState) String() string {
	return fmt.Sprintf("photo=%q zoom=%.0f%% rotation=%d offset=(%.0f,%.0f)",
		s.Source.Label(), s.Zoom, s.Rotation, s.OffsetX, s.OffsetY)
}

// ClampZoom limits v to [MinZoom, MaxZoom]. Controls call it; the store keeps
// whatever value it is given.
func ClampZoom(v float64) float64 {
	if v < MinZoom {
		return MinZoom
	}
	if v > MaxZoom {
		return MaxZoom
	}
	return v
}
