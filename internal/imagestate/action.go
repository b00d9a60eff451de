package imagestate

// Action is a transition applied to an ImageState.
type Action interface {
	apply(ImageState) ImageState
}

// SetSource replaces the photo and restores the default transform.
type SetSource struct{ Source *Source }

// SetZoom sets the zoom percentage.
type SetZoom struct{ Zoom float64 }

// Rotate turns the photo a quarter turn counter-clockwise.
type Rotate struct{}

// Reset restores the default transform and keeps the photo.
type Reset struct{}

// SetOffset moves the photo centre to (X, Y) relative to the surface centre.
type SetOffset struct{ X, Y float64 }

// Nudge moves the photo by a relative amount.
type Nudge struct{ DX, DY float64 }

func (a SetSource) apply(ImageState) ImageState {
	st := New()
	st.Source = a.Source
	return st
}

func (a SetZoom) apply(st ImageState) ImageState {
	st.Zoom = a.Zoom
	return st
}

func (Rotate) apply(st ImageState) ImageState {
	st.Rotation -= RotateStep
	return st
}

func (Reset) apply(st ImageState) ImageState {
	src := st.Source
	st = New()
	st.Source = src
	return st
}

func (a SetOffset) apply(st ImageState) ImageState {
	st.OffsetX = a.X
	st.OffsetY = a.Y
	return st
}

func (a Nudge) apply(st ImageState) ImageState {
	st.OffsetX += a.DX
	st.OffsetY += a.DY
	return st
}

// Reduce returns the state that follows prev after a. A nil action leaves the
// state unchanged.
func Reduce(prev ImageState, a Action) ImageState {
	if a == nil {
		return prev
	}
	return a.apply(prev)
}
