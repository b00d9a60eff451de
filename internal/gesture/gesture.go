package gesture

import (
	"github.com/example/framestudio/internal/imagestate"
)

// Point is a position in surface pixels.
type Point struct{ X, Y float64 }

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Phase is the controller state.
type Phase int

const (
	Idle Phase = iota
	Dragging
)

func (p Phase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

const noTouch = -1

// Controller turns press/move/release sequences into offset updates. The zero
// value is an idle controller.
type Controller struct {
	phase  Phase
	anchor Point
	// touch is the sequence id driving the drag, or noTouch for a mouse drag.
	touch   int64
	touched bool
}

// Phase reports whether a drag is in progress.
func (c *Controller) Phase() Phase { return c.phase }

// Anchor returns the press point minus the offset at press time.
func (c *Controller) Anchor() Point { return c.anchor }

// Press starts a drag at p. It is ignored when st has no photo.
func (c *Controller) Press(p Point, st imagestate.ImageState) bool {
	if !st.HasPhoto() {
		return false
	}
	c.phase = Dragging
	c.anchor = Point{X: p.X - st.OffsetX, Y: p.Y - st.OffsetY}
	c.touch = noTouch
	c.touched = false
	return true
}

// Move returns the offset that keeps the anchor under p. ok is false when no
// drag is active.
func (c *Controller) Move(p Point) (imagestate.SetOffset, bool) {
	if c.phase != Dragging {
		return imagestate.SetOffset{}, false
	}
	return imagestate.SetOffset{X: p.X - c.anchor.X, Y: p.Y - c.anchor.Y}, true
}

// Release ends the drag.
func (c *Controller) Release() { c.reset() }

// Leave ends the drag when the pointer exits the surface.
func (c *Controller) Leave() { c.reset() }

func (c *Controller) reset() {
	c.phase = Idle
	c.touched = false
	c.touch = noTouch
}

// TouchBegin starts a drag for the first touch sequence only.
func (c *Controller) TouchBegin(id int64, p Point, st imagestate.ImageState) bool {
	if c.phase == Dragging {
		return false
	}
	if !c.Press(p, st) {
		return false
	}
	c.touch = id
	c.touched = true
	return true
}

// TouchMove forwards moves of the driving touch sequence.
func (c *Controller) TouchMove(id int64, p Point) (imagestate.SetOffset, bool) {
	if !c.touched || c.touch != id {
		return imagestate.SetOffset{}, false
	}
	return c.Move(p)
}

// TouchEnd ends the drag when the driving sequence lifts.
func (c *Controller) TouchEnd(id int64) {
	if c.touched && c.touch == id {
		c.reset()
	}
}
