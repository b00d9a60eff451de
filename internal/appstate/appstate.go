package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"

	"github.com/example/framestudio/internal/gesture"
	"github.com/example/framestudio/internal/imagestate"
	"github.com/example/framestudio/internal/theme"
)

const (
	headerHeight = 24
	sliderHeight = 28
	legendHeight = 24
	bottomHeight = sliderHeight + legendHeight
	buttonHeight = 24
)

var toolbarWidth = 64

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// messageDuration is how long transient messages stay on screen.
const messageDuration = 2 * time.Second

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		logrus.WithError(err).Fatal("parse font")
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 28, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		logrus.WithError(err).Fatal("font face")
	}
}

// layout splits the window into header, toolbar, canvas and bottom bar.
type layout struct {
	width, height int
	header        image.Rectangle
	toolbar       image.Rectangle
	canvas        image.Rectangle
	bottom        image.Rectangle
	slider        slider
	legend        image.Rectangle
}

func computeLayout(width, height int) layout {
	l := layout{width: width, height: height}
	l.header = image.Rect(0, 0, width, headerHeight)
	l.bottom = image.Rect(0, height-bottomHeight, width, height)
	l.toolbar = image.Rect(0, headerHeight, toolbarWidth, l.bottom.Min.Y)
	l.canvas = image.Rect(toolbarWidth, headerHeight, width, l.bottom.Min.Y)
	trackY := l.bottom.Min.Y + sliderHeight/2
	l.slider = slider{
		track: image.Rect(toolbarWidth+8, trackY-3, max(toolbarWidth+9, width-72), trackY+3),
		min:   imagestate.MinZoom,
		max:   imagestate.MaxZoom,
	}
	l.legend = image.Rect(0, l.bottom.Min.Y+sliderHeight, width, height)
	return l
}

// fitRect returns the largest rectangle with the aspect of size centred in
// area.
func fitRect(size image.Point, area image.Rectangle) image.Rectangle {
	if size.X <= 0 || size.Y <= 0 || area.Empty() {
		return image.Rectangle{}
	}
	scale := math.Min(float64(area.Dx())/float64(size.X), float64(area.Dy())/float64(size.Y))
	w := int(math.Round(float64(size.X) * scale))
	h := int(math.Round(float64(size.Y) * scale))
	x0 := area.Min.X + (area.Dx()-w)/2
	y0 := area.Min.Y + (area.Dy()-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// canvasRect is where a surface of size is shown inside the canvas area.
func canvasRect(l layout, size image.Point) image.Rectangle {
	return fitRect(size, l.canvas.Inset(8))
}

// windowToSurface converts a window position inside disp into surface pixels.
func windowToSurface(x, y float32, disp image.Rectangle, size image.Point) gesture.Point {
	if disp.Empty() {
		return gesture.Point{}
	}
	sx := (float64(x) - float64(disp.Min.X)) * float64(size.X) / float64(disp.Dx())
	sy := (float64(y) - float64(disp.Min.Y)) * float64(size.Y) / float64(disp.Dy())
	return gesture.Pt(sx, sy)
}

// slider maps horizontal positions on its track to zoom values.
type slider struct {
	track    image.Rectangle
	min, max float64
}

// hitRect is the clickable area around the track.
func (s slider) hitRect() image.Rectangle {
	return image.Rect(s.track.Min.X-6, s.track.Min.Y-10, s.track.Max.X+6, s.track.Max.Y+10)
}

func (s slider) valueAt(x int) float64 {
	if s.track.Dx() <= 0 {
		return s.min
	}
	t := float64(x-s.track.Min.X) / float64(s.track.Dx())
	t = math.Max(0, math.Min(1, t))
	return math.Round(s.min + t*(s.max-s.min))
}

func (s slider) knobX(v float64) int {
	v = math.Max(s.min, math.Min(s.max, v))
	t := (v - s.min) / (s.max - s.min)
	return s.track.Min.X + int(math.Round(t*float64(s.track.Dx())))
}

func (s slider) draw(dst *image.RGBA, v float64, th *theme.Theme) {
	draw.Draw(dst, s.track, &image.Uniform{th.SliderTrack}, image.Point{}, draw.Src)
	kx := s.knobX(v)
	fill := image.Rect(s.track.Min.X, s.track.Min.Y, kx, s.track.Max.Y)
	draw.Draw(dst, fill, &image.Uniform{th.Accent}, image.Point{}, draw.Src)
	knob := image.Rect(kx-5, s.track.Min.Y-7, kx+5, s.track.Max.Y+7)
	draw.Draw(dst, knob, &image.Uniform{th.SliderKnob}, image.Point{}, draw.Src)
	drawRect(dst, knob, th.ButtonBorder, 1)
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState, th *theme.Theme)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	th    *theme.Theme
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState, th *theme.Theme) {
	if cb.th != th {
		cb.th = th
		cb.cache = [3]*image.RGBA{}
	}
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state, th)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) Rect() image.Rectangle { return cb.Button.Rect() }

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

func (cb *CacheButton) Activate() { cb.Button.Activate() }

func buttonColors(state ButtonState, th *theme.Theme) color.RGBA {
	switch state {
	case StateHover:
		return th.ButtonBackgroundHover
	case StatePressed:
		return th.ButtonBackgroundPress
	}
	return th.ButtonBackground
}

// ActionButton is a toolbar button that runs an editor action.
type ActionButton struct {
	label      string
	action     string
	rect       image.Rectangle
	onActivate func()
}

func (ab *ActionButton) Draw(dst *image.RGBA, state ButtonState, th *theme.Theme) {
	draw.Draw(dst, ab.rect, &image.Uniform{buttonColors(state, th)}, image.Point{}, draw.Src)
	drawRect(dst, ab.rect, th.ButtonBorder, 1)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(ab.rect.Min.X+4, ab.rect.Min.Y+16)}
	d.DrawString(ab.label)
}

func (ab *ActionButton) Rect() image.Rectangle { return ab.rect }

func (ab *ActionButton) SetRect(r image.Rectangle) { ab.rect = r }

func (ab *ActionButton) Activate() {
	if ab.onActivate != nil {
		ab.onActivate()
	}
}

// Shortcut is a clickable entry in the legend along the bottom bar.
type Shortcut struct {
	label  string
	action func()
	rect   image.Rectangle
}

func (s *Shortcut) Draw(dst *image.RGBA, state ButtonState, th *theme.Theme) {
	draw.Draw(dst, s.rect, &image.Uniform{buttonColors(state, th)}, image.Point{}, draw.Src)
	drawRect(dst, s.rect, th.ButtonBorder, 1)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.LegendText), Face: basicfont.Face7x13,
		Dot: fixed.P(s.rect.Min.X+2, s.rect.Min.Y+14)}
	d.DrawString(s.label)
}

func (s *Shortcut) Rect() image.Rectangle { return s.rect }

func (s *Shortcut) SetRect(r image.Rectangle) { s.rect = r }

func (s *Shortcut) Activate() {
	if s.action != nil {
		s.action()
	}
}

// toolbarLabels are the toolbar entries in display order with the action
// each one triggers.
var toolbarLabels = []struct{ label, action string }{
	{"^V:Paste", "paste"},
	{"R:Rotate", "rotate"},
	{"0:Reset", "reset"},
	{"-:Zoom-", "zoomout"},
	{"+:Zoom+", "zoomin"},
	{"F:Frame", "frame"},
	{"M:Mode", "mode"},
	{"^S:Save", "save"},
	{"^C:Copy", "copy"},
}

// legendEntries are shown along the bottom of the window.
var legendEntries = []struct{ label, action string }{
	{"Drag:move", ""},
	{"Arrows:nudge", ""},
	{"R:rotate", "rotate"},
	{"0:reset", "reset"},
	{"^S:save", "save"},
	{"^C:copy", "copy"},
	{"Q:quit", "quit"},
}

// fitToolbarWidth widens the toolbar so every label fits.
func fitToolbarWidth() {
	d := &font.Drawer{Face: basicfont.Face7x13}
	widest := d.MeasureString("Frame Studio").Ceil() + 8
	for _, tl := range toolbarLabels {
		if w := d.MeasureString(tl.label).Ceil() + 10; w > widest {
			widest = w
		}
	}
	if widest > toolbarWidth {
		toolbarWidth = widest
	}
}

// placeButtons positions the toolbar buttons and legend entries for l.
func placeButtons(l layout, buttons []*CacheButton, shortcuts []*Shortcut) {
	y := l.toolbar.Min.Y
	for _, cb := range buttons {
		cb.SetRect(image.Rect(0, y, toolbarWidth, y+buttonHeight))
		y += buttonHeight
	}
	x := 4
	y = l.legend.Min.Y + 18
	meas := &font.Drawer{Face: basicfont.Face7x13}
	for _, sc := range shortcuts {
		w := meas.MeasureString(sc.label).Ceil()
		sc.SetRect(image.Rect(x-2, y-14, x+w+2, y+4))
		x = sc.rect.Max.X + 8
	}
}

// hitButton returns the index of the button containing p or -1.
func hitButton[B Button](buttons []B, p image.Point) int {
	for i, b := range buttons {
		if p.In(b.Rect()) {
			return i
		}
	}
	return -1
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	u := &image.Uniform{col}
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thick), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-thick, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thick, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-thick, rect.Min.Y, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
}

// backdrop caches the checkerboard drawn behind the canvas.
type backdrop struct {
	img *image.RGBA
	th  *theme.Theme
}

func (b *backdrop) draw(dst *image.RGBA, rect image.Rectangle, th *theme.Theme) {
	if b.img == nil || b.img.Bounds() != rect || b.th != th {
		b.img = image.NewRGBA(rect)
		b.th = th
		drawCheckerboard(b.img, rect, 8, th.CheckerLight, th.CheckerDark)
	}
	draw.Draw(dst, rect, b.img, rect.Min, draw.Src)
}

type paintState struct {
	width, height int
	theme         *theme.Theme
	surface       *image.RGBA
	state         imagestate.ImageState
	title         string
	dragging      bool
	toolButtons   []*CacheButton
	shortcuts     []*Shortcut
	hoverTool     int
	hoverShortcut int
	message       string
	messageUntil  time.Time
	now           time.Time
}

// drawWindow renders the complete window contents into dst.
func drawWindow(ctx context.Context, dst *image.RGBA, st paintState, bg *backdrop) {
	th := st.theme
	if th == nil {
		th = theme.Default()
	}
	l := computeLayout(st.width, st.height)
	draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)

	bg.draw(dst, l.canvas, th)
	if ctx.Err() != nil {
		return
	}
	if st.surface != nil {
		disp := canvasRect(l, st.surface.Bounds().Size())
		xdraw.ApproxBiLinear.Scale(dst, disp, st.surface, st.surface.Bounds(), draw.Src, nil)
		col := th.ButtonBorder
		if st.dragging {
			col = th.Accent
		}
		drawRect(dst, disp.Inset(-1), col, 1)
	}
	if ctx.Err() != nil {
		return
	}

	drawHeader(dst, l, st, th)
	drawToolbar(dst, l, st, th)
	drawBottom(dst, l, st, th)
	if ctx.Err() != nil {
		return
	}

	if st.message != "" && st.now.Before(st.messageUntil) {
		drawMessage(dst, l, st.message, th)
	}
}

func drawHeader(dst *image.RGBA, l layout, st paintState, th *theme.Theme) {
	draw.Draw(dst, l.header, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13,
		Dot: fixed.P(4, 16)}
	d.DrawString("Frame Studio")
	if st.title != "" {
		d.Dot = fixed.P(toolbarWidth+8, 16)
		d.DrawString(st.title)
	}
}

func drawToolbar(dst *image.RGBA, l layout, st paintState, th *theme.Theme) {
	draw.Draw(dst, l.toolbar, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	for i, cb := range st.toolButtons {
		state := StateDefault
		if i == st.hoverTool {
			state = StateHover
		}
		cb.Draw(dst, state, th)
	}
}

func drawBottom(dst *image.RGBA, l layout, st paintState, th *theme.Theme) {
	draw.Draw(dst, l.bottom, &image.Uniform{th.BottomBackground}, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13,
		Dot: fixed.P(4, l.slider.track.Max.Y+2)}
	d.DrawString("Zoom")
	l.slider.draw(dst, st.state.Zoom, th)
	d.Dot = fixed.P(l.slider.track.Max.X+10, l.slider.track.Max.Y+2)
	d.DrawString(fmt.Sprintf("%.0f%%", st.state.Zoom))

	for i, sc := range st.shortcuts {
		state := StateDefault
		if i == st.hoverShortcut {
			state = StateHover
		}
		sc.Draw(dst, state, th)
	}
}

func drawMessage(dst *image.RGBA, l layout, msg string, th *theme.Theme) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.MessageText), Face: messageFace}
	wmsg := d.MeasureString(msg).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := l.canvas.Min.X + (l.canvas.Dx()-wmsg)/2
	py := l.canvas.Min.Y + (l.canvas.Dy()-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	draw.Draw(dst, rect, &image.Uniform{th.MessageBackground}, image.Point{}, draw.Over)
	drawRect(dst, rect, th.ButtonBorder, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState, bg *backdrop, log logrus.FieldLogger) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.WithError(err).Error("new buffer")
		return
	}
	defer b.Release()

	drawWindow(ctx, b.RGBA(), st, bg)
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
