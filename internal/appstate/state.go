package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/framestudio/internal/bitmap"
	"github.com/example/framestudio/internal/clipboard"
	"github.com/example/framestudio/internal/frame"
	"github.com/example/framestudio/internal/imagestate"
	"github.com/example/framestudio/internal/notify"
	"github.com/example/framestudio/internal/render"
	"github.com/example/framestudio/internal/session"
	"github.com/example/framestudio/internal/theme"
)

// nudgeStep is how far the arrow keys move the photo, in surface pixels.
const nudgeStep = 10

// zoomStep is the zoom change for the +/- keys and the mouse wheel.
const zoomStep = 10

// AppState holds the configuration of the editor window.
type AppState struct {
	Session   *session.Session
	Catalog   *frame.Catalog
	OutputDir string
	Prefix    string
	Theme     *theme.Theme
	Title     string

	log      logrus.FieldLogger
	notifier *notify.Notifier

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithSession sets the editing session shown in the window.
func WithSession(s *session.Session) Option { return func(a *AppState) { a.Session = s } }

// WithCatalog sets the frames the frame and mode buttons cycle through.
func WithCatalog(c *frame.Catalog) Option { return func(a *AppState) { a.Catalog = c } }

// WithOutputDir sets where Ctrl+S writes exports.
func WithOutputDir(dir string) Option { return func(a *AppState) { a.OutputDir = dir } }

// WithPrefix sets the export file name prefix.
func WithPrefix(prefix string) Option { return func(a *AppState) { a.Prefix = prefix } }

// WithTheme sets the window colours.
func WithTheme(th *theme.Theme) Option { return func(a *AppState) { a.Theme = th } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithNotifier sets the desktop notifier used after save and copy.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(a *AppState) { a.log = l } }

// WithOnClose registers a callback invoked after the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{
		Prefix: render.DefaultPrefix,
		Title:  "Frame Studio",
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	if a.Catalog == nil {
		a.Catalog = frame.Builtin()
	}
	if a.Session == nil {
		a.Session = session.New(session.WithLogger(a.log))
	}
	return a
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// resultEvent carries a finished background load into the event loop.
type resultEvent struct{ bitmap.Result }

// lookupShortcut finds the action bound to e. Rune bindings ignore the key
// code and the shift state so '+' and 'R' match however they were typed.
func lookupShortcut(bindings map[KeyShortcut]string, e key.Event) (string, bool) {
	if e.Rune > 0 {
		ks := KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: e.Modifiers &^ key.ModShift}
		if name, ok := bindings[ks]; ok {
			return name, true
		}
	}
	name, ok := bindings[KeyShortcut{Code: e.Code, Modifiers: e.Modifiers}]
	return name, ok
}

// nextFrame returns the template after currentID in list, wrapping around.
func nextFrame(list []frame.Template, currentID string) (frame.Template, bool) {
	if len(list) == 0 {
		return frame.Template{}, false
	}
	for i, t := range list {
		if t.ID == currentID {
			return list[(i+1)%len(list)], true
		}
	}
	return list[0], true
}

// otherMode returns the mode the mode button switches to.
func otherMode(m frame.Mode) frame.Mode {
	if m == frame.ModePost {
		return frame.ModeProfile
	}
	return frame.ModePost
}

// headerTitle summarises the session for the header bar.
func headerTitle(s *session.Session) string {
	parts := []string{string(s.Mode())}
	if f := s.Frame(); !f.IsZero() {
		name := f.Name
		if name == "" {
			name = f.ID
		}
		parts = append(parts, "frame: "+name)
	}
	if st := s.State(); st.HasPhoto() {
		parts = append(parts, "photo: "+st.Source.Label())
	}
	if s.Pending() {
		parts = append(parts, "loading...")
	}
	return strings.Join(parts, "  |  ")
}

func (a *AppState) Main(s screen.Screen) {
	sess := a.Session
	log := a.log
	fitToolbarWidth()

	surfSize := sess.Surface().Bounds().Size()
	width := toolbarWidth + surfSize.X/2 + 16
	height := headerHeight + bottomHeight + surfSize.Y/2 + 16
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.Title})
	if err != nil {
		log.WithError(err).Fatal("new window")
	}
	defer w.Release()
	defer a.notifyClose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for {
			select {
			case r := <-sess.Results():
				w.Send(resultEvent{r})
			case <-sess.Changed():
				w.Send(paint.Event{})
			case <-ctx.Done():
				return
			}
		}
	}()

	var message string
	var messageUntil time.Time
	setMessage := func(msg string) {
		message = msg
		messageUntil = time.Now().Add(messageDuration)
		time.AfterFunc(messageDuration, func() { w.Send(paint.Event{}) })
		w.Send(paint.Event{})
	}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	bg := &backdrop{}
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			pctx, pcancel := context.WithCancel(ctx)
			paintMu.Lock()
			paintCancel = pcancel
			paintMu.Unlock()
			drawFrame(pctx, s, w, st, bg, log)
			paintMu.Lock()
			paintCancel = nil
			if pctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			pcancel()
		}
	}()
	defer close(paintCh)

	quit := false
	actions := map[string]func(){}
	keyboardAction := map[KeyShortcut]string{}
	register := func(name string, keys KeyboardShortcuts, fn func()) {
		actions[name] = fn
		if keys != nil {
			for _, sc := range keys.KeyboardShortcuts() {
				keyboardAction[sc] = name
			}
		}
	}

	register("paste", shortcutList{{Rune: 'v', Modifiers: key.ModControl}}, func() {
		src, err := clipboard.ReadPhoto()
		switch {
		case err == nil:
			sess.SetPhoto(ctx, src)
		case errors.Is(err, clipboard.ErrNoImage):
			setMessage("clipboard has no image")
		default:
			log.WithError(err).Warn("clipboard read failed")
			setMessage("paste failed")
		}
	})
	register("rotate", shortcutList{{Rune: 'r'}}, func() { sess.Rotate() })
	register("reset", shortcutList{{Rune: '0'}}, func() { sess.Reset() })
	register("zoomin", shortcutList{{Rune: '+'}, {Rune: '='}}, func() { sess.ZoomBy(zoomStep) })
	register("zoomout", shortcutList{{Rune: '-'}}, func() { sess.ZoomBy(-zoomStep) })
	register("frame", shortcutList{{Rune: 'f'}}, func() {
		t, ok := nextFrame(a.Catalog.Filter(sess.Mode()), sess.Frame().ID)
		if !ok {
			setMessage("no frames for " + string(sess.Mode()))
			return
		}
		sess.SetFrame(ctx, t)
	})
	register("mode", shortcutList{{Rune: 'm'}}, func() {
		m := otherMode(sess.Mode())
		t, err := a.Catalog.Default(m)
		if err != nil {
			setMessage(err.Error())
			return
		}
		sess.SetFrame(ctx, t)
	})
	register("save", shortcutList{{Rune: 's', Modifiers: key.ModControl}}, func() {
		path, err := sess.ExportFile(a.OutputDir, a.Prefix, time.Now())
		if err != nil {
			log.WithError(err).Error("save failed")
			setMessage("save failed")
			return
		}
		a.notifier.Save(path)
		setMessage("saved " + filepath.Base(path))
	})
	register("copy", shortcutList{{Rune: 'c', Modifiers: key.ModControl}}, func() {
		if err := clipboard.WriteImage(sess.Surface()); err != nil {
			log.WithError(err).Error("copy failed")
			setMessage("copy failed")
			return
		}
		a.notifier.Copy("frame")
		setMessage("copied to clipboard")
	})
	register("quit", shortcutList{{Rune: 'q'}, {Code: key.CodeEscape}}, func() { quit = true })
	nudge := func(dx, dy float64) func() {
		return func() { sess.Dispatch(imagestate.Nudge{DX: dx, DY: dy}) }
	}
	register("left", shortcutList{{Code: key.CodeLeftArrow}}, nudge(-nudgeStep, 0))
	register("right", shortcutList{{Code: key.CodeRightArrow}}, nudge(nudgeStep, 0))
	register("up", shortcutList{{Code: key.CodeUpArrow}}, nudge(0, -nudgeStep))
	register("down", shortcutList{{Code: key.CodeDownArrow}}, nudge(0, nudgeStep))

	handleShortcut := func(name string) {
		if fn, ok := actions[name]; ok {
			log.WithField("action", name).Debug("editor action")
			fn()
			w.Send(paint.Event{})
		}
	}

	toolButtons := make([]*CacheButton, 0, len(toolbarLabels))
	for _, tl := range toolbarLabels {
		name := tl.action
		toolButtons = append(toolButtons, &CacheButton{Button: &ActionButton{
			label:      tl.label,
			action:     name,
			onActivate: func() { handleShortcut(name) },
		}})
	}
	shortcuts := make([]*Shortcut, 0, len(legendEntries))
	for _, le := range legendEntries {
		var fn func()
		if le.action != "" {
			name := le.action
			fn = func() { handleShortcut(name) }
		}
		shortcuts = append(shortcuts, &Shortcut{label: le.label, action: fn})
	}

	l := computeLayout(width, height)
	placeButtons(l, toolButtons, shortcuts)
	hoverTool, hoverShortcut := -1, -1
	sliderDrag := false

	display := func() image.Rectangle { return canvasRect(l, sess.Surface().Bounds().Size()) }

	for {
		if quit {
			paintMu.Lock()
			if paintCancel != nil {
				paintCancel()
			}
			paintMu.Unlock()
			return
		}
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				sess.PointerLeave()
				sliderDrag = false
			}
		case resultEvent:
			sess.HandleResult(e.Result)
			w.Send(paint.Event{})
		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			l = computeLayout(width, height)
			placeButtons(l, toolButtons, shortcuts)
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := paintState{
				width:         width,
				height:        height,
				theme:         a.Theme,
				surface:       sess.Snapshot(),
				state:         sess.State(),
				title:         headerTitle(sess),
				dragging:      sess.Dragging(),
				toolButtons:   toolButtons,
				shortcuts:     shortcuts,
				hoverTool:     hoverTool,
				hoverShortcut: hoverShortcut,
				message:       message,
				messageUntil:  messageUntil,
				now:           time.Now(),
			}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			if message != "" && time.Now().Before(messageUntil) && e.Direction == mouse.DirPress {
				messageUntil = time.Time{}
				w.Send(paint.Event{})
				continue
			}
			if e.Direction == mouse.DirStep {
				switch e.Button {
				case mouse.ButtonWheelUp:
					sess.ZoomBy(zoomStep)
				case mouse.ButtonWheelDown:
					sess.ZoomBy(-zoomStep)
				}
				continue
			}
			if sliderDrag {
				switch e.Direction {
				case mouse.DirNone:
					sess.SetZoom(l.slider.valueAt(p.X))
				case mouse.DirRelease:
					sliderDrag = false
				}
				continue
			}
			if sess.Dragging() {
				disp := display()
				switch e.Direction {
				case mouse.DirNone:
					if !p.In(disp) {
						sess.PointerLeave()
						w.Send(paint.Event{})
						continue
					}
					sess.PointerMove(windowToSurface(e.X, e.Y, disp, sess.Surface().Bounds().Size()))
				case mouse.DirRelease:
					sess.PointerUp()
					w.Send(paint.Event{})
				}
				continue
			}
			press := e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress
			switch {
			case p.In(l.bottom):
				if press && p.In(l.slider.hitRect()) {
					sliderDrag = true
					sess.SetZoom(l.slider.valueAt(p.X))
					continue
				}
				if i := hitButton(shortcuts, p); i != hoverShortcut {
					hoverShortcut = i
					w.Send(paint.Event{})
				}
				if press && hoverShortcut >= 0 {
					shortcuts[hoverShortcut].Activate()
				}
			case p.In(l.toolbar):
				if i := hitButton(toolButtons, p); i != hoverTool {
					hoverTool = i
					w.Send(paint.Event{})
				}
				if press && hoverTool >= 0 {
					toolButtons[hoverTool].Activate()
				}
			default:
				if hoverTool >= 0 || hoverShortcut >= 0 {
					hoverTool, hoverShortcut = -1, -1
					w.Send(paint.Event{})
				}
				disp := display()
				if press && p.In(disp) {
					if sess.PointerDown(windowToSurface(e.X, e.Y, disp, sess.Surface().Bounds().Size())) {
						w.Send(paint.Event{})
					}
				}
			}
		case touch.Event:
			disp := display()
			sp := windowToSurface(e.X, e.Y, disp, sess.Surface().Bounds().Size())
			id := int64(e.Sequence)
			switch e.Type {
			case touch.TypeBegin:
				if image.Pt(int(e.X), int(e.Y)).In(disp) {
					sess.TouchDown(id, sp)
				}
			case touch.TypeMove:
				sess.TouchMove(id, sp)
			case touch.TypeEnd:
				sess.TouchUp(id)
			}
			w.Send(paint.Event{})
		case key.Event:
			if e.Direction != key.DirPress && e.Direction != key.DirNone {
				continue
			}
			if name, ok := lookupShortcut(keyboardAction, e); ok {
				handleShortcut(name)
			}
		case error:
			log.WithError(e).Error("window event")
		default:
			log.WithField("event", fmt.Sprintf("%T", e)).Trace("unhandled event")
		}
	}
}
