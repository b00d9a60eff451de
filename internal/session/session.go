package session

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/example/framestudio/internal/bitmap"
	"github.com/example/framestudio/internal/frame"
	"github.com/example/framestudio/internal/gesture"
	"github.com/example/framestudio/internal/imagestate"
	"github.com/example/framestudio/internal/render"
	"github.com/example/framestudio/internal/source"
)

// Fetcher resolves a source reference into bytes.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Session is one editing session: the transform store, the two decoded
// layers and the surface they are painted onto. All methods except Changed,
// Results and State must be called from the goroutine that owns the session.
type Session struct {
	ID string

	log      *logrus.Entry
	fetcher  Fetcher
	store    *imagestate.Store
	cache    *bitmap.Cache
	renderer *render.Renderer
	drag     gesture.Controller
	frame    frame.Template
	mode     frame.Mode

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	changed     chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the base logger; entries carry the session id.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l.WithField("session", s.ID) }
}

// WithFetcher sets how photo and frame references are resolved.
func WithFetcher(f Fetcher) Option { return func(s *Session) { s.fetcher = f } }

// WithMode sets the initial surface mode.
func WithMode(m frame.Mode) Option { return func(s *Session) { s.mode = m } }

// WithCaption sets the placeholder painted while no layer is ready.
func WithCaption(c render.Caption) Option { return func(s *Session) { s.renderer.Caption = c } }

// New starts a session with no photo and no frame.
func New(opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       strings.ToLower(ulid.Make().String()),
		store:    imagestate.NewStore(),
		renderer: render.New(frame.ModeProfile.SurfaceSize()),
		mode:     frame.ModeProfile,
		ctx:      ctx,
		cancel:   cancel,
		changed:  make(chan struct{}, 1),
	}
	s.log = logrus.StandardLogger().WithField("session", s.ID)
	s.renderer.Caption = render.DefaultCaption()
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = source.NewFetcher(source.WithLogger(s.log))
	}
	s.cache = bitmap.NewCache(s.log)
	s.renderer.Resize(s.mode.SurfaceSize())
	s.unsubscribe = s.store.Subscribe(func(imagestate.ImageState) { s.repaint() })
	s.repaint()
	s.log.WithField("mode", s.mode).Debug("session started")
	return s
}

// request starts a load cancelled by either ctx or Close. The derived
// context and its Close hook are released as soon as the load settles.
func (s *Session) request(ctx context.Context, layer bitmap.Layer, name string, load bitmap.Loader) {
	lctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	s.cache.RequestScoped(lctx, layer, name, load, func() {
		stop()
		cancel()
	})
}

func (s *Session) loader(ref string, data []byte) bitmap.Loader {
	return func(lctx context.Context) ([]byte, error) {
		if len(data) > 0 {
			return data, nil
		}
		if ref == "" {
			return nil, bitmap.ErrEmpty
		}
		return s.fetcher.Fetch(lctx, ref)
	}
}

// SetPhoto replaces the photo and resets the transform. The bitmap is decoded
// in the background; the result arrives on Results.
func (s *Session) SetPhoto(ctx context.Context, src imagestate.Source) {
	s.request(ctx, bitmap.LayerPhoto, src.Label(), s.loader(src.Ref, src.Data))
	s.store.Dispatch(imagestate.SetSource{Source: &src})
}

// ClearPhoto removes the photo.
func (s *Session) ClearPhoto() {
	s.cache.Clear(bitmap.LayerPhoto)
	s.store.Dispatch(imagestate.SetSource{})
}

// SetFrame replaces the frame, resizing the surface when the mode changes.
// A zero template removes the frame.
func (s *Session) SetFrame(ctx context.Context, t frame.Template) {
	s.frame = t
	if t.Mode != "" && t.Mode != s.mode {
		s.mode = t.Mode
		s.renderer.Resize(s.mode.SurfaceSize())
		s.log.WithField("mode", s.mode).Info("surface resized for frame mode")
	}
	if t.IsZero() {
		s.cache.Clear(bitmap.LayerFrame)
	} else {
		s.request(ctx, bitmap.LayerFrame, t.Name, s.loader(t.URL, t.Data))
	}
	s.repaint()
}

// Dispatch applies a transform action.
func (s *Session) Dispatch(a imagestate.Action) imagestate.ImageState {
	return s.store.Dispatch(a)
}

// SetZoom sets the zoom percentage clamped to the control range.
func (s *Session) SetZoom(v float64) imagestate.ImageState {
	return s.store.Dispatch(imagestate.SetZoom{Zoom: imagestate.ClampZoom(v)})
}

// ZoomBy adjusts the zoom by delta percentage points within the control range.
func (s *Session) ZoomBy(delta float64) imagestate.ImageState {
	return s.store.Update(func(st imagestate.ImageState) imagestate.ImageState {
		return imagestate.Reduce(st, imagestate.SetZoom{Zoom: imagestate.ClampZoom(st.Zoom + delta)})
	})
}

// Rotate turns the photo one step counter-clockwise.
func (s *Session) Rotate() imagestate.ImageState { return s.store.Dispatch(imagestate.Rotate{}) }

// Reset restores the default transform, keeping the photo.
func (s *Session) Reset() imagestate.ImageState { return s.store.Dispatch(imagestate.Reset{}) }

// PointerDown starts a drag at p in surface coordinates.
func (s *Session) PointerDown(p gesture.Point) bool {
	return s.drag.Press(p, s.store.State())
}

// PointerMove moves the photo while dragging.
func (s *Session) PointerMove(p gesture.Point) bool {
	off, ok := s.drag.Move(p)
	if ok {
		s.store.Dispatch(off)
	}
	return ok
}

// PointerUp ends a drag.
func (s *Session) PointerUp() { s.drag.Release() }

// PointerLeave ends a drag when the pointer leaves the surface.
func (s *Session) PointerLeave() { s.drag.Leave() }

// TouchDown starts a drag for the first touch sequence.
func (s *Session) TouchDown(id int64, p gesture.Point) bool {
	return s.drag.TouchBegin(id, p, s.store.State())
}

// TouchMove moves the photo for the driving touch sequence.
func (s *Session) TouchMove(id int64, p gesture.Point) bool {
	off, ok := s.drag.TouchMove(id, p)
	if ok {
		s.store.Dispatch(off)
	}
	return ok
}

// TouchUp ends the drag when the driving sequence lifts.
func (s *Session) TouchUp(id int64) { s.drag.TouchEnd(id) }

// Dragging reports whether a drag is active.
func (s *Session) Dragging() bool { return s.drag.Phase() == gesture.Dragging }

// Results delivers background load completions. Pass each to HandleResult.
func (s *Session) Results() <-chan bitmap.Result { return s.cache.Results() }

// HandleResult applies a load completion and repaints when a layer changed.
func (s *Session) HandleResult(r bitmap.Result) bool {
	if s.ctx.Err() != nil {
		return false
	}
	if !s.cache.Apply(r) {
		return false
	}
	s.repaint()
	return true
}

// Pending reports whether a load is outstanding.
func (s *Session) Pending() bool { return s.cache.Pending() }

// Settle handles completions until no load is outstanding.
func (s *Session) Settle(ctx context.Context) error {
	for s.cache.Pending() {
		select {
		case r := <-s.cache.Results():
			s.HandleResult(r)
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return fmt.Errorf("session closed")
		}
	}
	return nil
}

func (s *Session) repaint() {
	var photo, fr image.Image
	if b := s.cache.Bitmap(bitmap.LayerPhoto); b != nil {
		photo = b.Image
	}
	if b := s.cache.Bitmap(bitmap.LayerFrame); b != nil {
		fr = b.Image
	}
	st := s.store.State()
	if !st.HasPhoto() {
		photo = nil
	}
	s.renderer.Paint(st, photo, fr)
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Changed receives a value after repaints. Notifications coalesce.
func (s *Session) Changed() <-chan struct{} { return s.changed }

// State returns the current transform state.
func (s *Session) State() imagestate.ImageState { return s.store.State() }

// Subscribe registers fn for state changes.
func (s *Session) Subscribe(fn func(imagestate.ImageState)) func() { return s.store.Subscribe(fn) }

// Frame returns the selected frame template.
func (s *Session) Frame() frame.Template { return s.frame }

// Mode returns the surface mode.
func (s *Session) Mode() frame.Mode { return s.mode }

// PhotoReady reports whether the photo bitmap is decoded.
func (s *Session) PhotoReady() bool {
	return s.store.State().HasPhoto() && s.cache.Bitmap(bitmap.LayerPhoto) != nil
}

// PhotoSize returns the native size of the decoded photo.
func (s *Session) PhotoSize() image.Point { return s.cache.Bitmap(bitmap.LayerPhoto).Size() }

// FrameReady reports whether the frame bitmap is decoded.
func (s *Session) FrameReady() bool { return s.cache.Bitmap(bitmap.LayerFrame) != nil }

// Surface returns the painted surface.
func (s *Session) Surface() *image.RGBA { return s.renderer.Surface() }

// Snapshot returns a copy of the painted surface.
func (s *Session) Snapshot() *image.RGBA { return s.renderer.Snapshot() }

// Export writes the surface as PNG.
func (s *Session) Export(w io.Writer) error {
	return render.EncodePNG(w, s.renderer.Surface())
}

// ExportFile writes the surface into dir using the export naming convention
// and returns the path written.
func (s *Session) ExportFile(dir, prefix string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, render.Filename(prefix, now))
	if err := s.ExportTo(path); err != nil {
		return "", err
	}
	return path, nil
}

// ExportTo writes the surface as PNG to path.
func (s *Session) ExportTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	s.log.WithField("path", path).Info("exported")
	return nil
}

// Close ends the session. In-flight loads are cancelled and their results
// ignored.
func (s *Session) Close() {
	s.cancel()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.log.Debug("session closed")
}
