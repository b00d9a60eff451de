package session

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/example/framestudio/internal/frame"
	"github.com/example/framestudio/internal/gesture"
	"github.com/example/framestudio/internal/imagestate"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 200, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func pngOf(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return pngOf(t, img)
}

func ringPNG(t *testing.T, size image.Point, bw int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rectangle{Max: size})
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if x < bw || y < bw || x >= size.X-bw || y >= size.Y-bw {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return pngOf(t, img)
}

type fakeFetcher struct {
	files map[string][]byte
	gate  map[string]chan struct{}

	mu   sync.Mutex
	ctxs []context.Context
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	f.ctxs = append(f.ctxs, ctx)
	f.mu.Unlock()
	if g, ok := f.gate[ref]; ok {
		select {
		case <-g:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	data, ok := f.files[ref]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", ref, os.ErrNotExist)
	}
	return data, nil
}

func newTestSession(t *testing.T, f Fetcher, opts ...Option) (*Session, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	if f == nil {
		f = &fakeFetcher{}
	}
	s := New(append([]Option{WithLogger(logger), WithFetcher(f)}, opts...)...)
	t.Cleanup(s.Close)
	return s, hook
}

func settle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Settle(ctx); err != nil {
		t.Fatalf("Settle: %v", err)
	}
}

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) bool { return int(x)-int(y) <= 8 && int(y)-int(x) <= 8 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func TestNewSessionShowsPlaceholder(t *testing.T) {
	s, _ := newTestSession(t, nil)
	if got := s.Surface().Bounds().Size(); got != image.Pt(1080, 1080) {
		t.Fatalf("surface %v", got)
	}
	if s.State().HasPhoto() || s.Dragging() {
		t.Fatal("new session should be empty and idle")
	}
	nonWhite := false
	for y := 500; y < 580 && !nonWhite; y++ {
		for x := 200; x < 880; x++ {
			if s.Surface().RGBAAt(x, y) != white {
				nonWhite = true
				break
			}
		}
	}
	if !nonWhite {
		t.Fatal("expected placeholder caption")
	}
}

func TestPhotoAndFrameCompose(t *testing.T) {
	f := &fakeFetcher{files: map[string][]byte{"ring.png": ringPNG(t, image.Pt(1080, 1080), 50, green)}}
	s, _ := newTestSession(t, f)
	s.SetFrame(context.Background(), frame.Template{ID: "ring", Name: "ring", URL: "ring.png", Mode: frame.ModeProfile})
	s.SetPhoto(context.Background(), imagestate.Source{Name: "red", Data: solidPNG(t, 400, 300, red)})
	settle(t, s)

	if !s.PhotoReady() || !s.FrameReady() {
		t.Fatal("layers not ready after Settle")
	}
	if s.PhotoSize() != image.Pt(400, 300) {
		t.Fatalf("photo size %v", s.PhotoSize())
	}
	surf := s.Surface()
	if got := surf.RGBAAt(540, 540); !near(got, red) {
		t.Fatalf("centre %+v, want photo", got)
	}
	if got := surf.RGBAAt(20, 20); got != green {
		t.Fatalf("corner %+v, want frame", got)
	}
	if got := surf.RGBAAt(540, 200); got != white {
		t.Fatalf("uncovered pixel %+v, want white", got)
	}
}

func TestSetPhotoResetsTransform(t *testing.T) {
	s, _ := newTestSession(t, nil)
	s.SetPhoto(context.Background(), imagestate.Source{Name: "a", Data: solidPNG(t, 10, 10, red)})
	s.SetZoom(250)
	s.Rotate()
	s.Dispatch(imagestate.SetOffset{X: 5, Y: 5})
	s.SetPhoto(context.Background(), imagestate.Source{Name: "b", Data: solidPNG(t, 10, 10, red)})
	if !s.State().IsDefaultTransform() {
		t.Fatalf("transform not reset: %v", s.State())
	}
	settle(t, s)
}

func TestZoomControlsClamp(t *testing.T) {
	s, _ := newTestSession(t, nil)
	if st := s.SetZoom(1000); st.Zoom != imagestate.MaxZoom {
		t.Fatalf("zoom %v", st.Zoom)
	}
	if st := s.ZoomBy(-10000); st.Zoom != imagestate.MinZoom {
		t.Fatalf("zoom %v", st.Zoom)
	}
	if st := s.ZoomBy(15); st.Zoom != 25 {
		t.Fatalf("zoom %v", st.Zoom)
	}
}

func TestPostFrameResizesSurface(t *testing.T) {
	s, _ := newTestSession(t, nil)
	tpl := frame.Custom("tall", ringPNG(t, frame.ModePost.SurfaceSize(), 30, green), frame.ModePost)
	s.SetFrame(context.Background(), tpl)
	if got := s.Surface().Bounds().Size(); got != image.Pt(1080, 1281) {
		t.Fatalf("surface %v", got)
	}
	settle(t, s)
	if s.Mode() != frame.ModePost || s.Frame().ID != tpl.ID {
		t.Fatalf("frame not recorded: %v %v", s.Mode(), s.Frame().ID)
	}
	if got := s.Surface().RGBAAt(10, 1270); got != green {
		t.Fatalf("frame pixel %+v", got)
	}
}

func TestStalePhotoLoadIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{
		files: map[string][]byte{"slow.png": solidPNG(t, 50, 50, green)},
		gate:  map[string]chan struct{}{"slow.png": gate},
	}
	s, _ := newTestSession(t, f)
	s.SetPhoto(context.Background(), imagestate.Source{Ref: "slow.png"})
	s.SetPhoto(context.Background(), imagestate.Source{Name: "fast", Data: solidPNG(t, 20, 20, red)})
	settle(t, s)
	close(gate)

	select {
	case r := <-s.Results():
		if s.HandleResult(r) {
			t.Fatal("stale load applied")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("slow load never completed")
	}
	if s.PhotoSize() != image.Pt(20, 20) {
		t.Fatalf("photo size %v, want newer photo", s.PhotoSize())
	}
}

func TestBrokenPhotoLeavesLayerEmpty(t *testing.T) {
	f := &fakeFetcher{files: map[string][]byte{"frame.png": ringPNG(t, image.Pt(1080, 1080), 40, green)}}
	s, hook := newTestSession(t, f)
	s.SetFrame(context.Background(), frame.Template{ID: "f", URL: "frame.png", Mode: frame.ModeProfile})
	s.SetPhoto(context.Background(), imagestate.Source{Name: "broken", Data: []byte("not a picture")})
	settle(t, s)

	if s.PhotoReady() {
		t.Fatal("broken photo reported ready")
	}
	if !s.FrameReady() {
		t.Fatal("frame should still render")
	}
	if got := s.Surface().RGBAAt(540, 540); got != white {
		t.Fatalf("centre %+v, want white", got)
	}
	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected a warning for the failed decode")
	}
}

func TestPointerDragMovesPhoto(t *testing.T) {
	s, _ := newTestSession(t, nil)
	if s.PointerDown(gesture.Pt(10, 10)) {
		t.Fatal("drag started without photo")
	}
	s.SetPhoto(context.Background(), imagestate.Source{Name: "p", Data: solidPNG(t, 10, 10, red)})
	settle(t, s)
	if !s.PointerDown(gesture.Pt(100, 100)) {
		t.Fatal("press ignored")
	}
	s.PointerMove(gesture.Pt(130, 80))
	s.PointerLeave()
	if s.PointerMove(gesture.Pt(500, 500)) {
		t.Fatal("move after leave applied")
	}
	st := s.State()
	if st.OffsetX != 30 || st.OffsetY != -20 {
		t.Fatalf("offset (%v,%v)", st.OffsetX, st.OffsetY)
	}

	s.TouchDown(7, gesture.Pt(0, 0))
	s.TouchMove(7, gesture.Pt(10, 10))
	s.TouchUp(7)
	st = s.State()
	if st.OffsetX != 40 || st.OffsetY != -10 {
		t.Fatalf("offset after touch (%v,%v)", st.OffsetX, st.OffsetY)
	}
}

func TestChangedNotifiesAfterRepaint(t *testing.T) {
	s, _ := newTestSession(t, nil)
	// drain the notification from the initial paint
	select {
	case <-s.Changed():
	default:
	}
	s.Reset()
	select {
	case <-s.Changed():
	default:
		t.Fatal("no change notification after reset")
	}
}

func TestExportFile(t *testing.T) {
	s, _ := newTestSession(t, nil)
	s.SetPhoto(context.Background(), imagestate.Source{Name: "p", Data: solidPNG(t, 100, 100, red)})
	settle(t, s)

	dir := filepath.Join(t.TempDir(), "out")
	now := time.UnixMilli(1700000000000)
	path, err := s.ExportFile(dir, "", now)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "election-frame-1700000000000.png" {
		t.Fatalf("path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != image.Pt(1080, 1080) {
		t.Fatalf("exported %v", img.Bounds())
	}
}

func TestCloseDropsLateResults(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{
		files: map[string][]byte{"p.png": solidPNG(t, 5, 5, red)},
		gate:  map[string]chan struct{}{"p.png": gate},
	}
	s, _ := newTestSession(t, f)
	s.SetPhoto(context.Background(), imagestate.Source{Ref: "p.png"})
	s.Close()
	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Settle(ctx); err == nil {
		t.Fatal("Settle on a closed session should fail")
	}
	if s.PhotoReady() {
		t.Fatal("photo applied after Close")
	}
}

func TestLoadContextReleasedAfterDelivery(t *testing.T) {
	f := &fakeFetcher{files: map[string][]byte{"p.png": solidPNG(t, 5, 5, red)}}
	s, _ := newTestSession(t, f)
	s.SetPhoto(context.Background(), imagestate.Source{Ref: "p.png"})
	settle(t, s)
	if !s.PhotoReady() {
		t.Fatal("photo not applied")
	}
	f.mu.Lock()
	ctxs := append([]context.Context(nil), f.ctxs...)
	f.mu.Unlock()
	if len(ctxs) != 1 {
		t.Fatalf("fetched %d times", len(ctxs))
	}
	// The session is still open, so only the finished load can have
	// cancelled its context.
	select {
	case <-ctxs[0].Done():
	case <-time.After(time.Second):
		t.Fatal("load context still live after its result was delivered")
	}
}
