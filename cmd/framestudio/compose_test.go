package main

import (
	"bytes"
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/example/framestudio/internal/config"
	"github.com/example/framestudio/internal/source"
	"github.com/example/framestudio/internal/theme"
)

var (
	red       = color.RGBA{R: 255, A: 255}
	white     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	frameEdge = color.RGBA{R: 6, G: 95, B: 70, A: 255}
)

func newTestRoot(t *testing.T) (*root, *bytes.Buffer, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	out := &bytes.Buffer{}
	r := &root{
		fs:          flag.NewFlagSet("framestudio", flag.ContinueOnError),
		program:     "framestudio",
		log:         logger,
		config:      config.New(),
		fetcher:     source.NewFetcher(source.WithLogger(logger)),
		activeTheme: theme.Default(),
		stdin:       strings.NewReader(""),
		stdout:      out,
		stderr:      &bytes.Buffer{},
	}
	return r, out, hook
}

func writePhoto(t *testing.T, dir string, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func decodeFile(t *testing.T, p string) *image.RGBA {
	t.Helper()
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return decodeBytes(t, data)
}

func decodeBytes(t *testing.T, data []byte) *image.RGBA {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		nrgba, ok := img.(*image.NRGBA)
		if !ok {
			t.Fatalf("unexpected image type %T", img)
		}
		rgba = image.NewRGBA(nrgba.Bounds())
		for y := 0; y < nrgba.Bounds().Dy(); y++ {
			for x := 0; x < nrgba.Bounds().Dx(); x++ {
				rgba.Set(x, y, nrgba.At(x, y))
			}
		}
	}
	return rgba
}

func TestComposeWithEmbeddedFrame(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, 400, 300, red)
	r, _, _ := newTestRoot(t)
	out := filepath.Join(dir, "out.png")

	cmd, err := parseComposeCmd([]string{"-photo", photo, "-frame", "classic", "-output", out}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	img := decodeFile(t, out)
	if img.Bounds().Size() != image.Pt(1080, 1080) {
		t.Fatalf("size %v", img.Bounds())
	}
	if got := img.RGBAAt(540, 540); got != red {
		t.Errorf("centre %+v, want photo", got)
	}
	if got := img.RGBAAt(5, 5); got != frameEdge {
		t.Errorf("corner %+v, want frame", got)
	}
}

func TestComposePostModeToStdout(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, 100, 100, red)
	r, stdout, _ := newTestRoot(t)

	cmd, err := parseComposeCmd([]string{"-photo", photo, "-mode", "post", "-zoom", "200", "-stdout"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	img := decodeBytes(t, stdout.Bytes())
	if img.Bounds().Size() != image.Pt(1080, 1281) {
		t.Fatalf("size %v", img.Bounds())
	}
	// 100px at 200% covers 440..640 horizontally around the centre.
	if got := img.RGBAAt(450, 640); got != red {
		t.Errorf("zoomed photo pixel %+v", got)
	}
}

func TestComposeWithoutFrameOffsetAndRotate(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, 100, 50, red)
	r, _, _ := newTestRoot(t)
	out := filepath.Join(dir, "plain.png")

	cmd, err := parseComposeCmd([]string{"-photo", photo, "-frame", "none", "-rotate", "1", "-offset", "100,-200", "-output", out}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	img := decodeFile(t, out)
	// Rotated a quarter turn the photo is 50 wide and 100 tall around (640,340).
	if got := img.RGBAAt(640, 340); got != red {
		t.Errorf("photo centre %+v", got)
	}
	if got := img.RGBAAt(640, 300); got != red {
		t.Errorf("rotated extent %+v", got)
	}
	if got := img.RGBAAt(690, 340); got != white {
		t.Errorf("outside rotated photo %+v", got)
	}
	if got := img.RGBAAt(5, 5); got != white {
		t.Errorf("corner %+v, want background", got)
	}
}

func TestComposeOutputDirNaming(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, 10, 10, red)
	r, stdout, _ := newTestRoot(t)
	outDir := filepath.Join(dir, "exports")

	cmd, err := parseComposeCmd([]string{"-photo", photo, "-output-dir", outDir}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cmd.now = func() time.Time { return time.UnixMilli(1700000000123) }
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := filepath.Join(outDir, "election-frame-1700000000123.png")
	if strings.TrimSpace(stdout.String()) != want {
		t.Fatalf("printed %q, want %q", stdout.String(), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatal(err)
	}
}

func TestComposeFailsOnUndecodablePhoto(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, _, _ := newTestRoot(t)
	cmd, err := parseComposeCmd([]string{"-photo", bad, "-output", filepath.Join(dir, "o.png")}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = cmd.Run()
	if err == nil || !strings.Contains(err.Error(), "failed to decode photo") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestComposeWarnsOnMissingFrame(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, 10, 10, red)
	r, _, hook := newTestRoot(t)
	out := filepath.Join(dir, "o.png")
	cmd, err := parseComposeCmd([]string{"-photo", photo, "-frame", filepath.Join(dir, "missing.png"), "-output", out}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "frame unavailable") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a missing frame warning")
	}
	if got := decodeFile(t, out).RGBAAt(540, 540); got != red {
		t.Errorf("centre %+v", got)
	}
}

func TestComposeReadsStdin(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(writePhoto(t, dir, 20, 20, red))
	if err != nil {
		t.Fatal(err)
	}
	r, _, _ := newTestRoot(t)
	r.stdin = bytes.NewReader(data)
	out := filepath.Join(dir, "o.png")
	cmd, err := parseComposeCmd([]string{"-photo", "-", "-frame", "none", "-output", out}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := decodeFile(t, out).RGBAAt(540, 540); got != red {
		t.Errorf("centre %+v", got)
	}
}

func modeWarnings(hook *test.Hook) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "overrides -mode") {
			n++
		}
	}
	return n
}

func TestComposeWarnsWhenFrameOverridesMode(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, 10, 10, red)
	r, stdout, hook := newTestRoot(t)

	cmd, err := parseComposeCmd([]string{"-photo", photo, "-mode", "profile", "-frame", "classic-post", "-stdout"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if img := decodeBytes(t, stdout.Bytes()); img.Bounds().Size() != image.Pt(1080, 1281) {
		t.Fatalf("size %v, want the post frame's surface", img.Bounds())
	}
	if n := modeWarnings(hook); n != 1 {
		t.Fatalf("got %d mode override warnings, want 1", n)
	}
}

func TestComposeFrameModeWithoutModeFlagIsQuiet(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, 10, 10, red)
	r, _, hook := newTestRoot(t)

	cmd, err := parseComposeCmd([]string{"-photo", photo, "-frame", "classic-post", "-output", filepath.Join(dir, "o.png")}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := modeWarnings(hook); n != 0 {
		t.Fatalf("got %d mode override warnings without -mode", n)
	}
}
