package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/framestudio/internal/clipboard"
	"github.com/example/framestudio/internal/imagestate"
	"github.com/example/framestudio/internal/render"
)

type composeCmd struct {
	*root
	fs          *flag.FlagSet
	photo       string
	frame       string
	mode        string
	zoom        float64
	rotate      int
	offset      string
	output      string
	outputDir   string
	prefix      string
	stdout      bool
	toClipboard bool
	timeout     time.Duration

	offX, offY float64
	now        func() time.Time
	out        io.Writer
}

func (c *composeCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseComposeCmd(args []string, r *root) (*composeCmd, error) {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	c := &composeCmd{root: r, fs: fs, now: time.Now}
	fs.Usage = usageFunc(c)
	saveDir, prefix := "", render.DefaultPrefix
	if r != nil && r.config != nil {
		saveDir = r.config.SaveDir
		if r.config.Prefix != "" {
			prefix = r.config.Prefix
		}
	}
	fs.StringVar(&c.photo, "photo", "", "photo reference (file, URL, s3://, data: or - for stdin)")
	fs.StringVar(&c.frame, "frame", "", "frame id or reference; none for no frame")
	fs.StringVar(&c.mode, "mode", "", "surface mode (profile or post)")
	fs.Float64Var(&c.zoom, "zoom", imagestate.DefaultZoom, "zoom percentage (10-500)")
	fs.IntVar(&c.rotate, "rotate", 0, "number of 90 degree counter-clockwise turns")
	fs.StringVar(&c.offset, "offset", "0,0", "photo offset from the centre in surface pixels as x,y")
	fs.StringVar(&c.output, "output", "", "output file")
	fs.StringVar(&c.outputDir, "output-dir", saveDir, "directory for a timestamped output file")
	fs.StringVar(&c.prefix, "prefix", prefix, "file name prefix used with -output-dir")
	fs.BoolVar(&c.stdout, "stdout", false, "write PNG to stdout")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the composite to the clipboard")
	fs.DurationVar(&c.timeout, "timeout", time.Minute, "how long to wait for the photo and frame to load")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.photo == "" {
		return nil, &UsageError{of: c}
	}
	if c.stdout && c.output != "" {
		return nil, fmt.Errorf("-stdout and -output cannot be combined")
	}
	x, y, err := parseOffset(c.offset)
	if err != nil {
		return nil, err
	}
	c.offX, c.offY = x, y
	return c, nil
}

// parseOffset reads an "x,y" pair.
func parseOffset(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("offset %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("offset %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("offset %q: %w", s, err)
	}
	return x, y, nil
}

func (c *composeCmd) Run() error {
	mode, err := c.resolveMode(c.mode)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	sess, err := c.prepare(ctx, mode, c.frame, c.photo)
	if err != nil {
		return err
	}
	defer sess.Close()
	c.warnModeOverride(c.mode, sess.Frame())

	if !sess.PhotoReady() {
		return fmt.Errorf("failed to decode photo %s", c.photo)
	}
	if !sess.Frame().IsZero() && !sess.FrameReady() {
		c.log.WithField("frame", sess.Frame().ID).Warn("frame unavailable; exporting without it")
	}

	zoom := imagestate.ClampZoom(c.zoom)
	if zoom != c.zoom {
		c.log.WithFields(logrus.Fields{"requested": c.zoom, "used": zoom}).Warn("zoom out of range")
	}
	sess.SetZoom(zoom)
	for i := 0; i < ((c.rotate%4)+4)%4; i++ {
		sess.Rotate()
	}
	sess.Dispatch(imagestate.SetOffset{X: c.offX, Y: c.offY})
	c.log.WithField("state", sess.State().String()).Debug("composed")

	switch {
	case c.stdout:
		out := c.out
		if out == nil {
			out = c.root.stdout
		}
		if err := sess.Export(out); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
	case c.output != "":
		if err := sess.ExportTo(c.output); err != nil {
			return err
		}
		c.notifySave(c.output)
	default:
		path, err := sess.ExportFile(c.outputDir, c.prefix, c.now())
		if err != nil {
			return err
		}
		c.notifySave(path)
		fmt.Fprintln(c.root.stdout, path)
	}

	if c.toClipboard {
		if err := clipboard.WriteImage(sess.Surface()); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		c.notifyCopy("framed photo")
	}
	return nil
}
