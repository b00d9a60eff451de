package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/framestudio/internal/bitmap"
	"github.com/example/framestudio/internal/frame"
)

// probeLimit bounds how many frames are fetched at once by -check.
const probeLimit = 4

type framesCmd struct {
	*root
	fs      *flag.FlagSet
	mode    string
	check   bool
	timeout time.Duration
}

func (f *framesCmd) FlagSet() *flag.FlagSet {
	return f.fs
}

func parseFramesCmd(args []string, r *root) (*framesCmd, error) {
	fs := flag.NewFlagSet("frames", flag.ContinueOnError)
	c := &framesCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.mode, "mode", "", "only list frames for this mode (profile or post)")
	fs.BoolVar(&c.check, "check", false, "fetch and decode every frame and report its size")
	fs.DurationVar(&c.timeout, "timeout", 30*time.Second, "overall time limit for -check")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.mode != "" {
		if _, err := frame.ParseMode(c.mode); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// probeResult is the outcome of fetching and decoding one frame.
type probeResult struct {
	Size image.Point
	Err  error
}

func (f *framesCmd) templates() []frame.Template {
	cat := f.catalog()
	if f.mode == "" {
		return cat.All()
	}
	m, _ := frame.ParseMode(f.mode)
	return cat.Filter(m)
}

// probe fetches and decodes every template concurrently. A failing frame is
// recorded in its result and does not stop the others.
func (f *framesCmd) probe(ctx context.Context, list []frame.Template) []probeResult {
	results := make([]probeResult, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeLimit)
	for i, t := range list {
		g.Go(func() error {
			var data []byte
			var err error
			if len(t.Data) > 0 {
				data = t.Data
			} else {
				data, err = f.fetcher.Fetch(gctx, t.URL)
			}
			if err == nil {
				var b *bitmap.Bitmap
				if b, err = bitmap.Decode(data); err == nil {
					results[i].Size = b.Size()
				}
			}
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (f *framesCmd) Run() error {
	list := f.templates()
	tw := tabwriter.NewWriter(f.root.stdout, 0, 4, 2, ' ', 0)
	if !f.check {
		fmt.Fprintln(tw, "ID\tMODE\tNAME\tSOURCE")
		for _, t := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Mode, t.Name, t.URL)
		}
		return tw.Flush()
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	results := f.probe(ctx, list)
	failed := 0
	fmt.Fprintln(tw, "ID\tMODE\tSIZE\tSTATUS")
	for i, t := range list {
		r := results[i]
		if r.Err != nil {
			failed++
			f.log.WithError(r.Err).WithField("frame", t.ID).Warn("frame check failed")
			fmt.Fprintf(tw, "%s\t%s\t-\t%v\n", t.ID, t.Mode, r.Err)
			continue
		}
		status := "ok"
		if want := t.SurfaceSize(); r.Size != want {
			status = fmt.Sprintf("scaled to %dx%d", want.X, want.Y)
		}
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\n", t.ID, t.Mode, r.Size.X, r.Size.Y, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d frames failed to load", failed, len(list))
	}
	return nil
}
