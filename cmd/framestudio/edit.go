package main

import (
	"context"
	"flag"

	"github.com/example/framestudio/internal/appstate"
	"github.com/example/framestudio/internal/render"
)

type editCmd struct {
	*root
	fs        *flag.FlagSet
	photo     string
	frame     string
	mode      string
	outputDir string
	prefix    string
}

func (e *editCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	c := &editCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	saveDir, prefix := "", render.DefaultPrefix
	if r != nil && r.config != nil {
		saveDir = r.config.SaveDir
		if r.config.Prefix != "" {
			prefix = r.config.Prefix
		}
	}
	fs.StringVar(&c.photo, "photo", "", "photo to open (file, URL, s3://, data: or - for stdin)")
	fs.StringVar(&c.frame, "frame", "", "frame id or reference; none for no frame")
	fs.StringVar(&c.mode, "mode", "", "surface mode (profile or post)")
	fs.StringVar(&c.outputDir, "output-dir", saveDir, "directory Ctrl+S saves into")
	fs.StringVar(&c.prefix, "prefix", prefix, "file name prefix for saved images")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *editCmd) Run() error {
	mode, err := e.resolveMode(e.mode)
	if err != nil {
		return err
	}
	tpl, err := e.resolveFrame(e.frame, mode)
	if err != nil {
		return err
	}
	e.warnModeOverride(e.mode, tpl)
	sess := e.newSession(mode)
	defer sess.Close()

	// Loads complete inside the window's event loop.
	ctx := context.Background()
	if !tpl.IsZero() {
		sess.SetFrame(ctx, tpl)
	}
	photoName := ""
	if e.photo != "" {
		src, err := e.photoSource(e.photo)
		if err != nil {
			return err
		}
		photoName = src.Label()
		sess.SetPhoto(ctx, src)
	}

	st := appstate.New(
		appstate.WithSession(sess),
		appstate.WithCatalog(e.catalog()),
		appstate.WithOutputDir(e.outputDir),
		appstate.WithPrefix(e.prefix),
		appstate.WithTheme(e.activeTheme),
		appstate.WithNotifier(e.notifier),
		appstate.WithLogger(e.log),
		appstate.WithTitle(windowTitle(titleOptions{Photo: photoName, Frame: tpl.Name, Mode: string(sess.Mode())})),
	)
	st.Run()
	return nil
}
