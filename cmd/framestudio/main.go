package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/example/framestudio/internal/config"
	"github.com/example/framestudio/internal/frame"
	"github.com/example/framestudio/internal/imagestate"
	"github.com/example/framestudio/internal/notify"
	"github.com/example/framestudio/internal/session"
	"github.com/example/framestudio/internal/source"
	"github.com/example/framestudio/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	log         *logrus.Logger
	notifier    *notify.Notifier
	config      *config.Config
	fetcher     session.Fetcher
	saveAlerts  bool
	copyAlerts  bool
	themeName   string
	logLevel    string
	activeTheme *theme.Theme
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		log.WithError(err).Warn("failed to load config")
		cfg = config.New()
	}
	// Precedence: CLI > Env > Config > Default
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		log.WithError(err).Warn("ignoring invalid environment setting")
	}

	r := &root{
		fs:       flag.NewFlagSet("framestudio", flag.ExitOnError),
		program:  "framestudio",
		log:      log,
		notifier: notify.New(notify.LoadPreferences(os.Getenv)),
		config:   cfg,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	r.notifier.SetLogger(log)
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.StringVar(&r.themeName, "theme", cfg.Theme, "color theme for the editor window (default, dark, light, emerald)")
	r.fs.StringVar(&r.logLevel, "loglevel", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.logLevel != "" {
		lvl, err := logrus.ParseLevel(r.logLevel)
		if err != nil {
			return fmt.Errorf("loglevel: %w", err)
		}
		r.log.SetLevel(lvl)
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	}
	if r.fetcher == nil {
		r.fetcher = source.NewFetcher(source.WithLogger(r.log))
	}
	r.activeTheme = r.loadTheme(r.themeName)

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "compose":
		cmd, err = parseComposeCmd(subArgs, r)
	case "frames":
		cmd, err = parseFramesCmd(subArgs, r)
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) loadTheme(name string) *theme.Theme {
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && name != "default" {
			r.log.WithError(err).WithField("theme", name).Warn("failed to load theme; using default")
		}
		return theme.Default()
	}
	return t
}

// resolveMode returns the mode named by the flag or, failing that, the
// configured default.
func (r *root) resolveMode(flagValue string) (frame.Mode, error) {
	v := flagValue
	if v == "" && r.config != nil {
		v = r.config.Mode
	}
	return frame.ParseMode(v)
}

func (r *root) catalog() *frame.Catalog {
	if r.config == nil {
		return frame.Builtin()
	}
	return r.config.Catalog()
}

// resolveFrame picks the template named by sel, the configured frame or the
// catalog default for mode, in that order. "none" composes without a frame.
func (r *root) resolveFrame(sel string, mode frame.Mode) (frame.Template, error) {
	if sel == "" && r.config != nil {
		sel = r.config.Frame
	}
	if sel == "none" {
		return frame.Template{}, nil
	}
	return r.catalog().Resolve(sel, mode)
}

// warnModeOverride logs when the selected frame's mode replaces a mode the
// user asked for explicitly.
func (r *root) warnModeOverride(requested string, tpl frame.Template) {
	if requested == "" || tpl.IsZero() || tpl.Mode == "" {
		return
	}
	want, err := frame.ParseMode(requested)
	if err != nil || want == tpl.Mode {
		return
	}
	r.log.WithFields(logrus.Fields{"requested": want, "frame": tpl.ID, "mode": tpl.Mode}).
		Warn("frame mode overrides -mode")
}

// photoSource turns a command line reference into a photo source. "-" reads
// the photo from stdin.
func (r *root) photoSource(ref string) (imagestate.Source, error) {
	if ref == "-" {
		data, err := io.ReadAll(r.stdin)
		if err != nil {
			return imagestate.Source{}, fmt.Errorf("read stdin: %w", err)
		}
		return imagestate.Source{Name: "stdin", Data: data}, nil
	}
	name := ref
	if !strings.HasPrefix(ref, "data:") {
		name = filepath.Base(ref)
	}
	return imagestate.Source{Name: name, Ref: ref}, nil
}

func (r *root) newSession(mode frame.Mode) *session.Session {
	return session.New(
		session.WithLogger(r.log),
		session.WithFetcher(r.fetcher),
		session.WithMode(mode),
	)
}

// prepare builds a session with the frame and photo applied and waits for
// both to load.
func (r *root) prepare(ctx context.Context, mode frame.Mode, frameSel, photoRef string) (*session.Session, error) {
	tpl, err := r.resolveFrame(frameSel, mode)
	if err != nil {
		return nil, err
	}
	sess := r.newSession(mode)
	if !tpl.IsZero() {
		sess.SetFrame(ctx, tpl)
	}
	if photoRef != "" {
		src, err := r.photoSource(photoRef)
		if err != nil {
			sess.Close()
			return nil, err
		}
		sess.SetPhoto(ctx, src)
	}
	if err := sess.Settle(ctx); err != nil {
		sess.Close()
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	return sess, nil
}

func main() {
	// .env is optional
	_ = godotenv.Load()
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}
