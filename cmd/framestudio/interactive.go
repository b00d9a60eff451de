package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/framestudio/internal/frame"
	"github.com/example/framestudio/internal/gesture"
	"github.com/example/framestudio/internal/imagestate"
	"github.com/example/framestudio/internal/render"
	"github.com/example/framestudio/internal/session"
)

type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, "; ")
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

type interactiveCmd struct {
	*root
	fs        *flag.FlagSet
	execs     commandList
	mode      string
	outputDir string
	prefix    string
	timeout   time.Duration

	sess *session.Session
	now  func() time.Time
}

func (i *interactiveCmd) FlagSet() *flag.FlagSet {
	return i.fs
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ContinueOnError)
	c := &interactiveCmd{root: r, fs: fs, now: time.Now}
	fs.Usage = usageFunc(c)
	saveDir, prefix := "", render.DefaultPrefix
	if r != nil && r.config != nil {
		saveDir = r.config.SaveDir
		if r.config.Prefix != "" {
			prefix = r.config.Prefix
		}
	}
	fs.Var(&c.execs, "e", "execute a command instead of prompting (may be specified multiple times)")
	fs.StringVar(&c.mode, "mode", "", "initial surface mode (profile or post)")
	fs.StringVar(&c.outputDir, "output-dir", saveDir, "directory export writes into when no file is given")
	fs.StringVar(&c.prefix, "prefix", prefix, "file name prefix for exports")
	fs.DurationVar(&c.timeout, "timeout", time.Minute, "how long each command waits for loads")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (i *interactiveCmd) Run() error {
	mode, err := i.resolveMode(i.mode)
	if err != nil {
		return err
	}
	i.sess = i.newSession(mode)
	defer i.sess.Close()
	if tpl, err := i.resolveFrame("", mode); err == nil && !tpl.IsZero() {
		i.sess.SetFrame(context.Background(), tpl)
		if err := i.settle(); err != nil {
			return err
		}
	}

	if len(i.execs) > 0 {
		for _, line := range i.execs {
			done, err := i.executeLine(line)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	}
	return i.prompt(i.root.stdin, i.root.stdout)
}

func (i *interactiveCmd) prompt(in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Enter commands (type 'exit' to quit)")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		done, err := i.executeLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(i.root.stderr, err)
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

func (i *interactiveCmd) settle() error {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()
	return i.sess.Settle(ctx)
}

func parseFloats(args []string, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d numbers, got %d", n, len(args))
	}
	out := make([]float64, n)
	for k, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", a)
		}
		out[k] = v
	}
	return out, nil
}

// executeLine runs one command. done reports that the session should end.
func (i *interactiveCmd) executeLine(line string) (done bool, err error) {
	args := strings.Fields(strings.TrimSpace(line))
	if len(args) == 0 {
		return false, nil
	}
	out := i.root.stdout
	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprint(out, (&UsageError{of: i}).Error())
	case "photo":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: photo <ref>")
		}
		src, err := i.photoSource(args[0])
		if err != nil {
			return false, err
		}
		i.sess.SetPhoto(context.Background(), src)
		if err := i.settle(); err != nil {
			return false, err
		}
		if !i.sess.PhotoReady() {
			return false, fmt.Errorf("failed to decode photo %s", args[0])
		}
		sz := i.sess.PhotoSize()
		fmt.Fprintf(out, "photo %s %dx%d\n", src.Label(), sz.X, sz.Y)
	case "frame":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: frame <id|ref|none>")
		}
		tpl, err := i.resolveFrame(args[0], i.sess.Mode())
		if err != nil {
			return false, err
		}
		i.sess.SetFrame(context.Background(), tpl)
		if err := i.settle(); err != nil {
			return false, err
		}
		if !tpl.IsZero() && !i.sess.FrameReady() {
			return false, fmt.Errorf("frame %s did not load", tpl.ID)
		}
		fmt.Fprintf(out, "frame %s (%s)\n", tpl.ID, i.sess.Mode())
	case "mode":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: mode <profile|post>")
		}
		m, err := frame.ParseMode(args[0])
		if err != nil {
			return false, err
		}
		tpl, err := i.catalog().Default(m)
		if err != nil {
			return false, err
		}
		i.sess.SetFrame(context.Background(), tpl)
		if err := i.settle(); err != nil {
			return false, err
		}
		sz := i.sess.Surface().Bounds().Size()
		fmt.Fprintf(out, "mode %s %dx%d frame %s\n", m, sz.X, sz.Y, tpl.ID)
	case "zoom":
		v, err := parseFloats(args, 1)
		if err != nil {
			return false, err
		}
		st := i.sess.SetZoom(v[0])
		fmt.Fprintln(out, st)
	case "rotate":
		fmt.Fprintln(out, i.sess.Rotate())
	case "reset":
		fmt.Fprintln(out, i.sess.Reset())
	case "nudge":
		v, err := parseFloats(args, 2)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, i.sess.Dispatch(imagestate.Nudge{DX: v[0], DY: v[1]}))
	case "drag":
		v, err := parseFloats(args, 4)
		if err != nil {
			return false, err
		}
		if !i.sess.PointerDown(gesture.Pt(v[0], v[1])) {
			return false, fmt.Errorf("no photo to drag")
		}
		i.sess.PointerMove(gesture.Pt(v[2], v[3]))
		i.sess.PointerUp()
		fmt.Fprintln(out, i.sess.State())
	case "state":
		fmt.Fprintln(out, i.sess.State())
	case "export":
		var path string
		if len(args) > 0 {
			path = args[0]
			err = i.sess.ExportTo(path)
		} else {
			path, err = i.sess.ExportFile(i.outputDir, i.prefix, i.now())
		}
		if err != nil {
			return false, err
		}
		i.notifySave(path)
		fmt.Fprintf(out, "saved %s\n", path)
	case "frames":
		for _, t := range i.catalog().Filter(i.sess.Mode()) {
			fmt.Fprintf(out, "%s\t%s\n", t.ID, t.Name)
		}
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}
