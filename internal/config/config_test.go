package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/framestudio/internal/frame"
)

func TestParse(t *testing.T) {
	input := `
mode = post
frame = campaign
save_dir = /tmp/frames
prefix = "my-frame"
theme = my_custom_theme
log_level = debug

[notify]
save = true
copy = off

[frame.campaign]
name = Campaign Border
url = https://example.com/frames/campaign.png
mode = post

[theme.my_custom_theme]
Background = #111111
Accent: seagreen
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Mode != "post" || cfg.Frame != "campaign" || cfg.Prefix != "my-frame" || cfg.LogLevel != "debug" {
		t.Errorf("root keys not parsed: %+v", cfg)
	}
	if cfg.SaveDir != "/tmp/frames" {
		t.Errorf("Expected save_dir '/tmp/frames', got '%s'", cfg.SaveDir)
	}
	if !cfg.Notify.Save || cfg.Notify.Copy {
		t.Errorf("unexpected notify %+v", cfg.Notify)
	}

	f, ok := cfg.Frames["campaign"]
	if !ok {
		t.Fatal("Expected frame 'campaign'")
	}
	if f.URL != "https://example.com/frames/campaign.png" || f.Mode != frame.ModePost || f.Name != "Campaign Border" {
		t.Errorf("unexpected frame %+v", f)
	}

	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if th.Background.R != 0x11 || th.Background.G != 0x11 || th.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", th.Background)
	}
	if th.Accent.G == 0 {
		t.Errorf("named colour not applied: %+v", th.Accent)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	for _, input := range []string{
		"mode = banner\n",
		"[notify]\nsave = maybe\n",
		"[frame.x]\nmode = wide\n",
		"[theme.x]\nAccent = #zz\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `mode = profile
theme = dark
save_dir = /home/user/frames
prefix = campaign

[notify]
save = true
copy = false

[frame.ring]
url = embedded:classic

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
MessageBackground = #00000080
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	generated := cfg.String()

	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	if cfg.Theme != cfg2.Theme || cfg.Mode != cfg2.Mode || cfg.Prefix != cfg2.Prefix {
		t.Errorf("root mismatch: %+v vs %+v", cfg, cfg2)
	}
	if cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("SaveDir mismatch: %q vs %q", cfg.SaveDir, cfg2.SaveDir)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
	if cfg.Frames["ring"] != cfg2.Frames["ring"] {
		t.Errorf("frame mismatch: %+v vs %+v", cfg.Frames["ring"], cfg2.Frames["ring"])
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FRAMESTUDIO_MODE":        "post",
		"FRAMESTUDIO_PREFIX":      "env-prefix",
		"FRAMESTUDIO_LOGLEVEL":    "warn",
		"FRAMESTUDIO_NOTIFY_SAVE": "yes",
	}
	cfg := New()
	cfg.Prefix = "from-file"
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "post" || cfg.Prefix != "env-prefix" || cfg.LogLevel != "warn" || !cfg.Notify.Save {
		t.Fatalf("env not applied: %+v", cfg)
	}
	env["FRAMESTUDIO_NOTIFY_COPY"] = "sometimes"
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err == nil {
		t.Fatal("expected error for bad boolean")
	}
}

func TestCatalogIncludesConfiguredFrames(t *testing.T) {
	cfg := New()
	cfg.Frames["tall"] = Frame{URL: "/srv/tall.png", Mode: frame.ModePost}
	cat := cfg.Catalog()
	tpl, ok := cat.Lookup("tall")
	if !ok {
		t.Fatal("configured frame missing")
	}
	if tpl.Name != "tall" || tpl.Mode != frame.ModePost || tpl.URL != "/srv/tall.png" {
		t.Fatalf("unexpected template %+v", tpl)
	}
	if _, ok := cat.Lookup("classic"); !ok {
		t.Fatal("builtin frames missing")
	}
}

func TestLoaderOverridePath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "custom.rc")
	if err := os.WriteFile(p, []byte("prefix = override\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewLoader("1.0", p).Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prefix != "override" {
		t.Fatalf("prefix %q", cfg.Prefix)
	}
}

func TestLoaderWithoutFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FRAMESTUDIO_CONFIG", "")
	cfg, err := NewLoader("1.0", "").Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prefix != "" || len(cfg.Frames) != 0 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoaderCandidatesOrder(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("FRAMESTUDIO_CONFIG", "")
	got := NewLoader("dev", "/etc/override.rc").Candidates()
	if len(got) != 3 || got[0] != "/etc/override.rc" || filepath.Base(got[1]) != ".framestudiorc" {
		t.Fatalf("candidates %v", got)
	}
	if got[2] != filepath.Join(xdg, "framestudio", "config.rc") {
		t.Fatalf("xdg candidate %q", got[2])
	}
	if n := len(NewLoader("1.0", "").Candidates()); n != 1 {
		t.Fatalf("release build consulted %d paths", n)
	}
}
