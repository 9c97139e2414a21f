package presenter

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recorder struct {
	calls []string
	fail  map[string]error // keyed by joined args prefix
}

func (r *recorder) run(ctx context.Context, name string, args ...string) error {
	call := name + " " + strings.Join(args, " ")
	r.calls = append(r.calls, call)
	for prefix, err := range r.fail {
		if strings.HasPrefix(call, prefix) {
			return err
		}
	}
	return nil
}

func TestNew_SelectsVariant(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"gnome", "gnome"},
		{"GNOME", "gnome"},
		{"feh", "feh"},
		{"noop", "noop"},
	}
	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			p, err := New(tc.kind, (&recorder{}).run)
			if err != nil {
				t.Fatalf("New(%q): %v", tc.kind, err)
			}
			if p.Name() != tc.want {
				t.Errorf("Name() = %q, want %q", p.Name(), tc.want)
			}
		})
	}

	if _, err := New("kde-plasma-9", nil); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestNew_AutoDetect(t *testing.T) {
	tests := []struct {
		session string
		desktop string
		want    string
	}{
		{"gnome", "", "gnome"},
		{"", "ubuntu:GNOME", "gnome"},
		{"i3", "", "feh"},
		{"sway", "sway", "noop"},
		{"", "", "noop"},
	}
	for _, tc := range tests {
		t.Run(tc.want+"/"+tc.session+tc.desktop, func(t *testing.T) {
			t.Setenv("DESKTOP_SESSION", tc.session)
			t.Setenv("XDG_CURRENT_DESKTOP", tc.desktop)
			p, err := New("auto", (&recorder{}).run)
			if err != nil {
				t.Fatal(err)
			}
			if p.Name() != tc.want {
				t.Errorf("detected %q, want %q", p.Name(), tc.want)
			}
		})
	}
}

func TestGnome_Commands(t *testing.T) {
	rec := &recorder{fail: map[string]error{
		"gsettings set org.gnome.desktop.background picture-uri-dark": errors.New("no such key"),
	}}
	g := NewGnome(rec.run)
	ctx := context.Background()

	if err := g.SetWallpaper(ctx, "/home/me/.blisspaper/wallpapers/b64_abc.jpg"); err != nil {
		t.Fatalf("SetWallpaper: %v", err)
	}
	if err := g.SetScreensaver(ctx, "/home/me/.blisspaper/wallpapers/b64_abc.jpg"); err != nil {
		t.Fatalf("SetScreensaver: %v", err)
	}

	want := []string{
		"gsettings set org.gnome.desktop.background picture-uri file:///home/me/.blisspaper/wallpapers/b64_abc.jpg",
		"gsettings set org.gnome.desktop.background picture-uri-dark file:///home/me/.blisspaper/wallpapers/b64_abc.jpg",
		"gsettings set org.gnome.desktop.screensaver picture-uri file:///home/me/.blisspaper/wallpapers/b64_abc.jpg",
	}
	if strings.Join(rec.calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("calls:\n%s\nwant:\n%s", strings.Join(rec.calls, "\n"), strings.Join(want, "\n"))
	}
}

func TestFeh_Commands(t *testing.T) {
	rec := &recorder{fail: map[string]error{"feh": errors.New("feh: not found")}}
	f := NewFeh(rec.run)
	ctx := context.Background()

	if err := f.SetWallpaper(ctx, "/tmp/a.jpg"); err == nil {
		t.Error("expected the runner error to surface")
	}
	if err := f.SetScreensaver(ctx, "/tmp/a.jpg"); err != nil {
		t.Errorf("SetScreensaver should be a no-op, got %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0] != "feh --no-fehbg --bg-fill /tmp/a.jpg" {
		t.Errorf("calls = %v", rec.calls)
	}
}
