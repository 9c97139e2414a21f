package presenter

import (
	"context"
	"net/url"
	"path/filepath"
)

const (
	gnomeBackgroundSchema  = "org.gnome.desktop.background"
	gnomeScreensaverSchema = "org.gnome.desktop.screensaver"
)

// Gnome sets pictures through gsettings.
type Gnome struct {
	run Runner
}

// NewGnome creates a GNOME presenter that runs gsettings through run.
func NewGnome(run Runner) *Gnome {
	return &Gnome{run: run}
}

// Name returns "gnome".
func (g *Gnome) Name() string { return string(KindGnome) }

// SetWallpaper sets both the light and dark background keys; GNOME 42+ reads
// picture-uri-dark in dark mode. Older versions reject the dark key, so
// only the first call decides the result.
func (g *Gnome) SetWallpaper(ctx context.Context, path string) error {
	uri, err := fileURI(path)
	if err != nil {
		return err
	}
	if err := g.run(ctx, "gsettings", "set", gnomeBackgroundSchema, "picture-uri", uri); err != nil {
		return err
	}
	g.run(ctx, "gsettings", "set", gnomeBackgroundSchema, "picture-uri-dark", uri)
	return nil
}

// SetScreensaver sets the lock screen picture.
func (g *Gnome) SetScreensaver(ctx context.Context, path string) error {
	uri, err := fileURI(path)
	if err != nil {
		return err
	}
	return g.run(ctx, "gsettings", "set", gnomeScreensaverSchema, "picture-uri", uri)
}

func fileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: abs}).String(), nil
}
