package presenter

import "context"

// Feh sets the root window background with feh, for i3 and other window
// managers without a desktop. They have no screensaver picture.
type Feh struct {
	run Runner
}

// NewFeh creates a feh presenter that runs commands through run.
func NewFeh(run Runner) *Feh {
	return &Feh{run: run}
}

// Name returns "feh".
func (f *Feh) Name() string { return string(KindFeh) }

// SetWallpaper scales path to fill the root window.
func (f *Feh) SetWallpaper(ctx context.Context, path string) error {
	return f.run(ctx, "feh", "--no-fehbg", "--bg-fill", path)
}

// SetScreensaver does nothing; feh sessions have no lock screen picture.
func (f *Feh) SetScreensaver(ctx context.Context, path string) error {
	return nil
}
