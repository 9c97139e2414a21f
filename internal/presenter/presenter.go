package presenter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/timmy/blisspaper/internal/logger"
)

// Kind names a presenter variant.
type Kind string

const (
	KindAuto  Kind = "auto"
	KindGnome Kind = "gnome"
	KindFeh   Kind = "feh"
	KindNoop  Kind = "noop"
)

// Presenter applies an image file as the desktop wallpaper and screensaver.
type Presenter interface {
	// Name returns the variant name for logging.
	Name() string

	// SetWallpaper applies path as the desktop background.
	SetWallpaper(ctx context.Context, path string) error

	// SetScreensaver applies path as the lock/screensaver picture.
	SetScreensaver(ctx context.Context, path string) error
}

// Runner executes an external command. Tests replace it to avoid exec.
type Runner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command and folds its combined output into the error.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// New selects the presenter for kind once, at startup. KindAuto inspects the
// desktop session environment; an unrecognized session falls back to the
// no-op presenter.
func New(kind string, run Runner) (Presenter, error) {
	if run == nil {
		run = ExecRunner
	}

	switch Kind(strings.ToLower(kind)) {
	case KindGnome:
		return NewGnome(run), nil
	case KindFeh:
		return NewFeh(run), nil
	case KindNoop:
		return Noop{}, nil
	case KindAuto, "":
		return detect(run), nil
	default:
		return nil, fmt.Errorf("unknown presenter kind %q", kind)
	}
}

func detect(run Runner) Presenter {
	session := strings.ToLower(os.Getenv("DESKTOP_SESSION") + ":" + os.Getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(session, "gnome"), strings.Contains(session, "ubuntu"), strings.Contains(session, "unity"):
		logger.Info("Detected GNOME session")
		return NewGnome(run)
	case strings.Contains(session, "i3"), strings.Contains(session, "openbox"), strings.Contains(session, "bspwm"):
		logger.Info("Detected lightweight window manager session")
		return NewFeh(run)
	default:
		logger.Error("Desktop session %q not recognized, wallpapers will not be applied", session)
		return Noop{}
	}
}
