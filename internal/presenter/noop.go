package presenter

import "context"

// Noop accepts every path and changes nothing. Used headless and in tests.
type Noop struct{}

func (Noop) Name() string { return string(KindNoop) }

func (Noop) SetWallpaper(ctx context.Context, path string) error { return nil }

func (Noop) SetScreensaver(ctx context.Context, path string) error { return nil }
