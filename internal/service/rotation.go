package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/timmy/blisspaper/internal/domain"
	"github.com/timmy/blisspaper/internal/logger"
	"github.com/timmy/blisspaper/internal/presenter"
	"github.com/timmy/blisspaper/internal/source"
	"github.com/timmy/blisspaper/internal/store"
)

// fetchFailureAlarm is the number of consecutive failed page fetches after
// which failures are logged at error level.
const fetchFailureAlarm = 3

// PhotoCursor yields remote photo references one at a time.
type PhotoCursor interface {
	Next(ctx context.Context) (domain.PhotoRef, error)
	State() source.CursorState
}

// Downloader opens the image body for a reference.
type Downloader interface {
	Download(ctx context.Context, ref domain.PhotoRef) (io.ReadCloser, error)
}

// CacheStore is the bounded local image cache.
type CacheStore interface {
	EntryLister
	Contains(ref domain.PhotoRef) bool
	Insert(ref domain.PhotoRef, r io.Reader) (string, error)
	Size() (int, error)
	EvictOldest() (string, error)
}

// HistoryRecorder persists rotation events.
type HistoryRecorder interface {
	Record(ctx context.Context, event *domain.RotationEvent) error
}

// Mirror copies newly cached images elsewhere.
type Mirror interface {
	Copy(ctx context.Context, localPath string) (string, error)
}

// RotationConfig holds configuration for the rotation engine
type RotationConfig struct {
	Capacity int
	Interval time.Duration
}

// RotationEngine fetches one remote photo and shows one cached photo per tick.
//
// The two halves are independent: a failed or exhausted fetch never skips
// the display step, and an empty cache never stops fetching. Tick must not
// be called concurrently; Status may be read from any goroutine.
type RotationEngine struct {
	cursor     PhotoCursor
	downloader Downloader
	store      CacheStore
	presenter  presenter.Presenter
	history    HistoryRecorder
	mirror     Mirror
	logger     *logger.Logger

	capacity int
	interval time.Duration
	rotation *RotationCursor
	tick     uint64

	fetchFailStreak int

	mu     sync.RWMutex
	status Status
}

// Status is a snapshot of the engine's progress.
type Status struct {
	Tick             uint64             `json:"tick"`
	Capacity         int                `json:"capacity"`
	Interval         string             `json:"interval"`
	CacheSize        int                `json:"cache_size"`
	Presenter        string             `json:"presenter"`
	Cursor           source.CursorState `json:"cursor"`
	CurrentWallpaper string             `json:"current_wallpaper,omitempty"`
	LastTickAt       time.Time          `json:"last_tick_at,omitempty"`
	Downloads        uint64             `json:"downloads"`
	Duplicates       uint64             `json:"duplicates"`
	FetchFailures    uint64             `json:"fetch_failures"`
	FetchFailStreak  int                `json:"consecutive_fetch_failures"`
	RateLimited      uint64             `json:"rate_limited"`
	DownloadFailures uint64             `json:"download_failures"`
	Evictions        uint64             `json:"evictions"`
	Presented        uint64             `json:"presented"`
	PresentFailures  uint64             `json:"present_failures"`
	RotationLaps     int                `json:"rotation_laps"`
}

// TickReport describes what a single tick did.
type TickReport struct {
	Tick        uint64
	Evicted     []string
	Ref         *domain.PhotoRef
	Downloaded  string // path of the newly cached image
	Duplicate   bool
	FetchErr    error // cursor or download failure, including end of collection
	Presented   string
	PresentErrs []error
}

// NewRotationEngine creates a new rotation engine.
// Parameters:
//   - cursor: remote collection cursor.
//   - downloader: fetches image bodies for cursor references.
//   - cache: local image cache.
//   - p: applies the chosen image.
//   - history: optional event recorder; nil disables history.
//   - mirror: optional remote copy of new images; nil disables mirroring.
//   - log: base logger; nil uses the default logger.
//   - cfg: capacity (at least 1) and tick interval.
//
// Returns:
//   - *RotationEngine: engine ready to Run.
func NewRotationEngine(
	cursor PhotoCursor,
	downloader Downloader,
	cache CacheStore,
	p presenter.Presenter,
	history HistoryRecorder,
	mirror Mirror,
	log *logger.Logger,
	cfg *RotationConfig,
) *RotationEngine {
	if cfg.Capacity < 1 {
		panic(fmt.Sprintf("service: rotation capacity must be at least 1, got %d", cfg.Capacity))
	}
	if log == nil {
		log = logger.GetDefault()
	}

	e := &RotationEngine{
		cursor:     cursor,
		downloader: downloader,
		store:      cache,
		presenter:  p,
		history:    history,
		mirror:     mirror,
		logger:     log.WithField(logger.FieldComponent, "rotation"),
		capacity:   cfg.Capacity,
		interval:   cfg.Interval,
		rotation:   NewRotationCursor(cache),
	}
	e.status = Status{
		Capacity:  cfg.Capacity,
		Interval:  cfg.Interval.String(),
		Presenter: p.Name(),
		Cursor:    cursor.State(),
	}
	return e
}

// Run ticks until ctx is cancelled, sleeping for the interval after each
// tick's work has completed. Ticks never overlap.
func (e *RotationEngine) Run(ctx context.Context) error {
	e.logger.WithFields(logger.Fields{
		"capacity":  e.capacity,
		"interval":  e.interval.String(),
		"presenter": e.presenter.Name(),
	}).Info("Starting wallpaper rotation")

	for {
		e.Tick(ctx)

		timer := time.NewTimer(e.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			e.logger.WithField("ticks", e.tick).Info("Wallpaper rotation stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tick runs one iteration: make room, fetch one remote photo, show one
// cached photo.
func (e *RotationEngine) Tick(ctx context.Context) *TickReport {
	e.tick++
	start := time.Now()
	ctx = e.logger.WithField(logger.FieldTick, e.tick).WithContext(ctx)
	report := &TickReport{Tick: e.tick}

	e.advanceRemote(ctx, report)
	e.advanceRotation(ctx, report)

	size, err := e.store.Size()
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to read cache size")
	}
	e.updateStatus(report, size)

	logger.With(logger.Fields{"capacity": e.capacity}).
		WithCount(size).
		WithDuration(time.Since(start)).
		Debug(ctx, "Tick completed")
	return report
}

// Status returns a snapshot of the engine's progress.
func (e *RotationEngine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// advanceRemote makes room in the cache, then pulls and stores one photo.
func (e *RotationEngine) advanceRemote(ctx context.Context, report *TickReport) {
	log := logger.FromContext(ctx)

	size, err := e.store.Size()
	if err != nil {
		log.WithError(err).Error("Failed to read cache size, skipping fetch")
		report.FetchErr = err
		return
	}

	// size can exceed capacity if files were added by hand; evict down to one
	// free slot so the insert below stays within bounds.
	for ; size >= e.capacity; size-- {
		path, err := e.store.EvictOldest()
		if err != nil {
			log.WithError(err).Error("Failed to evict oldest wallpaper, skipping fetch")
			report.FetchErr = err
			return
		}
		report.Evicted = append(report.Evicted, path)
		log.WithField(logger.FieldPath, path).Info("Evicted oldest wallpaper")
		e.record(ctx, &domain.RotationEvent{Kind: domain.EventEvicted, Path: path})
	}

	ref, err := e.cursor.Next(ctx)
	if err != nil {
		report.FetchErr = err
		state := e.cursor.State()
		fields := logger.Fields{
			logger.FieldCollectionID: state.CollectionID,
			logger.FieldPage:         state.Page,
		}
		switch {
		case errors.Is(err, source.ErrEndOfCollection):
			e.fetchFailStreak = 0
			log.WithFields(fields).Info("Reached end of collection, restarting from the first page")
		case errors.Is(err, source.ErrRateLimited):
			log.WithFields(fields).Info("Request quota used up, retrying the same page later")
		default:
			e.fetchFailStreak++
			fields["consecutive_failures"] = e.fetchFailStreak
			if e.fetchFailStreak >= fetchFailureAlarm {
				log.WithFields(fields).WithError(err).Error("Remote photo fetch keeps failing")
			} else {
				log.WithFields(fields).WithError(err).Warn("No remote photo this tick")
			}
		}
		return
	}
	e.fetchFailStreak = 0
	report.Ref = &ref
	log = log.WithFields(logger.Fields{
		logger.FieldURL:          ref.URL,
		logger.FieldCollectionID: ref.CollectionID,
		logger.FieldPage:         ref.Page,
	})

	if e.store.Contains(ref) {
		report.Duplicate = true
		log.Info("Photo already cached, skipping download")
		e.record(ctx, &domain.RotationEvent{Kind: domain.EventDuplicate, SourceURL: ref.URL, CollectionID: ref.CollectionID, Page: ref.Page})
		return
	}

	start := time.Now()
	body, err := e.downloader.Download(ctx, ref)
	if err != nil {
		report.FetchErr = err
		log.WithError(err).Warn("Failed to download photo")
		return
	}
	defer body.Close()

	path, err := e.store.Insert(ref, body)
	if err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			report.Duplicate = true
			log.WithField(logger.FieldPath, dup.Path).Info("Photo already cached")
			return
		}
		report.FetchErr = err
		log.WithError(err).Error("Failed to store photo")
		return
	}
	report.Downloaded = path

	event := &domain.RotationEvent{
		Kind:         domain.EventDownloaded,
		SourceURL:    ref.URL,
		Path:         path,
		CollectionID: ref.CollectionID,
		Page:         ref.Page,
	}
	if width, height, format, err := imageInfo(path); err == nil {
		event.Width, event.Height, event.Format = width, height, format
	} else {
		log.WithError(err).Debug("Could not read image dimensions")
	}

	fileSize := int64(0)
	if info, err := os.Stat(path); err == nil {
		fileSize = info.Size()
		event.FileSize = fileSize
	}
	logger.With(logger.Fields{"width": event.Width, "height": event.Height}).
		WithSize(fileSize).
		WithDuration(time.Since(start)).
		Info(log.WithField(logger.FieldPath, path).WithContext(ctx), "Cached new wallpaper")
	e.record(ctx, event)

	if e.mirror != nil {
		if url, err := e.mirror.Copy(ctx, path); err != nil {
			log.WithError(err).Warn("Failed to mirror wallpaper")
		} else {
			log.WithField("mirror_url", url).Debug("Mirrored wallpaper")
		}
	}
}

// advanceRotation presents the next cached image.
func (e *RotationEngine) advanceRotation(ctx context.Context, report *TickReport) {
	log := logger.FromContext(ctx)

	entry, ok, err := e.rotation.Next()
	if err != nil {
		log.WithError(err).Error("Failed to list cached wallpapers")
		return
	}
	if !ok {
		log.Info("No cached wallpaper to show yet")
		return
	}

	log = log.WithField(logger.FieldPath, entry.Path)
	if err := e.presenter.SetWallpaper(ctx, entry.Path); err != nil {
		report.PresentErrs = append(report.PresentErrs, err)
		log.WithError(err).Warn("Failed to set wallpaper")
	}
	if err := e.presenter.SetScreensaver(ctx, entry.Path); err != nil {
		report.PresentErrs = append(report.PresentErrs, err)
		log.WithError(err).Warn("Failed to set screensaver")
	}
	report.Presented = entry.Path
	log.Info("Presented wallpaper")

	e.record(ctx, &domain.RotationEvent{
		Kind:      domain.EventPresented,
		SourceURL: entry.SourceURL,
		Path:      entry.Path,
		FileSize:  entry.Size,
	})
}

func (e *RotationEngine) record(ctx context.Context, event *domain.RotationEvent) {
	if e.history == nil {
		return
	}
	event.Tick = e.tick
	if err := e.history.Record(ctx, event); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to record rotation event")
	}
}

func (e *RotationEngine) updateStatus(report *TickReport, size int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.status
	s.Tick = report.Tick
	s.CacheSize = size
	s.Cursor = e.cursor.State()
	s.LastTickAt = time.Now()
	s.Evictions += uint64(len(report.Evicted))
	s.RotationLaps = e.rotation.Laps()
	s.FetchFailStreak = e.fetchFailStreak
	switch {
	case report.Downloaded != "":
		s.Downloads++
	case report.Duplicate:
		s.Duplicates++
	case report.FetchErr != nil && report.Ref != nil:
		s.DownloadFailures++
	case errors.Is(report.FetchErr, source.ErrRateLimited):
		s.RateLimited++
	case report.FetchErr != nil && !errors.Is(report.FetchErr, source.ErrEndOfCollection):
		s.FetchFailures++
	}
	if report.Presented != "" {
		s.Presented++
		s.CurrentWallpaper = report.Presented
	}
	s.PresentFailures += uint64(len(report.PresentErrs))
}
