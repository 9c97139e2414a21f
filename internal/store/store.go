package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/blisspaper/internal/domain"
)

const (
	defaultDirName = ".blisspaper/wallpapers"
	tempPrefix     = ".tmp-"

	// stampStep keeps insertion timestamps strictly increasing when the clock
	// does not move between two inserts.
	stampStep = time.Millisecond
)

// ErrDuplicate matches any *DuplicateError with errors.Is.
var ErrDuplicate = errors.New("wallpaper already exists")

// DuplicateError is returned by Insert when the source URL is already cached.
type DuplicateError struct {
	Path string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("wallpaper already exists: %s", e.Path)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// Store is a directory of downloaded wallpapers keyed by source URL.
//
// The directory is the only index: every query re-reads it, so files added or
// removed by hand are picked up on the next call. Entries are ordered by
// modification time, which Insert sets to a strictly increasing insertion
// stamp, with the file name as tie-breaker.
//
// The store does not enforce a capacity. Callers compare Size against their
// bound and call EvictOldest.
type Store struct {
	root string

	// mu serializes the commit step of Insert with EvictOldest and Entries so a
	// reader never observes a half-applied mutation.
	mu        sync.RWMutex
	lastStamp time.Time
}

// New creates a store rooted at dir. The directory is not created; call
// EnsureDirectory first.
func New(dir string) *Store {
	return &Store{root: dir}
}

// DefaultRoot returns the per-user wallpaper directory:
// $XDG_DATA_HOME/blisspaper/wallpapers when XDG_DATA_HOME is set, otherwise
// ~/.blisspaper/wallpapers.
func DefaultRoot() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "blisspaper", "wallpapers"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultDirName), nil
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// EnsureDirectory creates the cache directory if needed.
// Returns:
//   - bool: true when the directory was created, false when it already existed.
//   - error: non-nil if the path exists but is not a directory or cannot be created.
func (s *Store) EnsureDirectory() (bool, error) {
	info, err := os.Stat(s.root)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("wallpaper path %s is not a directory", s.root)
		}
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat wallpaper directory: %w", err)
	}
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return false, fmt.Errorf("failed to create wallpaper directory: %w", err)
	}
	return true, nil
}

// Path returns the deterministic file path for ref.
func (s *Store) Path(ref domain.PhotoRef) string {
	return filepath.Join(s.root, Filename(ref.URL))
}

// Contains reports whether ref is already cached.
func (s *Store) Contains(ref domain.PhotoRef) bool {
	return fileExists(s.Path(ref))
}

// Insert streams r into the cache under ref's file name.
//
// The data is written to a hidden temp file, flushed to disk and renamed into
// place, so an interrupted download never shows up as an entry. If ref is
// already cached nothing is written and a *DuplicateError carrying the
// existing path is returned.
func (s *Store) Insert(ref domain.PhotoRef, r io.Reader) (string, error) {
	path := s.Path(ref)
	if fileExists(path) {
		return "", &DuplicateError{Path: path}
	}

	tmpPath := filepath.Join(s.root, tempPrefix+uuid.New().String())
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write wallpaper: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to flush wallpaper: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close wallpaper: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if fileExists(path) {
		os.Remove(tmpPath)
		return "", &DuplicateError{Path: path}
	}

	stamp := s.nextStamp()
	if err := os.Chtimes(tmpPath, stamp, stamp); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to stamp wallpaper: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to commit wallpaper: %w", err)
	}
	syncDir(s.root)

	return path, nil
}

// Size returns the number of cached wallpapers. Each call lists the directory.
func (s *Store) Size() (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// EvictOldest removes the oldest entry and returns its path.
//
// Calling it on an empty store is a capacity-accounting bug in the caller and
// panics.
func (s *Store) EvictOldest() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.list()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		panic(fmt.Sprintf("store: EvictOldest called on empty store %s", s.root))
	}

	oldest := entries[0]
	if err := os.Remove(oldest.Path); err != nil {
		return "", fmt.Errorf("failed to evict %s: %w", oldest.Name, err)
	}
	return oldest.Path, nil
}

// Entries lists the cache oldest first. Every call re-reads the directory;
// the order is stable for an unchanged directory.
func (s *Store) Entries() ([]domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list()
}

// Sweep removes temp files left behind by an interrupted Insert.
func (s *Store) Sweep() (int, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("failed to read wallpaper directory: %w", err)
	}
	removed := 0
	for _, d := range dirEntries {
		if !strings.HasPrefix(d.Name(), tempPrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, d.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove temp file: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) list() ([]domain.CacheEntry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallpaper directory: %w", err)
	}

	entries := make([]domain.CacheEntry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if !isEntryName(d.Name()) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		sourceURL, _ := DecodeFilename(d.Name())
		entries = append(entries, domain.CacheEntry{
			Name:      d.Name(),
			Path:      filepath.Join(s.root, d.Name()),
			SourceURL: sourceURL,
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// nextStamp returns a modification time later than every entry written so
// far, including entries from earlier runs. Callers hold mu.
func (s *Store) nextStamp() time.Time {
	if s.lastStamp.IsZero() {
		if entries, err := s.list(); err == nil && len(entries) > 0 {
			s.lastStamp = entries[len(entries)-1].CreatedAt
		}
	}
	stamp := time.Now()
	if !stamp.After(s.lastStamp) {
		stamp = s.lastStamp.Add(stampStep)
	}
	s.lastStamp = stamp
	return stamp
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// syncDir flushes the directory entry after a rename. Not every platform
// supports fsync on directories, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}
