package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/timmy/blisspaper/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "wallpapers"))
	if _, err := s.EnsureDirectory(); err != nil {
		t.Fatalf("EnsureDirectory: %v", err)
	}
	return s
}

func ref(u string) domain.PhotoRef {
	return domain.PhotoRef{URL: u}
}

func mustInsert(t *testing.T, s *Store, u string) string {
	t.Helper()
	path, err := s.Insert(ref(u), strings.NewReader("image:"+u))
	if err != nil {
		t.Fatalf("Insert(%s): %v", u, err)
	}
	return path
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestEnsureDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "wallpapers")
	s := New(dir)

	created, err := s.EnsureDirectory()
	if err != nil || !created {
		t.Fatalf("first call = %v, %v; want created", created, err)
	}
	created, err = s.EnsureDirectory()
	if err != nil || created {
		t.Fatalf("second call = %v, %v; want existing", created, err)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(file).EnsureDirectory(); err == nil {
		t.Error("expected an error when the path is a regular file")
	}
}

func TestInsert_Duplicate(t *testing.T) {
	s := newTestStore(t)
	u := "https://images.example.com/photo-1"

	if s.Contains(ref(u)) {
		t.Fatal("empty store claims to contain the photo")
	}
	path := mustInsert(t, s, u)
	if !s.Contains(ref(u)) {
		t.Fatal("Contains is false after Insert")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "image:"+u {
		t.Fatalf("stored content = %q, %v", data, err)
	}

	_, err = s.Insert(ref(u), strings.NewReader("different bytes"))
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("second insert error = %v, want *DuplicateError", err)
	}
	if dup.Path != path {
		t.Errorf("duplicate path = %s, want %s", dup.Path, path)
	}
	if !errors.Is(err, ErrDuplicate) {
		t.Error("DuplicateError should match ErrDuplicate")
	}

	if names := dirNames(t, s.Root()); len(names) != 1 {
		t.Errorf("directory holds %v, want exactly one file", names)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "image:"+u {
		t.Errorf("duplicate insert overwrote the file: %q", data)
	}
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, io.ErrUnexpectedEOF
}

func TestInsert_FailedStreamLeavesNoEntry(t *testing.T) {
	s := newTestStore(t)
	u := "https://images.example.com/broken"

	if _, err := s.Insert(ref(u), &failingReader{}); err == nil {
		t.Fatal("expected an error from a failing stream")
	}
	if s.Contains(ref(u)) {
		t.Error("partial download was committed")
	}
	if names := dirNames(t, s.Root()); len(names) != 0 {
		t.Errorf("leftover files: %v", names)
	}
}

func TestEvictOldest_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	pathA := mustInsert(t, s, "https://images.example.com/a")
	pathB := mustInsert(t, s, "https://images.example.com/b")
	pathC := mustInsert(t, s, "https://images.example.com/c")

	for _, want := range []string{pathA, pathB, pathC} {
		got, err := s.EvictOldest()
		if err != nil {
			t.Fatalf("EvictOldest: %v", err)
		}
		if got != want {
			t.Errorf("evicted %s, want %s", filepath.Base(got), filepath.Base(want))
		}
		if fileExists(got) {
			t.Errorf("%s still on disk", got)
		}
	}

	if n, _ := s.Size(); n != 0 {
		t.Errorf("size = %d after evicting everything", n)
	}
}

func TestEvictOldest_EmptyStorePanics(t *testing.T) {
	s := newTestStore(t)
	defer func() {
		if recover() == nil {
			t.Error("EvictOldest on an empty store should panic")
		}
	}()
	s.EvictOldest()
}

func TestEntries_OrderAndExternalChanges(t *testing.T) {
	s := newTestStore(t)
	urls := []string{
		"https://images.example.com/3",
		"https://images.example.com/1",
		"https://images.example.com/2",
	}
	for _, u := range urls {
		mustInsert(t, s, u)
	}

	// Hidden files are not entries.
	if err := os.WriteFile(filepath.Join(s.Root(), ".tmp-stale"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := s.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(first) != len(urls) {
		t.Fatalf("got %d entries, want %d", len(first), len(urls))
	}
	for i, e := range first {
		if e.SourceURL != urls[i] {
			t.Errorf("entry %d = %s, want %s (insertion order)", i, e.SourceURL, urls[i])
		}
	}

	second, _ := s.Entries()
	for i := range first {
		if first[i].Name != second[i].Name {
			t.Errorf("listing order changed at %d: %s vs %s", i, first[i].Name, second[i].Name)
		}
	}

	if err := os.Remove(first[1].Path); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Size(); n != 2 {
		t.Errorf("size = %d after external removal, want 2", n)
	}

	removed, err := s.Sweep()
	if err != nil || removed != 1 {
		t.Errorf("Sweep = %d, %v; want 1 temp file removed", removed, err)
	}
}

func TestSize_RespectsCapacityWhenEvictingFirst(t *testing.T) {
	s := newTestStore(t)
	const capacity = 3

	for i := 0; i < 20; i++ {
		n, err := s.Size()
		if err != nil {
			t.Fatal(err)
		}
		if n >= capacity {
			if _, err := s.EvictOldest(); err != nil {
				t.Fatal(err)
			}
		}
		mustInsert(t, s, "https://images.example.com/"+strings.Repeat("x", i+1))

		if n, _ := s.Size(); n > capacity {
			t.Fatalf("iteration %d: size %d exceeds capacity %d", i, n, capacity)
		}
	}
}
