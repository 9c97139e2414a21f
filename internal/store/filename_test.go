package store

import (
	"strings"
	"testing"
)

var sampleURLs = []string{
	"https://images.unsplash.com/photo-1506744038136-46273834b3fb",
	"https://images.unsplash.com/photo-1506744038136-46273834b3fc",
	"https://images.unsplash.com/photo-1506744038136-46273834b3fb?ixlib=rb-4.0.3&q=85&fm=jpg",
	"https://images.unsplash.com/photo-1506744038136-46273834b3fb?ixlib=rb-4.0.3&q=85&fm=png",
	"https://example.com/a/b/c.jpg",
	"https://example.com/a_b/c.jpg",
	"https://example.com/a?b=c/d",
	"https://images.unsplash.com/photo-1470071459604-3b5ec3a7fe05?crop=entropy&cs=srgb&fm=jpg&ixid=M3wxMjA3fDB8MXxjb2xsZWN0aW9ufDF8MTA1MzgyOHx8fHx8Mnx8MTcwMDAwMDAwMHw&ixlib=rb-4.0.3&q=85",
	"https://images.unsplash.com/photo-1470071459604-3b5ec3a7fe05?crop=entropy&cs=srgb&fm=jpg&ixid=M3wxMjA3fDB8MXxjb2xsZWN0aW9ufDF8MTA1MzgyOHx8fHx8Mnx8MTcwMDAwMDAwMHw&ixlib=rb-4.0.3&q=80",
}

func TestFilename_InjectiveAndIdempotent(t *testing.T) {
	seen := make(map[string]string, len(sampleURLs))
	for _, u := range sampleURLs {
		name := Filename(u)
		if again := Filename(u); again != name {
			t.Errorf("Filename(%q) not stable: %q then %q", u, name, again)
		}
		if prev, ok := seen[name]; ok {
			t.Errorf("collision: %q and %q both map to %q", prev, u, name)
		}
		seen[name] = u
	}
}

func TestFilename_PathSafe(t *testing.T) {
	for _, u := range sampleURLs {
		name := Filename(u)
		if strings.ContainsAny(name, `/\:?*"<>|`) {
			t.Errorf("Filename(%q) = %q contains unsafe characters", u, name)
		}
		if strings.HasPrefix(name, ".") {
			t.Errorf("Filename(%q) = %q would be hidden", u, name)
		}
		if len(name) > maxNameLen {
			t.Errorf("Filename(%q) is %d bytes, limit %d", u, len(name), maxNameLen)
		}
	}
}

func TestDecodeFilename(t *testing.T) {
	short := sampleURLs[0]
	got, ok := DecodeFilename(Filename(short))
	if !ok || got != short {
		t.Errorf("DecodeFilename round trip = %q, %v; want %q", got, ok, short)
	}

	long := sampleURLs[len(sampleURLs)-1]
	if !strings.HasPrefix(Filename(long), hashedPrefix) {
		t.Fatalf("expected long url to be hashed, got %q", Filename(long))
	}
	if _, ok := DecodeFilename(Filename(long)); ok {
		t.Error("hashed names must not decode")
	}

	for _, name := range []string{"a.jpg", "b64_!!!.jpg", "b64_abc.png"} {
		if _, ok := DecodeFilename(name); ok {
			t.Errorf("DecodeFilename(%q) should fail", name)
		}
	}
}
