package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/timmy/blisspaper/internal/domain"
	"github.com/timmy/blisspaper/internal/logger"
	"github.com/timmy/blisspaper/internal/service"
	"github.com/timmy/blisspaper/internal/source"
)

type fixedStatus struct {
	status service.Status
}

func (f fixedStatus) Status() service.Status { return f.status }

type fixedEntries struct {
	entries []domain.CacheEntry
	err     error
}

func (f fixedEntries) Entries() ([]domain.CacheEntry, error) { return f.entries, f.err }

type fakeHistory struct {
	events   []domain.RotationEvent
	lastKind domain.EventKind
	lastN    int
}

func (h *fakeHistory) Recent(ctx context.Context, kind domain.EventKind, limit int) ([]domain.RotationEvent, error) {
	h.lastKind, h.lastN = kind, limit
	return h.events, nil
}

func (h *fakeHistory) CountByKind(ctx context.Context) (map[domain.EventKind]int64, error) {
	return map[domain.EventKind]int64{domain.EventPresented: int64(len(h.events))}, nil
}

func newTestRouter(history *fakeHistory, entries fixedEntries) http.Handler {
	cfg := &RouterConfig{
		Engine: fixedStatus{status: service.Status{
			Tick:             7,
			Capacity:         50,
			CacheSize:        2,
			Cursor:           source.CursorState{CollectionID: "317099", Page: 3},
			CurrentWallpaper: "/tmp/wallpapers/b64_aGk.jpg",
		}},
		Cache:          entries,
		Mode:           "test",
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         logger.New(&logger.Config{Level: "error", Output: io.Discard}),
	}
	if history != nil {
		cfg.History = history
	}
	return SetupRouter(cfg)
}

func serve(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := serve(t, newTestRouter(nil, fixedEntries{}), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestRouter_RequestID(t *testing.T) {
	const incoming = "0b9d8c7e-6f5a-4b3c-9d2e-1f0a9b8c7d6e"

	tests := []struct {
		name   string
		header http.Header
		reuse  bool
	}{
		{"valid id is echoed", http.Header{"X-Request-Id": {incoming}}, true},
		{"malformed id is replaced", http.Header{"X-Request-Id": {"not-a-uuid"}}, false},
		{"missing id is generated", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, newTestRouter(nil, fixedEntries{}), http.MethodGet, "/health", tt.header)
			got := rec.Header().Get("X-Request-ID")
			if tt.reuse && got != incoming {
				t.Errorf("X-Request-ID = %q, want %q", got, incoming)
			}
			if !tt.reuse && (got == "" || got == "not-a-uuid") {
				t.Errorf("X-Request-ID = %q, want a fresh id", got)
			}
		})
	}
}

func TestRouter_Status(t *testing.T) {
	rec := serve(t, newTestRouter(nil, fixedEntries{}), http.MethodGet, "/api/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got service.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Tick != 7 || got.Cursor.Page != 3 || got.CurrentWallpaper == "" {
		t.Errorf("status = %+v", got)
	}
}

func TestRouter_Entries(t *testing.T) {
	tests := []struct {
		name     string
		entries  fixedEntries
		wantCode int
		wantN    int
	}{
		{
			name: "listing",
			entries: fixedEntries{entries: []domain.CacheEntry{
				{Name: "b64_YQ.jpg", Path: "/w/b64_YQ.jpg", SourceURL: "a", CreatedAt: time.Unix(1, 0)},
				{Name: "b64_Yg.jpg", Path: "/w/b64_Yg.jpg", SourceURL: "b", CreatedAt: time.Unix(2, 0)},
			}},
			wantCode: http.StatusOK,
			wantN:    2,
		},
		{
			name:     "read error",
			entries:  fixedEntries{err: errors.New("permission denied")},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, newTestRouter(nil, tt.entries), http.MethodGet, "/api/v1/entries", nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var body struct {
				Total   int                 `json:"total"`
				Entries []domain.CacheEntry `json:"entries"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Total != tt.wantN || len(body.Entries) != tt.wantN {
				t.Errorf("got %d entries (total %d), want %d", len(body.Entries), body.Total, tt.wantN)
			}
		})
	}
}

func TestRouter_History(t *testing.T) {
	history := &fakeHistory{events: []domain.RotationEvent{{ID: 1, Kind: domain.EventPresented, Path: "/w/a.jpg"}}}
	router := newTestRouter(history, fixedEntries{})

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantKind domain.EventKind
		wantN    int
	}{
		{"defaults", "/api/v1/history", http.StatusOK, "", 20},
		{"filtered", "/api/v1/history?kind=presented&limit=5", http.StatusOK, domain.EventPresented, 5},
		{"clamped", "/api/v1/history?limit=5000", http.StatusOK, "", 200},
		{"bad kind", "/api/v1/history?kind=deleted", http.StatusBadRequest, "", 0},
		{"bad limit", "/api/v1/history?limit=-1", http.StatusBadRequest, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, router, http.MethodGet, tt.target, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if history.lastKind != tt.wantKind || history.lastN != tt.wantN {
				t.Errorf("query kind=%q limit=%d, want kind=%q limit=%d", history.lastKind, history.lastN, tt.wantKind, tt.wantN)
			}
		})
	}
}

func TestRouter_HistoryDisabled(t *testing.T) {
	rec := serve(t, newTestRouter(nil, fixedEntries{}), http.MethodGet, "/api/v1/history", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRouter_CORS(t *testing.T) {
	router := newTestRouter(nil, fixedEntries{})

	rec := serve(t, router, http.MethodOptions, "/api/v1/status", http.Header{"Origin": {"http://localhost:3000"}})
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}

	rec = serve(t, router, http.MethodGet, "/api/v1/status", http.Header{"Origin": {"http://evil.example"}})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Allow-Origin %q", got)
	}
}
