package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/blisspaper/internal/api/middleware"
	"github.com/timmy/blisspaper/internal/domain"
	"github.com/timmy/blisspaper/internal/service"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// StatusProvider exposes the rotation engine's progress.
type StatusProvider interface {
	Status() service.Status
}

// EntryLister lists the wallpaper cache.
type EntryLister interface {
	Entries() ([]domain.CacheEntry, error)
}

// HistoryReader reads recorded rotation events.
type HistoryReader interface {
	Recent(ctx context.Context, kind domain.EventKind, limit int) ([]domain.RotationEvent, error)
	CountByKind(ctx context.Context) (map[domain.EventKind]int64, error)
}

// StatusHandler handles rotation status endpoints.
type StatusHandler struct {
	engine  StatusProvider
	cache   EntryLister
	history HistoryReader
}

// NewStatusHandler creates a new status handler.
// Parameters:
//   - engine: rotation engine status source.
//   - cache: wallpaper cache.
//   - history: event history; nil disables /history.
//
// Returns:
//   - *StatusHandler: initialized handler.
func NewStatusHandler(engine StatusProvider, cache EntryLister, history HistoryReader) *StatusHandler {
	return &StatusHandler{
		engine:  engine,
		cache:   cache,
		history: history,
	}
}

// GetStatus handles GET /api/v1/status.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}

// ListEntries handles GET /api/v1/entries.
// Returns the cache oldest first.
func (h *StatusHandler) ListEntries(c *gin.Context) {
	entries, err := h.cache.Entries()
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list wallpaper cache")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list cache: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   len(entries),
		"entries": entries,
	})
}

// ListHistory handles GET /api/v1/history?kind=presented&limit=20.
func (h *StatusHandler) ListHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "History is disabled",
		})
		return
	}

	kind := domain.EventKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown event kind: " + string(kind),
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "limit must be a positive integer",
		})
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	ctx := c.Request.Context()
	events, err := h.history.Recent(ctx, kind, limit)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to read rotation history")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read history: " + err.Error(),
		})
		return
	}
	counts, err := h.history.CountByKind(ctx)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to count rotation history")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read history: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"counts": counts,
		"events": events,
	})
}
