package repository

import (
	"context"

	"github.com/timmy/blisspaper/internal/domain"
	"gorm.io/gorm"
)

// HistoryRepository stores rotation events.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record inserts one event.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - event: event to persist; ID and CreatedAt are filled in.
//
// Returns:
//   - error: non-nil if the insert fails.
func (r *HistoryRepository) Record(ctx context.Context, event *domain.RotationEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// Recent returns the latest events, newest first. A kind of "" matches all kinds.
func (r *HistoryRepository) Recent(ctx context.Context, kind domain.EventKind, limit int) ([]domain.RotationEvent, error) {
	var events []domain.RotationEvent
	query := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountByKind returns how many events of each kind were recorded.
func (r *HistoryRepository) CountByKind(ctx context.Context) (map[domain.EventKind]int64, error) {
	var rows []struct {
		Kind  domain.EventKind
		Count int64
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.RotationEvent{}).
		Select("kind, COUNT(*) AS count").
		Group("kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[domain.EventKind]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

// LastPresented returns the most recently presented event, or nil when
// nothing was presented yet.
func (r *HistoryRepository) LastPresented(ctx context.Context) (*domain.RotationEvent, error) {
	events, err := r.Recent(ctx, domain.EventPresented, 1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}
