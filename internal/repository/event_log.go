package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medibook/mobile-core/internal/model"
)

type EventLog interface {
	// Записать событие локальной истории.
	Append(ctx context.Context, eventType model.EventType, appointmentID, details string) error
	// Последние события, свежие первыми.
	ListRecent(ctx context.Context, limit int) ([]model.Event, error)
}

// Реализация на GORM.
type GormEventLog struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormEventLog(db *gorm.DB, now func() time.Time) *GormEventLog {
	if now == nil {
		now = time.Now
	}
	return &GormEventLog{db: db, now: now}
}

func (r *GormEventLog) Append(ctx context.Context, eventType model.EventType, appointmentID, details string) error {
	ev := model.Event{
		ID:            uuid.New(),
		EventType:     eventType,
		CreatedAt:     r.now(),
		AppointmentID: appointmentID,
		Details:       details,
	}
	return r.db.WithContext(ctx).Create(&ev).Error
}

func (r *GormEventLog) ListRecent(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []model.Event
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
