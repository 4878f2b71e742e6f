package model

import (
	"time"

	"github.com/google/uuid"
)

// Тип локального события.
type EventType string

const (
	EventTypeAppointmentBooked        EventType = "appointment_booked"
	EventTypeAppointmentCancelled     EventType = "appointment_cancelled"
	EventTypeAppointmentAutoCancelled EventType = "appointment_auto_cancelled"
	EventTypeSnapshotRefreshed        EventType = "snapshot_refreshed"
)

// events — локальная история действий пользователя.
// Нужна только для диагностики; сервер о ней не знает.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	AppointmentID string `gorm:"type:varchar(64);index"`

	Details string `gorm:"type:text"`
}
