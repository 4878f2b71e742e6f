package model

import (
	"time"

	"gorm.io/datatypes"
)

// Денормализованный снапшот врача внутри записи.
// Сервер фиксирует его в момент бронирования, это не живая ссылка.
type DoctorSnapshot struct {
	Name       string `json:"name"`
	Speciality string `json:"speciality"`
	Image      string `json:"image"`
	Fees       int64  `json:"fees"`
}

// appointments — локальный снапшот записей пользователя.
type Appointment struct {
	ID string `gorm:"type:varchar(64);primaryKey" json:"_id"`

	DoctorData datatypes.JSONType[DoctorSnapshot] `json:"docData"`

	// Дата слота в формате day_month_year (месяц с единицы),
	// время — "HH:MM" в 24-часовой шкале.
	SlotDate string `gorm:"type:varchar(16);not null;index" json:"slotDate"`
	SlotTime string `gorm:"type:varchar(8);not null" json:"slotTime"`

	// Флаги независимы; непротиворечивость данных сервер не гарантирует.
	Cancelled   bool `gorm:"not null;default:false" json:"cancelled"`
	IsCompleted bool `gorm:"not null;default:false" json:"isCompleted"`
	// На проводе поле называется payment.
	Paid bool `gorm:"not null;default:false" json:"payment"`

	// Позиция в последнем ответе бэкенда: фильтры обязаны сохранять
	// порядок выдачи сервера.
	Position int `gorm:"not null;index" json:"-"`

	FetchedAt time.Time `gorm:"not null" json:"-"`
}
