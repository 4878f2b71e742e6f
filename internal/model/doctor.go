package model

import (
	"time"

	"gorm.io/datatypes"
)

// Адрес клиники из анкеты врача.
type Address struct {
	Line1 string `json:"line1,omitempty"`
	Line2 string `json:"line2,omitempty"`
}

// doctors — локальный снапшот справочника врачей бэкенда.
// Идентификаторы назначает сервер, мы их только зеркалим.
type Doctor struct {
	ID string `gorm:"type:varchar(64);primaryKey" json:"_id"`

	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	Speciality string `gorm:"type:varchar(255);index" json:"speciality"`
	Image      string `gorm:"type:text" json:"image"`
	Degree     string `gorm:"type:varchar(255)" json:"degree"`
	Experience string `gorm:"type:varchar(64)" json:"experience"`
	About      string `gorm:"type:text" json:"about"`
	Available  bool   `gorm:"not null;default:true" json:"available"`
	Fees       int64  `gorm:"not null" json:"fees"`

	Address datatypes.JSONType[Address] `json:"address"`

	// Занятые слоты по датам: "10_2_2026" -> ["09:00","10:00"].
	// Источник истины — сервер; на клиенте только чтение.
	SlotsBooked datatypes.JSONType[map[string][]string] `json:"slots_booked"`

	// Когда снапшот был получен с бэкенда.
	FetchedAt time.Time `gorm:"not null" json:"-"`
}
