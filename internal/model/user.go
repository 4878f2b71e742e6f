package model

import (
	"time"

	"gorm.io/datatypes"
)

// users — профиль текущего пользователя (кэш последнего get-profile).
type User struct {
	ID string `gorm:"type:varchar(64);primaryKey" json:"_id"`

	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Email string `gorm:"type:varchar(255);not null;index" json:"email"`
	Image string `gorm:"type:text" json:"image,omitempty"`

	Gender string `gorm:"type:varchar(32)" json:"gender,omitempty"`
	Dob    string `gorm:"type:varchar(32)" json:"dob,omitempty"`
	Phone  int64  `gorm:"type:bigint" json:"phone,omitempty"`

	Address datatypes.JSONType[Address] `json:"address"`

	FetchedAt time.Time `gorm:"not null" json:"-"`
}
