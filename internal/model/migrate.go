package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех таблиц локального кэша.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Doctor{},
		&Appointment{},
		&User{},
		&Event{},
	)
}
