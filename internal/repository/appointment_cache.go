package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/medibook/mobile-core/internal/model"
)

type AppointmentCache interface {
	// Полностью заменить снапшот записей свежим ответом бэкенда.
	ReplaceAll(ctx context.Context, appts []model.Appointment) error
	// Последний сохранённый список, в порядке получения.
	List(ctx context.Context) ([]model.Appointment, error)
	// Локальная оптимистичная отмена: до следующей загрузки снапшота
	// запись считается отменённой, сервер подтвердит позже.
	MarkCancelled(ctx context.Context, id string) error
}

// Реализация на GORM.
type GormAppointmentCache struct {
	db *gorm.DB
}

func NewGormAppointmentCache(db *gorm.DB) *GormAppointmentCache {
	return &GormAppointmentCache{db: db}
}

func (r *GormAppointmentCache) ReplaceAll(ctx context.Context, appts []model.Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Appointment{}).Error; err != nil {
			return err
		}
		if len(appts) == 0 {
			return nil
		}
		for i := range appts {
			appts[i].Position = i
		}
		return tx.Create(&appts).Error
	})
}

func (r *GormAppointmentCache) List(ctx context.Context) ([]model.Appointment, error) {
	var appts []model.Appointment
	if err := r.db.WithContext(ctx).Order("position").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *GormAppointmentCache) MarkCancelled(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ?", id).
		Update("cancelled", true).
		Error
}
