package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/medibook/mobile-core/internal/model"
)

type DoctorCache interface {
	// Полностью заменить снапшот справочника свежим ответом бэкенда.
	ReplaceAll(ctx context.Context, doctors []model.Doctor) error
	// Последний сохранённый справочник.
	List(ctx context.Context) ([]model.Doctor, error)
	// Врач по серверному идентификатору.
	GetByID(ctx context.Context, id string) (*model.Doctor, error)
}

// Реализация на GORM.
type GormDoctorCache struct {
	db *gorm.DB
}

func NewGormDoctorCache(db *gorm.DB) *GormDoctorCache {
	return &GormDoctorCache{db: db}
}

func (r *GormDoctorCache) ReplaceAll(ctx context.Context, doctors []model.Doctor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Doctor{}).Error; err != nil {
			return err
		}
		if len(doctors) == 0 {
			return nil
		}
		return tx.Create(&doctors).Error
	})
}

func (r *GormDoctorCache) List(ctx context.Context) ([]model.Doctor, error) {
	var doctors []model.Doctor
	if err := r.db.WithContext(ctx).Order("name").Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *GormDoctorCache) GetByID(ctx context.Context, id string) (*model.Doctor, error) {
	var d model.Doctor
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
