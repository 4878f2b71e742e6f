package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medibook/mobile-core/internal/model"
)

type UserCache interface {
	// Сохранить профиль последнего залогиненного пользователя.
	Save(ctx context.Context, user *model.User) error
	// Последний сохранённый профиль.
	Get(ctx context.Context) (*model.User, error)
	// Сброс при логауте.
	Clear(ctx context.Context) error
}

// Реализация на GORM.
type GormUserCache struct {
	db *gorm.DB
}

func NewGormUserCache(db *gorm.DB) *GormUserCache {
	return &GormUserCache{db: db}
}

func (r *GormUserCache) Save(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(user).
		Error
}

func (r *GormUserCache) Get(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Order("fetched_at DESC").First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserCache) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.User{}).Error
}
