package repository

import (
	"context"

	"videoearn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var s models.SiteSetting
	if err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SiteSetting{Key: key, Value: value}).Error
}

// SetMany upserts every pair in one transaction.
func (r *SettingRepository) SetMany(ctx context.Context, values map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := NewSettingRepository(tx)
		for k, v := range values {
			if err := txRepo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SettingRepository) GetAll(ctx context.Context) ([]models.SiteSetting, error) {
	var list []models.SiteSetting
	err := r.db.WithContext(ctx).Order("`key` ASC").Find(&list).Error
	return list, err
}

// SeedDefaults inserts default settings if they don't already exist.
func (r *SettingRepository) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	for k, v := range defaults {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.SiteSetting{}).Where("`key` = ?", k).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := r.db.WithContext(ctx).Create(&models.SiteSetting{Key: k, Value: v}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
