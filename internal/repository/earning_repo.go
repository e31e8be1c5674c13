package repository

import (
	"context"

	"videoearn/internal/models"

	"gorm.io/gorm"
)

type EarningRepository struct {
	db *gorm.DB
}

func NewEarningRepository(db *gorm.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

func (r *EarningRepository) Create(ctx context.Context, e *models.VideoEarning) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// CountOnDay counts earnings credited to the account on the given business day.
func (r *EarningRepository) CountOnDay(ctx context.Context, accountID uint, day string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VideoEarning{}).
		Where("account_id = ? AND earned_on = ?", accountID, day).
		Count(&count).Error
	return count, err
}

// SumOnDay totals earnings credited to the account on the given business day.
func (r *EarningRepository) SumOnDay(ctx context.Context, accountID uint, day string) (int64, error) {
	var out struct{ Total int64 }
	err := r.db.WithContext(ctx).Model(&models.VideoEarning{}).
		Select("COALESCE(SUM(amount_paise), 0) AS total").
		Where("account_id = ? AND earned_on = ?", accountID, day).
		Scan(&out).Error
	return out.Total, err
}

func (r *EarningRepository) SumByAccount(ctx context.Context, accountID uint) (int64, error) {
	var out struct{ Total int64 }
	err := r.db.WithContext(ctx).Model(&models.VideoEarning{}).
		Select("COALESCE(SUM(amount_paise), 0) AS total").
		Where("account_id = ?", accountID).
		Scan(&out).Error
	return out.Total, err
}

func (r *EarningRepository) ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]models.VideoEarning, error) {
	var list []models.VideoEarning
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("earned_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
