package repository

import (
	"context"

	"videoearn/internal/models"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Create persists a new referral relationship. The unique index on
// referred_id rejects a second referral of the same account.
func (r *ReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

// GetByReferredID returns the referral for an account that was referred by someone.
func (r *ReferralRepository) GetByReferredID(ctx context.Context, accountID uint) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.WithContext(ctx).Where("referred_id = ?", accountID).First(&ref).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

// ListByReferrerID returns all referrals made by the given referrer, with the referred account preloaded.
func (r *ReferralRepository) ListByReferrerID(ctx context.Context, referrerID uint, limit, offset int) ([]models.Referral, error) {
	var list []models.Referral
	err := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID).
		Preload("Referred").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// SumRewards totals the rewards the referrer has been credited.
func (r *ReferralRepository) SumRewards(ctx context.Context, referrerID uint) (int64, error) {
	var out struct{ Total int64 }
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Select("COALESCE(SUM(reward_paise), 0) AS total").
		Where("referrer_id = ?", referrerID).
		Scan(&out).Error
	return out.Total, err
}

func (r *ReferralRepository) CountByReferrerID(ctx context.Context, referrerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Referral{}).Where("referrer_id = ?", referrerID).Count(&count).Error
	return count, err
}
