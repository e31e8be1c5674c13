package repository

import (
	"context"
	"errors"
	"time"

	"videoearn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AccountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetForUpdate reads the account holding an exclusive row lock until the
// surrounding transaction ends.
func (r *AccountRepository) GetForUpdate(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) GetByMobile(ctx context.Context, mobile string) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).Where("mobile = ?", mobile).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Account{}).
		Where("referral_code = ?", code).Count(&count).Error
	return count > 0, err
}

// AddBalance atomically adds delta paise to the balance.
func (r *AccountRepository) AddBalance(ctx context.Context, id uint, delta int64) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("balance_paise", gorm.Expr("balance_paise + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeductBalance atomically subtracts amount paise, refusing to go below zero.
func (r *AccountRepository) DeductBalance(ctx context.Context, id uint, amount int64) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND balance_paise >= ?", id, amount).
		UpdateColumn("balance_paise", gorm.Expr("balance_paise - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

func (r *AccountRepository) SetPremium(ctx context.Context, id uint, since time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_premium": true, "premium_since": since}).Error
}

// ListIDs returns account ids in ascending order, starting after afterID.
func (r *AccountRepository) ListIDs(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
