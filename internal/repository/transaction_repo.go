package repository

import (
	"context"

	"videoearn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetForUpdate(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByPaymentRef(ctx context.Context, ref string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.WithContext(ctx).Where("payment_ref = ?", ref).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) Update(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// ListByAccount returns an account's transactions, newest first. An empty
// txType returns every type.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uint, txType string, limit, offset int) ([]models.Transaction, error) {
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	var list []models.Transaction
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// SumByAccount totals amount_paise for an account's transactions of txType
// whose status is one of statuses.
func (r *TransactionRepository) SumByAccount(ctx context.Context, accountID uint, txType string, statuses ...string) (int64, error) {
	var out struct{ Total int64 }
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount_paise), 0) AS total").
		Where("account_id = ? AND type = ? AND status IN ?", accountID, txType, statuses).
		Scan(&out).Error
	return out.Total, err
}
