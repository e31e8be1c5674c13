package repository

import (
	"context"

	"videoearn/internal/models"

	"gorm.io/gorm"
)

type PaymentOrderRepository struct {
	db *gorm.DB
}

func NewPaymentOrderRepository(db *gorm.DB) *PaymentOrderRepository {
	return &PaymentOrderRepository{db: db}
}

func (r *PaymentOrderRepository) Create(ctx context.Context, o *models.PaymentOrder) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *PaymentOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	var o models.PaymentOrder
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PaymentOrderRepository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentOrder, error) {
	var o models.PaymentOrder
	if err := r.db.WithContext(ctx).Where("provider_order_id = ?", providerOrderID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PaymentOrderRepository) Update(ctx context.Context, o *models.PaymentOrder) error {
	return r.db.WithContext(ctx).Save(o).Error
}
