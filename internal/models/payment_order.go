package models

import "time"

// PaymentOrder is a checkout started by an account. It is consumed once the
// provider confirms the payment.
type PaymentOrder struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	OrderID         string     `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	ProviderOrderID string     `gorm:"size:64;uniqueIndex;not null" json:"provider_order_id"`
	AccountID       uint       `gorm:"not null;index" json:"account_id"`
	Purpose         string     `gorm:"size:20;not null" json:"purpose"` // deposit | premium
	AmountPaise     int64      `gorm:"not null" json:"amount_paise"`
	Currency        string     `gorm:"size:3;default:'INR'" json:"currency"`
	Status          string     `gorm:"size:20;not null;index" json:"status"` // CREATED, PAID, FAILED
	PaymentRef      string     `gorm:"size:128" json:"payment_ref"`
	TransactionID   *uint      `json:"transaction_id"`
	PaidAt          *time.Time `json:"paid_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (PaymentOrder) TableName() string { return "payment_orders" }
