package models

import "time"

// Transaction records an external-value movement: a deposit, a premium
// purchase or a withdrawal. Rows are append-only except for the status of a
// pending withdrawal.
type Transaction struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	AccountID   uint    `gorm:"not null;index" json:"account_id"`
	Type        string  `gorm:"size:20;not null;index" json:"type"`
	AmountPaise int64   `gorm:"not null" json:"amount_paise"`
	Status      string  `gorm:"size:20;not null;index" json:"status"`
	PaymentRef  *string `gorm:"size:128;uniqueIndex" json:"payment_ref,omitempty"` // nil for withdrawals

	BankAccountName   string `gorm:"size:128" json:"bank_account_name,omitempty"`
	BankAccountNumber string `gorm:"size:34" json:"bank_account_number,omitempty"`
	BankIFSC          string `gorm:"size:11" json:"bank_ifsc,omitempty"`
	BankName          string `gorm:"size:128" json:"bank_name,omitempty"`

	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy *uint      `json:"resolved_by,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }
