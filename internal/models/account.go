package models

import (
	"time"

	"videoearn/internal/domain"

	"gorm.io/gorm"
)

// Account is a signed-up user. BalancePaise is a cached projection of the
// ledger rows that justify it and is only changed by the ledger service.
type Account struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Mobile       string         `gorm:"uniqueIndex;size:20;not null" json:"mobile"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Role         string         `gorm:"size:20;not null;default:'USER';index" json:"role"`
	BalancePaise int64          `gorm:"not null;default:0" json:"balance_paise"`
	IsPremium    bool           `gorm:"not null;default:false" json:"is_premium"`
	PremiumSince *time.Time     `json:"premium_since"`
	ReferralCode string         `gorm:"uniqueIndex;size:10;not null" json:"referral_code"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) IsAdmin() bool { return a.Role == domain.RoleAdmin }
