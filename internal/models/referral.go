package models

import "time"

// Referral links a referrer to the account that signed up with their code.
// An account can only be referred once.
type Referral struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReferrerID  uint      `gorm:"not null;index" json:"referrer_id"`
	ReferredID  uint      `gorm:"uniqueIndex;not null" json:"referred_id"`
	RewardPaise int64     `gorm:"not null" json:"reward_paise"`
	CreatedAt   time.Time `json:"created_at"`

	Referrer *Account `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	Referred *Account `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
}

func (Referral) TableName() string { return "referrals" }
