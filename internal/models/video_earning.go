package models

import "time"

// VideoEarning is one credited video watch. EarnedOn is the business day
// (YYYY-MM-DD) the daily cap is enforced against.
type VideoEarning struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AccountID   uint      `gorm:"not null;index:idx_video_earnings_account_day,priority:1" json:"account_id"`
	VideoRef    string    `gorm:"size:100;not null" json:"video_ref"`
	AmountPaise int64     `gorm:"not null" json:"amount_paise"`
	EarnedOn    string    `gorm:"size:10;not null;index:idx_video_earnings_account_day,priority:2" json:"earned_on"`
	EarnedAt    time.Time `gorm:"not null" json:"earned_at"`
}

func (VideoEarning) TableName() string { return "video_earnings" }
