package repository

import (
	"context"
	"time"

	"videoearn/internal/domain"
	"videoearn/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalAccounts        int64 `json:"total_accounts"`
	PremiumAccounts      int64 `json:"premium_accounts"`
	TotalBalancePaise    int64 `json:"total_balance_paise"`
	DepositsPaise        int64 `json:"deposits_paise"`
	PremiumRevenuePaise  int64 `json:"premium_revenue_paise"`
	PendingWithdrawals   int64 `json:"pending_withdrawals"`
	PendingPaise         int64 `json:"pending_paise"`
	ApprovedPaise        int64 `json:"approved_paise"`
	VideoEarningsPaise   int64 `json:"video_earnings_paise"`
	VideosWatchedToday   int64 `json:"videos_watched_today"`
	TotalReferrals       int64 `json:"total_referrals"`
	ReferralRewardsPaise int64 `json:"referral_rewards_paise"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) sum(ctx context.Context, model interface{}, column string, where string, args ...interface{}) (int64, error) {
	var out struct{ Total int64 }
	q := r.db.WithContext(ctx).Model(model).Select("COALESCE(SUM(" + column + "), 0) AS total")
	if where != "" {
		q = q.Where(where, args...)
	}
	err := q.Scan(&out).Error
	return out.Total, err
}

// GetDashboardStats aggregates the admin overview. today is the current
// business day (YYYY-MM-DD).
func (r *AdminRepository) GetDashboardStats(ctx context.Context, today string) (*DashboardStats, error) {
	var s DashboardStats
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Account{}).Count(&s.TotalAccounts).Error; err != nil {
		return nil, err
	}
	db.Model(&models.Account{}).Where("is_premium = ?", true).Count(&s.PremiumAccounts)
	db.Model(&models.Transaction{}).Where("type = ? AND status = ?", domain.TxTypeWithdrawal, domain.TxStatusPending).Count(&s.PendingWithdrawals)
	db.Model(&models.VideoEarning{}).Where("earned_on = ?", today).Count(&s.VideosWatchedToday)
	db.Model(&models.Referral{}).Count(&s.TotalReferrals)

	var err error
	if s.TotalBalancePaise, err = r.sum(ctx, &models.Account{}, "balance_paise", ""); err != nil {
		return nil, err
	}
	if s.DepositsPaise, err = r.sum(ctx, &models.Transaction{}, "amount_paise", "type = ? AND status = ?", domain.TxTypeDeposit, domain.TxStatusCompleted); err != nil {
		return nil, err
	}
	if s.PremiumRevenuePaise, err = r.sum(ctx, &models.Transaction{}, "amount_paise", "type = ? AND status = ?", domain.TxTypePremium, domain.TxStatusCompleted); err != nil {
		return nil, err
	}
	if s.PendingPaise, err = r.sum(ctx, &models.Transaction{}, "amount_paise", "type = ? AND status = ?", domain.TxTypeWithdrawal, domain.TxStatusPending); err != nil {
		return nil, err
	}
	if s.ApprovedPaise, err = r.sum(ctx, &models.Transaction{}, "amount_paise", "type = ? AND status = ?", domain.TxTypeWithdrawal, domain.TxStatusApproved); err != nil {
		return nil, err
	}
	if s.VideoEarningsPaise, err = r.sum(ctx, &models.VideoEarning{}, "amount_paise", ""); err != nil {
		return nil, err
	}
	if s.ReferralRewardsPaise, err = r.sum(ctx, &models.Referral{}, "reward_paise", ""); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListAccounts returns accounts with mobile search and pagination.
func (r *AdminRepository) ListAccounts(ctx context.Context, search string, page, limit int) ([]models.Account, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Account{})
	if search != "" {
		q = q.Where("mobile LIKE ? OR referral_code = ?", "%"+search+"%", search)
	}
	var total int64
	q.Count(&total)
	var list []models.Account
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListTransactions returns transactions of a type with an optional status filter.
func (r *AdminRepository) ListTransactions(ctx context.Context, txType, status string, page, limit int) ([]models.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("type = ?", txType)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Transaction
	err := q.Preload("Account").Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListReferrals returns all referrals with preloaded accounts.
func (r *AdminRepository) ListReferrals(ctx context.Context, page, limit int) ([]models.Referral, int64, error) {
	var total int64
	r.db.WithContext(ctx).Model(&models.Referral{}).Count(&total)
	var list []models.Referral
	err := r.db.WithContext(ctx).Preload("Referrer").Preload("Referred").Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// SignupsByDay returns daily signup counts for the last N days.
func (r *AdminRepository) SignupsByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// VideoWatchesByDay returns daily credited video counts for the last N days.
func (r *AdminRepository) VideoWatchesByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.VideoEarning{}).
		Select("earned_on as date, COUNT(*) as count").
		Where("earned_on >= ?", since).
		Group("earned_on").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}
