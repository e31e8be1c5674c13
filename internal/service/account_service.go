package service

import (
	"context"
	"net/url"
	"strings"

	"videoearn/internal/models"
	"videoearn/internal/repository"
)

// Dashboard is the signed-in account's overview. Balance is read from
// storage on every call.
type Dashboard struct {
	AccountID           uint   `json:"account_id"`
	Mobile              string `json:"mobile"`
	BalancePaise        int64  `json:"balance_paise"`
	IsPremium           bool   `json:"is_premium"`
	ReferralCode        string `json:"referral_code"`
	Today               string `json:"today"`
	EarnedTodayPaise    int64  `json:"earned_today_paise"`
	VideosToday         int64  `json:"videos_today"`
	VideoLocked         bool   `json:"video_locked"`
	AmountPerVideoPaise int64  `json:"amount_per_video_paise"`
	PremiumFeePaise     int64  `json:"premium_fee_paise"`
	MinWithdrawalPaise  int64  `json:"min_withdrawal_paise"`
}

type ReferralInfo struct {
	Code                string `json:"code"`
	Link                string `json:"link"`
	ReferralCount       int64  `json:"referral_count"`
	TotalRewardsPaise   int64  `json:"total_rewards_paise"`
	RewardPerReferPaise int64  `json:"reward_per_referral_paise"`
}

// AccountService serves the read-only views over an account's ledger.
type AccountService struct {
	accounts      *repository.AccountRepository
	earnings      *repository.EarningRepository
	txns          *repository.TransactionRepository
	referrals     *repository.ReferralRepository
	ledger        *LedgerService
	publicBaseURL string
}

func NewAccountService(
	accounts *repository.AccountRepository,
	earnings *repository.EarningRepository,
	txns *repository.TransactionRepository,
	referrals *repository.ReferralRepository,
	ledger *LedgerService,
	publicBaseURL string,
) *AccountService {
	return &AccountService{
		accounts:      accounts,
		earnings:      earnings,
		txns:          txns,
		referrals:     referrals,
		ledger:        ledger,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *AccountService) Dashboard(ctx context.Context, accountID uint, rates Rates) (*Dashboard, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, classify(orNotFound(err, ErrAccountNotFound))
	}
	today := s.ledger.Today()
	earned, err := s.earnings.SumOnDay(ctx, accountID, today)
	if err != nil {
		return nil, classify(err)
	}
	count, err := s.earnings.CountOnDay(ctx, accountID, today)
	if err != nil {
		return nil, classify(err)
	}
	return &Dashboard{
		AccountID:           acct.ID,
		Mobile:              acct.Mobile,
		BalancePaise:        acct.BalancePaise,
		IsPremium:           acct.IsPremium,
		ReferralCode:        acct.ReferralCode,
		Today:               today,
		EarnedTodayPaise:    earned,
		VideosToday:         count,
		VideoLocked:         !acct.IsPremium && count > 0,
		AmountPerVideoPaise: rates.AmountPerVideo,
		PremiumFeePaise:     rates.PremiumFee,
		MinWithdrawalPaise:  rates.MinWithdrawal,
	}, nil
}

func (s *AccountService) Transactions(ctx context.Context, accountID uint, txType string, limit, offset int) ([]models.Transaction, error) {
	list, err := s.txns.ListByAccount(ctx, accountID, txType, limit, offset)
	return list, classify(err)
}

func (s *AccountService) Earnings(ctx context.Context, accountID uint, limit, offset int) ([]models.VideoEarning, error) {
	list, err := s.earnings.ListByAccount(ctx, accountID, limit, offset)
	return list, classify(err)
}

func (s *AccountService) Referrals(ctx context.Context, accountID uint, limit, offset int) ([]models.Referral, error) {
	list, err := s.referrals.ListByReferrerID(ctx, accountID, limit, offset)
	return list, classify(err)
}

// ReferralInfo returns the account's code and the signup link that carries it.
func (s *AccountService) ReferralInfo(ctx context.Context, accountID uint, rates Rates) (*ReferralInfo, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, classify(orNotFound(err, ErrAccountNotFound))
	}
	count, err := s.referrals.CountByReferrerID(ctx, accountID)
	if err != nil {
		return nil, classify(err)
	}
	total, err := s.referrals.SumRewards(ctx, accountID)
	if err != nil {
		return nil, classify(err)
	}
	return &ReferralInfo{
		Code:                acct.ReferralCode,
		Link:                ReferralLink(s.publicBaseURL, acct.ReferralCode),
		ReferralCount:       count,
		TotalRewardsPaise:   total,
		RewardPerReferPaise: rates.ReferralBonus,
	}, nil
}

// ReferralLink builds <base>/signup?ref=<code>.
func ReferralLink(base, code string) string {
	return strings.TrimRight(base, "/") + "/signup?" + url.Values{"ref": {code}}.Encode()
}
