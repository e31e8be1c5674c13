package service

import (
	"context"
	"errors"
	"fmt"

	"videoearn/internal/domain"
	"videoearn/internal/money"
	"videoearn/internal/repository"

	"github.com/sirupsen/logrus"
)

var ErrInvalidSetting = errors.New("invalid setting")

// Rates is a snapshot of the admin-configurable amounts, in paise. Load it
// once per request and pass it to the ledger.
type Rates struct {
	AmountPerVideo int64 `json:"amount_per_video_paise"`
	ReferralBonus  int64 `json:"referral_bonus_paise"`
	PremiumFee     int64 `json:"premium_fee_paise"`
	MinWithdrawal  int64 `json:"min_withdrawal_paise"`
}

type SettingsService struct {
	repo *repository.SettingRepository
	log  *logrus.Logger
}

func NewSettingsService(repo *repository.SettingRepository, log *logrus.Logger) *SettingsService {
	return &SettingsService{repo: repo, log: log}
}

// Load reads every setting. Missing or malformed values fall back to the
// shipped defaults.
func (s *SettingsService) Load(ctx context.Context) (Rates, error) {
	list, err := s.repo.GetAll(ctx)
	if err != nil {
		return Rates{}, classify(err)
	}
	values := make(map[string]string, len(list))
	for _, st := range list {
		values[st.Key] = st.Value
	}
	return Rates{
		AmountPerVideo: s.paise(values, domain.SettingAmountPerVideo),
		ReferralBonus:  s.paise(values, domain.SettingReferralBonus),
		PremiumFee:     s.paise(values, domain.SettingPremiumFee),
		MinWithdrawal:  s.paise(values, domain.SettingMinWithdrawal),
	}, nil
}

func (s *SettingsService) paise(values map[string]string, key string) int64 {
	if raw, ok := values[key]; ok {
		p, err := money.ParseRupees(raw)
		if err == nil && p >= 0 {
			return p
		}
		s.log.WithFields(logrus.Fields{"key": key, "value": raw}).Warn("malformed setting, using default")
	}
	p, _ := money.ParseRupees(domain.DefaultSettings[key])
	return p
}

// Raw returns the stored rupee strings keyed by setting name, defaults filled in.
func (s *SettingsService) Raw(ctx context.Context) (map[string]string, error) {
	list, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make(map[string]string, len(domain.DefaultSettings))
	for k, v := range domain.DefaultSettings {
		out[k] = v
	}
	for _, st := range list {
		if _, known := domain.DefaultSettings[st.Key]; known {
			out[st.Key] = st.Value
		}
	}
	return out, nil
}

// Update writes the given settings atomically. Only known keys with
// non-negative rupee amounts are accepted.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: nothing to update", ErrInvalidSetting)
	}
	clean := make(map[string]string, len(values))
	for k, v := range values {
		if _, known := domain.DefaultSettings[k]; !known {
			return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, k)
		}
		p, err := money.ParseRupees(v)
		if err != nil || p < 0 {
			return fmt.Errorf("%w: %s must be a non-negative amount", ErrInvalidSetting, k)
		}
		clean[k] = money.Format(p)
	}
	if err := s.repo.SetMany(ctx, clean); err != nil {
		return classify(err)
	}
	s.log.WithField("keys", len(clean)).Info("settings updated")
	return nil
}
