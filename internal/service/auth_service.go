package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"videoearn/config"
	"videoearn/internal/auth"
	"videoearn/internal/domain"
	"videoearn/internal/models"
	"videoearn/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrMobileExists   = errors.New("mobile number already registered")
	ErrInvalidMobile  = errors.New("invalid mobile number")
	ErrInvalidCreds   = errors.New("invalid mobile number or password")
	ErrWeakPassword   = errors.New("password must be at least 6 characters")
	ErrAccountMissing = errors.New("account no longer exists")
)

const (
	referralAlphabet        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxReferralCodeAttempts = 10
	minPasswordLength       = 6
)

type SignupResult struct {
	Account         *models.Account `json:"account"`
	AccessToken     string          `json:"access_token"`
	RefreshToken    string          `json:"refresh_token"`
	ReferralApplied bool            `json:"referral_applied"`
	// ReferralPending is set when a referral code was given but the grant
	// failed on a storage error and can be retried by an admin.
	ReferralPending bool            `json:"referral_pending,omitempty"`
}

type AuthService struct {
	cfg      *config.Config
	accounts *repository.AccountRepository
	ledger   *LedgerService
	settings *SettingsService
	log      *logrus.Logger
	newCode  func() (string, error)
}

func NewAuthService(cfg *config.Config, accounts *repository.AccountRepository, ledger *LedgerService, settings *SettingsService, log *logrus.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		accounts: accounts,
		ledger:   ledger,
		settings: settings,
		log:      log,
		newCode:  randomReferralCode,
	}
}

// NormalizeMobile reduces an Indian mobile number to its 10 digits. Spaces,
// dashes and a +91, 91 or 0 prefix are accepted.
func NormalizeMobile(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
		case r == '+' && b.Len() == 0:
		default:
			return "", ErrInvalidMobile
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != 10 || digits[0] < '6' {
		return "", ErrInvalidMobile
	}
	return digits, nil
}

// Signup creates an account and, when referralCode belongs to an existing
// account, pays that account the current referral bonus. An unknown code does
// not fail the signup, and neither does a storage error during the grant; the
// result then reports the referral as pending.
func (s *AuthService) Signup(ctx context.Context, mobile, password, referralCode string) (*SignupResult, error) {
	mobile, err := NormalizeMobile(mobile)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if _, err := s.accounts.GetByMobile(ctx, mobile); err == nil {
		return nil, ErrMobileExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, classify(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acct, err := s.createWithCode(ctx, mobile, string(hash), domain.RoleUser)
	if err != nil {
		return nil, err
	}
	res := &SignupResult{Account: acct}
	res.ReferralApplied, res.ReferralPending = s.applyReferral(ctx, acct, referralCode)

	if res.AccessToken, res.RefreshToken, err = s.issue(acct); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"account_id":       acct.ID,
		"referral_applied": res.ReferralApplied,
		"referral_pending": res.ReferralPending,
	}).Info("account created")
	return res, nil
}

// createWithCode inserts the account under a freshly generated referral code,
// retrying on collisions up to maxReferralCodeAttempts.
func (s *AuthService) createWithCode(ctx context.Context, mobile, hash, role string) (*models.Account, error) {
	for attempt := 0; attempt < maxReferralCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		taken, err := s.accounts.ReferralCodeExists(ctx, code)
		if err != nil {
			return nil, classify(err)
		}
		if taken {
			continue
		}
		acct := &models.Account{
			Mobile:       mobile,
			PasswordHash: hash,
			Role:         role,
			ReferralCode: code,
		}
		err = s.accounts.Create(ctx, acct)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, classify(err)
		}
		// Either the mobile or the code was taken concurrently.
		if _, err := s.accounts.GetByMobile(ctx, mobile); err == nil {
			return nil, ErrMobileExists
		}
	}
	return nil, ErrCodeGenerationExhausted
}

func (s *AuthService) applyReferral(ctx context.Context, acct *models.Account, code string) (applied, pending bool) {
	if strings.TrimSpace(code) == "" {
		return false, false
	}
	entry := s.log.WithFields(logrus.Fields{"account_id": acct.ID, "referral_code": code})
	_, err := s.ApplyReferral(ctx, acct.ID, code)
	switch {
	case err == nil:
		return true, false
	case errors.Is(err, ErrBackendUnavailable):
		entry.WithError(err).Error("referral pending, grant failed")
		return false, true
	case errors.Is(err, ErrReferrerNotFound):
		entry.Info("unknown referral code ignored")
	default:
		entry.WithError(err).Warn("referral not granted")
	}
	return false, false
}

// ApplyReferral pays the owner of code the current referral bonus for
// referredID. Signup calls it for new accounts; admins call it again for
// signups whose grant failed on a storage error.
func (s *AuthService) ApplyReferral(ctx context.Context, referredID uint, code string) (*models.Referral, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrReferrerNotFound
	}
	referrer, err := s.accounts.GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferrerNotFound
		}
		return nil, classify(err)
	}
	rates, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.ledger.GrantReferral(ctx, referrer.ID, referredID, rates.ReferralBonus)
}

func (s *AuthService) Login(ctx context.Context, mobile, password string) (*models.Account, string, string, error) {
	mobile, err := NormalizeMobile(mobile)
	if err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	acct, err := s.accounts.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", classify(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	access, refresh, err := s.issue(acct)
	if err != nil {
		return nil, "", "", err
	}
	return acct, access, refresh, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	id, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return "", "", err
	}
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrAccountMissing
		}
		return "", "", classify(err)
	}
	return s.issue(acct)
}

// SeedAdmin creates the configured admin account when it does not exist yet.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	if s.cfg.Admin.Mobile == "" || s.cfg.Admin.Password == "" {
		return nil
	}
	mobile, err := NormalizeMobile(s.cfg.Admin.Mobile)
	if err != nil {
		return err
	}
	if _, err := s.accounts.GetByMobile(ctx, mobile); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	acct, err := s.createWithCode(ctx, mobile, string(hash), domain.RoleAdmin)
	if err != nil {
		return err
	}
	s.log.WithField("account_id", acct.ID).Info("admin account seeded")
	return nil
}

func (s *AuthService) issue(acct *models.Account) (string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, acct.ID, acct.Mobile, acct.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, acct.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func randomReferralCode() (string, error) {
	size := big.NewInt(int64(len(referralAlphabet)))
	b := make([]byte, domain.ReferralCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b[i] = referralAlphabet[n.Int64()]
	}
	return string(b), nil
}
