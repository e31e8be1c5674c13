package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Ledger failures. Callers match them with errors.Is.
var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrDailyLimitReached       = errors.New("daily video limit reached")
	ErrAlreadyReferred         = errors.New("account already referred")
	ErrReferrerNotFound        = errors.New("referrer not found")
	ErrSelfReferral            = errors.New("account cannot refer itself")
	ErrInvalidBankDetails      = errors.New("invalid bank details")
	ErrNotPending              = errors.New("withdrawal is not pending")
	ErrInvalidDecision         = errors.New("decision must be approved or rejected")
	ErrTransactionNotFound     = errors.New("withdrawal not found")
	ErrPaymentUnverified       = errors.New("payment could not be verified")
	ErrDuplicatePayment        = errors.New("payment already applied")
	ErrAlreadyPremium          = errors.New("account is already premium")
	ErrInvalidVideo            = errors.New("video reference required")
	ErrBackendUnavailable      = errors.New("backend unavailable")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique referral code")

	ErrBelowMinimumWithdrawal = fmt.Errorf("%w: below minimum withdrawal", ErrInvalidAmount)
)

// domainErrors are the failures callers are expected to handle. Anything else
// reaching classify is a storage or provider fault.
var domainErrors = []error{
	ErrAccountNotFound,
	ErrInvalidAmount,
	ErrInsufficientBalance,
	ErrDailyLimitReached,
	ErrAlreadyReferred,
	ErrReferrerNotFound,
	ErrSelfReferral,
	ErrInvalidBankDetails,
	ErrNotPending,
	ErrInvalidDecision,
	ErrTransactionNotFound,
	ErrPaymentUnverified,
	ErrDuplicatePayment,
	ErrAlreadyPremium,
	ErrInvalidVideo,
	ErrCodeGenerationExhausted,
	ErrBackendUnavailable,
	ErrInvalidSetting,
	ErrMobileExists,
	ErrInvalidMobile,
	ErrInvalidCreds,
	ErrWeakPassword,
	ErrAccountMissing,
	ErrOrderNotFound,
	ErrInvalidPurpose,
}

// classify passes domain failures through and wraps anything else, which can
// only come from storage, as ErrBackendUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}

// resultLabel is the metrics label for an operation outcome.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBackendUnavailable):
		return "backend_unavailable"
	case errors.Is(err, ErrDailyLimitReached):
		return "daily_limit_reached"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrAlreadyReferred):
		return "already_referred"
	case errors.Is(err, ErrDuplicatePayment):
		return "duplicate_payment"
	case errors.Is(err, ErrNotPending):
		return "not_pending"
	default:
		return "rejected"
	}
}

// orNotFound maps gorm's missing-row error to the given domain error.
func orNotFound(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
