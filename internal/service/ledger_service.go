package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"videoearn/internal/domain"
	"videoearn/internal/events"
	"videoearn/internal/metrics"
	"videoearn/internal/models"
	"videoearn/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const dayLayout = "2006-01-02"

var ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

// BankDetails is where an approved withdrawal is paid out.
type BankDetails struct {
	AccountName   string `json:"account_name" validate:"required,max=128"`
	AccountNumber string `json:"account_number" validate:"required,numeric,min=6,max=34"`
	IFSC          string `json:"ifsc" validate:"required,ifsc"`
	BankName      string `json:"bank_name" validate:"max=128"`
}

func (b BankDetails) normalized() BankDetails {
	return BankDetails{
		AccountName:   strings.TrimSpace(b.AccountName),
		AccountNumber: strings.TrimSpace(b.AccountNumber),
		IFSC:          strings.ToUpper(strings.TrimSpace(b.IFSC)),
		BankName:      strings.TrimSpace(b.BankName),
	}
}

var bankValidator = newBankValidator()

func newBankValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
		return ifscPattern.MatchString(fl.Field().String())
	})
	return v
}

// Notifier receives user-facing notices after a ledger operation commits.
type Notifier interface {
	Notify(ctx context.Context, accountID uint, notifType, title, body string, data map[string]interface{}) error
}

type LedgerOptions struct {
	// Location is the business time zone the daily video cap is counted in.
	Location     *time.Location
	RejectPolicy domain.WithdrawalRejectPolicy
	Publisher    events.Publisher
	Metrics      *metrics.Metrics
	Notifier     Notifier
	Now          func() time.Time
}

// LedgerService is the only code path that changes an account balance. Each
// operation locks the account row, checks its preconditions, then writes the
// justifying record and the balance change in one transaction.
type LedgerService struct {
	db        *gorm.DB
	log       *logrus.Logger
	loc       *time.Location
	policy    domain.WithdrawalRejectPolicy
	publisher events.Publisher
	metrics   *metrics.Metrics
	notifier  Notifier
	now       func() time.Time
}

func NewLedgerService(db *gorm.DB, log *logrus.Logger, opts LedgerOptions) *LedgerService {
	s := &LedgerService{
		db:        db,
		log:       log,
		loc:       opts.Location,
		policy:    opts.RejectPolicy,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		notifier:  opts.Notifier,
		now:       opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.policy == "" {
		s.policy = domain.RejectRefund
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Location is the business time zone days are counted in.
func (s *LedgerService) Location() *time.Location { return s.loc }

// RejectPolicy reports what a rejected withdrawal does with reserved funds.
func (s *LedgerService) RejectPolicy() domain.WithdrawalRejectPolicy { return s.policy }

// BusinessDay returns the YYYY-MM-DD day t falls on in the business time zone.
func (s *LedgerService) BusinessDay(t time.Time) string {
	return t.In(s.loc).Format(dayLayout)
}

// Today is the current business day.
func (s *LedgerService) Today() string {
	return s.BusinessDay(s.now())
}

// CreditVideoWatch pays amount for a completed video. Accounts that are not
// premium earn at most once per business day.
func (s *LedgerService) CreditVideoWatch(ctx context.Context, accountID uint, videoRef string, amount int64) (*models.VideoEarning, error) {
	const op = "credit_video_watch"
	started := time.Now()

	videoRef = strings.TrimSpace(videoRef)
	var (
		earning *models.VideoEarning
		balance int64
		err     error
	)
	switch {
	case videoRef == "" || len(videoRef) > domain.MaxVideoRefLength:
		err = ErrInvalidVideo
	case amount <= 0:
		err = ErrInvalidAmount
	default:
		now := s.now()
		earning = &models.VideoEarning{
			AccountID:   accountID,
			VideoRef:    videoRef,
			AmountPaise: amount,
			EarnedOn:    s.BusinessDay(now),
			EarnedAt:    now.UTC(),
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			accounts := repository.NewAccountRepository(tx)
			earnings := repository.NewEarningRepository(tx)

			acct, err := accounts.GetForUpdate(ctx, accountID)
			if err != nil {
				return orNotFound(err, ErrAccountNotFound)
			}
			if !acct.IsPremium {
				n, err := earnings.CountOnDay(ctx, accountID, earning.EarnedOn)
				if err != nil {
					return err
				}
				if n > 0 {
					return ErrDailyLimitReached
				}
			}
			if err := earnings.Create(ctx, earning); err != nil {
				return err
			}
			if err := accounts.AddBalance(ctx, accountID, amount); err != nil {
				return err
			}
			balance = acct.BalancePaise + amount
			return nil
		})
	}
	err = s.finish(ctx, op, started, err, events.LedgerEvent{
		Type:         domain.EventVideoCredited,
		AccountID:    accountID,
		AmountPaise:  amount,
		BalancePaise: balance,
		Reference:    videoRef,
	})
	if err != nil {
		return nil, err
	}
	return earning, nil
}

// CreditDeposit records a completed deposit for a verified external payment.
func (s *LedgerService) CreditDeposit(ctx context.Context, accountID uint, amount int64, paymentRef string) (*models.Transaction, error) {
	const op = "credit_deposit"
	started := time.Now()

	var (
		txn     *models.Transaction
		balance int64
		err     error
	)
	paymentRef = strings.TrimSpace(paymentRef)
	switch {
	case amount <= 0:
		err = ErrInvalidAmount
	case paymentRef == "":
		err = ErrPaymentUnverified
	default:
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			accounts := repository.NewAccountRepository(tx)
			txns := repository.NewTransactionRepository(tx)

			acct, err := accounts.GetForUpdate(ctx, accountID)
			if err != nil {
				return orNotFound(err, ErrAccountNotFound)
			}
			if err := ensureUnusedPaymentRef(ctx, txns, paymentRef); err != nil {
				return err
			}
			txn = &models.Transaction{
				AccountID:   accountID,
				Type:        domain.TxTypeDeposit,
				AmountPaise: amount,
				Status:      domain.TxStatusCompleted,
				PaymentRef:  &paymentRef,
			}
			if err := txns.Create(ctx, txn); err != nil {
				return duplicatePayment(err)
			}
			if err := accounts.AddBalance(ctx, accountID, amount); err != nil {
				return err
			}
			balance = acct.BalancePaise + amount
			return nil
		})
	}
	err = s.finish(ctx, op, started, err, events.LedgerEvent{
		Type:         domain.EventDepositCredited,
		AccountID:    accountID,
		AmountPaise:  amount,
		BalancePaise: balance,
		Reference:    paymentRef,
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// PurchasePremium records the membership fee and flags the account premium.
// The fee buys the membership and is not added to the balance.
func (s *LedgerService) PurchasePremium(ctx context.Context, accountID uint, fee int64, paymentRef string) (*models.Transaction, error) {
	const op = "purchase_premium"
	started := time.Now()

	var (
		txn     *models.Transaction
		balance int64
		err     error
	)
	paymentRef = strings.TrimSpace(paymentRef)
	switch {
	case fee <= 0:
		err = ErrInvalidAmount
	case paymentRef == "":
		err = ErrPaymentUnverified
	default:
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			accounts := repository.NewAccountRepository(tx)
			txns := repository.NewTransactionRepository(tx)

			acct, err := accounts.GetForUpdate(ctx, accountID)
			if err != nil {
				return orNotFound(err, ErrAccountNotFound)
			}
			if err := ensureUnusedPaymentRef(ctx, txns, paymentRef); err != nil {
				return err
			}
			if acct.IsPremium {
				return ErrAlreadyPremium
			}
			txn = &models.Transaction{
				AccountID:   accountID,
				Type:        domain.TxTypePremium,
				AmountPaise: fee,
				Status:      domain.TxStatusCompleted,
				PaymentRef:  &paymentRef,
			}
			if err := txns.Create(ctx, txn); err != nil {
				return duplicatePayment(err)
			}
			if err := accounts.SetPremium(ctx, accountID, s.now().UTC()); err != nil {
				return err
			}
			balance = acct.BalancePaise
			return nil
		})
	}
	err = s.finish(ctx, op, started, err, events.LedgerEvent{
		Type:         domain.EventPremiumPurchased,
		AccountID:    accountID,
		AmountPaise:  fee,
		BalancePaise: balance,
		Reference:    paymentRef,
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// RequestWithdrawal reserves amount from the balance and queues a pending
// payout for an admin to resolve. minAmount is the configured minimum.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, accountID uint, amount int64, bank BankDetails, minAmount int64) (*models.Transaction, error) {
	const op = "request_withdrawal"
	started := time.Now()

	var (
		txn     *models.Transaction
		balance int64
		err     error
	)
	bank = bank.normalized()
	switch {
	case amount <= 0:
		err = ErrInvalidAmount
	case amount < minAmount:
		err = ErrBelowMinimumWithdrawal
	case bankValidator.Struct(bank) != nil:
		err = ErrInvalidBankDetails
	default:
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			accounts := repository.NewAccountRepository(tx)
			txns := repository.NewTransactionRepository(tx)

			acct, err := accounts.GetForUpdate(ctx, accountID)
			if err != nil {
				return orNotFound(err, ErrAccountNotFound)
			}
			if amount > acct.BalancePaise {
				return ErrInsufficientBalance
			}
			txn = &models.Transaction{
				AccountID:         accountID,
				Type:              domain.TxTypeWithdrawal,
				AmountPaise:       amount,
				Status:            domain.TxStatusPending,
				BankAccountName:   bank.AccountName,
				BankAccountNumber: bank.AccountNumber,
				BankIFSC:          bank.IFSC,
				BankName:          bank.BankName,
			}
			if err := txns.Create(ctx, txn); err != nil {
				return err
			}
			if err := accounts.DeductBalance(ctx, accountID, amount); err != nil {
				if errors.Is(err, repository.ErrInsufficientBalance) {
					return ErrInsufficientBalance
				}
				return err
			}
			balance = acct.BalancePaise - amount
			return nil
		})
	}
	ref := ""
	if txn != nil {
		ref = strconv.FormatUint(uint64(txn.ID), 10)
	}
	err = s.finish(ctx, op, started, err, events.LedgerEvent{
		Type:         domain.EventWithdrawalRequested,
		AccountID:    accountID,
		AmountPaise:  amount,
		BalancePaise: balance,
		Reference:    ref,
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ResolveWithdrawal moves a pending withdrawal to approved or rejected. A
// rejection under the refund policy returns the reserved amount.
func (s *LedgerService) ResolveWithdrawal(ctx context.Context, transactionID uint, decision string, adminID uint) (*models.Transaction, error) {
	const op = "resolve_withdrawal"
	started := time.Now()

	var (
		txn     *models.Transaction
		balance int64
		err     error
	)
	if decision != domain.TxStatusApproved && decision != domain.TxStatusRejected {
		err = ErrInvalidDecision
	} else {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			accounts := repository.NewAccountRepository(tx)
			txns := repository.NewTransactionRepository(tx)

			t, err := txns.GetForUpdate(ctx, transactionID)
			if err != nil {
				return orNotFound(err, ErrTransactionNotFound)
			}
			if t.Type != domain.TxTypeWithdrawal {
				return ErrTransactionNotFound
			}
			if t.Status != domain.TxStatusPending {
				return ErrNotPending
			}
			acct, err := accounts.GetForUpdate(ctx, t.AccountID)
			if err != nil {
				return orNotFound(err, ErrAccountNotFound)
			}
			resolvedAt := s.now().UTC()
			t.Status = decision
			t.ResolvedAt = &resolvedAt
			t.ResolvedBy = &adminID
			if err := txns.Update(ctx, t); err != nil {
				return err
			}
			balance = acct.BalancePaise
			if decision == domain.TxStatusRejected && s.policy == domain.RejectRefund {
				if err := accounts.AddBalance(ctx, t.AccountID, t.AmountPaise); err != nil {
					return err
				}
				balance += t.AmountPaise
			}
			txn = t
			return nil
		})
	}

	evt := events.LedgerEvent{
		Type:         domain.EventWithdrawalApproved,
		BalancePaise: balance,
		Reference:    strconv.FormatUint(uint64(transactionID), 10),
	}
	if decision == domain.TxStatusRejected {
		evt.Type = domain.EventWithdrawalRejected
	}
	if txn != nil {
		evt.AccountID = txn.AccountID
		evt.AmountPaise = txn.AmountPaise
	}
	err = s.finish(ctx, op, started, err, evt)
	if err != nil {
		return nil, err
	}
	s.notifyResolution(ctx, txn)
	return txn, nil
}

// GrantReferral pays the referrer for bringing in referredID. An account can
// be referred at most once.
func (s *LedgerService) GrantReferral(ctx context.Context, referrerID, referredID uint, reward int64) (*models.Referral, error) {
	const op = "grant_referral"
	started := time.Now()

	var (
		ref     *models.Referral
		balance int64
		err     error
	)
	switch {
	case reward < 0:
		err = ErrInvalidAmount
	case referrerID == referredID:
		err = ErrSelfReferral
	default:
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			accounts := repository.NewAccountRepository(tx)
			referrals := repository.NewReferralRepository(tx)

			referrer, err := accounts.GetForUpdate(ctx, referrerID)
			if err != nil {
				return orNotFound(err, ErrReferrerNotFound)
			}
			if _, err := accounts.GetByID(ctx, referredID); err != nil {
				return orNotFound(err, ErrAccountNotFound)
			}
			_, err = referrals.GetByReferredID(ctx, referredID)
			switch {
			case err == nil:
				return ErrAlreadyReferred
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
			ref = &models.Referral{
				ReferrerID:  referrerID,
				ReferredID:  referredID,
				RewardPaise: reward,
			}
			if err := referrals.Create(ctx, ref); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrAlreadyReferred
				}
				return err
			}
			if reward > 0 {
				if err := accounts.AddBalance(ctx, referrerID, reward); err != nil {
					return err
				}
			}
			balance = referrer.BalancePaise + reward
			return nil
		})
	}
	err = s.finish(ctx, op, started, err, events.LedgerEvent{
		Type:         domain.EventReferralGranted,
		AccountID:    referrerID,
		AmountPaise:  reward,
		BalancePaise: balance,
		Reference:    strconv.FormatUint(uint64(referredID), 10),
	})
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if nerr := s.notifier.Notify(ctx, referrerID, domain.NotifReferralBonus, "Referral bonus",
			"A friend joined with your code. Your bonus has been added.",
			map[string]interface{}{"reward_paise": reward, "referred_id": referredID}); nerr != nil {
			s.log.WithError(nerr).WithField("account_id", referrerID).Warn("referral notification failed")
		}
	}
	return ref, nil
}

// Balance re-reads the stored balance.
func (s *LedgerService) Balance(ctx context.Context, accountID uint) (int64, error) {
	acct, err := repository.NewAccountRepository(s.db).GetByID(ctx, accountID)
	if err != nil {
		return 0, classify(orNotFound(err, ErrAccountNotFound))
	}
	return acct.BalancePaise, nil
}

// finish classifies err, records metrics and, on success, publishes evt.
func (s *LedgerService) finish(ctx context.Context, op string, started time.Time, err error, evt events.LedgerEvent) error {
	err = classify(err)
	s.metrics.ObserveLedger(op, resultLabel(err), started)

	fields := logrus.Fields{"op": op, "account_id": evt.AccountID, "amount_paise": evt.AmountPaise}
	if err != nil {
		entry := s.log.WithFields(fields).WithError(err)
		if errors.Is(err, ErrBackendUnavailable) {
			entry.Error("ledger operation failed")
		} else {
			entry.Info("ledger operation rejected")
		}
		return err
	}

	s.log.WithFields(fields).WithField("balance_paise", evt.BalancePaise).Info("ledger operation committed")
	evt.OccurredAt = s.now().UTC()
	if perr := s.publisher.Publish(ctx, evt); perr != nil {
		s.log.WithFields(fields).WithError(perr).Warn("failed to publish ledger event")
	}
	return nil
}

func (s *LedgerService) notifyResolution(ctx context.Context, t *models.Transaction) {
	if s.notifier == nil || t == nil {
		return
	}
	notifType, title, body := domain.NotifWithdrawalApproved, "Withdrawal approved",
		"Your withdrawal has been approved and will be paid to your bank account."
	if t.Status == domain.TxStatusRejected {
		notifType, title = domain.NotifWithdrawalRejected, "Withdrawal rejected"
		body = "Your withdrawal was rejected."
		if s.policy == domain.RejectRefund {
			body = "Your withdrawal was rejected and the amount has been returned to your balance."
		}
	}
	data := map[string]interface{}{"transaction_id": t.ID, "amount_paise": t.AmountPaise}
	if err := s.notifier.Notify(ctx, t.AccountID, notifType, title, body, data); err != nil {
		s.log.WithError(err).WithField("transaction_id", t.ID).Warn("withdrawal notification failed")
	}
}

func ensureUnusedPaymentRef(ctx context.Context, txns *repository.TransactionRepository, ref string) error {
	_, err := txns.GetByPaymentRef(ctx, ref)
	switch {
	case err == nil:
		return ErrDuplicatePayment
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}

func duplicatePayment(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicatePayment
	}
	return err
}
