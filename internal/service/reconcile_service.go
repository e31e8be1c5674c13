package service

import (
	"context"
	"time"

	"videoearn/internal/domain"
	"videoearn/internal/metrics"
	"videoearn/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReconcileReport compares an account's stored balance with the sum of the
// records that justify it.
type ReconcileReport struct {
	AccountID        uint  `json:"account_id"`
	BalancePaise     int64 `json:"balance_paise"`
	ExpectedPaise    int64 `json:"expected_paise"`
	DriftPaise       int64 `json:"drift_paise"`
	EarningsPaise    int64 `json:"earnings_paise"`
	DepositsPaise    int64 `json:"deposits_paise"`
	ReferralsPaise   int64 `json:"referrals_paise"`
	WithdrawalsPaise int64 `json:"withdrawals_paise"`
	Consistent       bool  `json:"consistent"`
}

type ReconcileSummary struct {
	Checked    int           `json:"checked"`
	Drifted    int           `json:"drifted"`
	DriftedIDs []uint        `json:"drifted_ids"`
	Took       time.Duration `json:"took"`
}

// ReconcileService reports balance drift. It never corrects balances.
type ReconcileService struct {
	db        *gorm.DB
	policy    domain.WithdrawalRejectPolicy
	batchSize int
	metrics   *metrics.Metrics
	log       *logrus.Logger
}

func NewReconcileService(db *gorm.DB, policy domain.WithdrawalRejectPolicy, batchSize int, m *metrics.Metrics, log *logrus.Logger) *ReconcileService {
	if batchSize <= 0 {
		batchSize = 200
	}
	if policy == "" {
		policy = domain.RejectRefund
	}
	return &ReconcileService{db: db, policy: policy, batchSize: batchSize, metrics: m, log: log}
}

// heldStatuses are the withdrawal statuses whose amount stays out of the
// balance under the configured reject policy.
func (s *ReconcileService) heldStatuses() []string {
	if s.policy == domain.RejectForfeit {
		return []string{domain.TxStatusPending, domain.TxStatusApproved, domain.TxStatusRejected}
	}
	return []string{domain.TxStatusPending, domain.TxStatusApproved}
}

func (s *ReconcileService) Account(ctx context.Context, accountID uint) (*ReconcileReport, error) {
	var r *ReconcileReport
	// One read transaction so the balance and the sums see the same rows.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := repository.NewAccountRepository(tx).GetByID(ctx, accountID)
		if err != nil {
			return orNotFound(err, ErrAccountNotFound)
		}
		txns := repository.NewTransactionRepository(tx)
		r = &ReconcileReport{AccountID: accountID, BalancePaise: acct.BalancePaise}

		if r.EarningsPaise, err = repository.NewEarningRepository(tx).SumByAccount(ctx, accountID); err != nil {
			return err
		}
		if r.DepositsPaise, err = txns.SumByAccount(ctx, accountID, domain.TxTypeDeposit, domain.TxStatusCompleted); err != nil {
			return err
		}
		if r.ReferralsPaise, err = repository.NewReferralRepository(tx).SumRewards(ctx, accountID); err != nil {
			return err
		}
		if r.WithdrawalsPaise, err = txns.SumByAccount(ctx, accountID, domain.TxTypeWithdrawal, s.heldStatuses()...); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	r.ExpectedPaise = r.EarningsPaise + r.DepositsPaise + r.ReferralsPaise - r.WithdrawalsPaise
	r.DriftPaise = r.BalancePaise - r.ExpectedPaise
	r.Consistent = r.DriftPaise == 0
	return r, nil
}

// All walks every account in id order and reports the ones that drifted.
func (s *ReconcileService) All(ctx context.Context) (*ReconcileSummary, error) {
	started := time.Now()
	sum := &ReconcileSummary{DriftedIDs: []uint{}}
	accounts := repository.NewAccountRepository(s.db)

	var after uint
	for {
		ids, err := accounts.ListIDs(ctx, after, s.batchSize)
		if err != nil {
			return nil, classify(err)
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := s.Account(ctx, id)
			if err != nil {
				return nil, err
			}
			sum.Checked++
			if !r.Consistent {
				sum.Drifted++
				sum.DriftedIDs = append(sum.DriftedIDs, id)
				s.log.WithFields(logrus.Fields{
					"account_id":     id,
					"balance_paise":  r.BalancePaise,
					"expected_paise": r.ExpectedPaise,
					"drift_paise":    r.DriftPaise,
				}).Warn("balance drift detected")
			}
		}
		after = ids[len(ids)-1]
	}

	sum.Took = time.Since(started)
	if s.metrics != nil {
		s.metrics.DriftAccounts.Set(float64(sum.Drifted))
	}
	s.log.WithFields(logrus.Fields{"checked": sum.Checked, "drifted": sum.Drifted, "took_ms": sum.Took.Milliseconds()}).Info("reconciliation finished")
	return sum, nil
}
