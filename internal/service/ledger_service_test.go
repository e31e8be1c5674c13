package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"videoearn/internal/domain"
	"videoearn/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditVideoWatch_DailyCap(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 0, false)

	earning, err := env.ledger.CreditVideoWatch(ctx, acct.ID, "vid-1", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), earning.AmountPaise)
	assert.Equal(t, "2024-03-10", earning.EarnedOn)
	assert.Equal(t, int64(500), env.balance(t, acct.ID))

	_, err = env.ledger.CreditVideoWatch(ctx, acct.ID, "vid-2", 500)
	assert.ErrorIs(t, err, ErrDailyLimitReached)
	assert.Equal(t, int64(500), env.balance(t, acct.ID))
	assert.Equal(t, int64(1), env.count(t, &models.VideoEarning{}, "account_id = ?", acct.ID))

	// next business day
	env.clock.Set(env.clock.Now().Add(24 * time.Hour))
	_, err = env.ledger.CreditVideoWatch(ctx, acct.ID, "vid-3", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), env.balance(t, acct.ID))
}

func TestCreditVideoWatch_BusinessDayBoundary(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 0, false)

	// 18:29 UTC is 23:59 in India, 18:31 UTC is already the next day there.
	env.clock.Set(time.Date(2024, 3, 10, 18, 29, 0, 0, time.UTC))
	first, err := env.ledger.CreditVideoWatch(ctx, acct.ID, "vid-1", 500)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", first.EarnedOn)

	env.clock.Set(time.Date(2024, 3, 10, 18, 31, 0, 0, time.UTC))
	second, err := env.ledger.CreditVideoWatch(ctx, acct.ID, "vid-2", 500)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", second.EarnedOn)
}

func TestCreditVideoWatch_PremiumUncapped(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 0, true)

	for i := 1; i <= 5; i++ {
		_, err := env.ledger.CreditVideoWatch(ctx, acct.ID, "vid", 500)
		require.NoError(t, err)
		assert.Equal(t, int64(500*i), env.balance(t, acct.ID))
	}
}

func TestCreditVideoWatch_Validation(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 0, false)

	_, err := env.ledger.CreditVideoWatch(ctx, acct.ID, "  ", 500)
	assert.ErrorIs(t, err, ErrInvalidVideo)
	_, err = env.ledger.CreditVideoWatch(ctx, acct.ID, strings.Repeat("v", domain.MaxVideoRefLength+1), 500)
	assert.ErrorIs(t, err, ErrInvalidVideo)
	_, err = env.ledger.CreditVideoWatch(ctx, acct.ID, "vid", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = env.ledger.CreditVideoWatch(ctx, 9999, "vid", 500)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Empty(t, env.events.Events())
	assert.Zero(t, env.count(t, &models.VideoEarning{}, "account_id = ?", acct.ID))

	earning, err := env.ledger.CreditVideoWatch(ctx, acct.ID, strings.Repeat("v", domain.MaxVideoRefLength), 500)
	require.NoError(t, err)
	assert.Len(t, earning.VideoRef, domain.MaxVideoRefLength)
}

func TestCreditVideoWatch_ConcurrentSameDay(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 0, false)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		limited   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.CreditVideoWatch(ctx, acct.ID, "vid", 500)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDailyLimitReached):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, limited)
	assert.Equal(t, int64(500), env.balance(t, acct.ID))
}

func TestCreditDeposit(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 0, false)

	txn, err := env.ledger.CreditDeposit(ctx, acct.ID, 25000, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeDeposit, txn.Type)
	assert.Equal(t, domain.TxStatusCompleted, txn.Status)
	require.NotNil(t, txn.PaymentRef)
	assert.Equal(t, "pay_1", *txn.PaymentRef)
	assert.Equal(t, int64(25000), env.balance(t, acct.ID))

	_, err = env.ledger.CreditDeposit(ctx, acct.ID, 25000, "pay_1")
	assert.ErrorIs(t, err, ErrDuplicatePayment)
	assert.Equal(t, int64(25000), env.balance(t, acct.ID))

	_, err = env.ledger.CreditDeposit(ctx, acct.ID, -1, "pay_2")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = env.ledger.CreditDeposit(ctx, acct.ID, 100, "")
	assert.ErrorIs(t, err, ErrPaymentUnverified)
	_, err = env.ledger.CreditDeposit(ctx, 9999, 100, "pay_3")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestPurchasePremium(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 1000, false)

	txn, err := env.ledger.PurchasePremium(ctx, acct.ID, 19900, "pay_prem")
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypePremium, txn.Type)

	got, err := env.accounts.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPremium)
	assert.NotNil(t, got.PremiumSince)
	assert.Equal(t, int64(1000), got.BalancePaise, "the fee does not credit the balance")

	_, err = env.ledger.PurchasePremium(ctx, acct.ID, 19900, "pay_prem")
	assert.ErrorIs(t, err, ErrDuplicatePayment)
	_, err = env.ledger.PurchasePremium(ctx, acct.ID, 19900, "pay_prem_2")
	assert.ErrorIs(t, err, ErrAlreadyPremium)
	assert.Equal(t, int64(1), env.count(t, &models.Transaction{}, "account_id = ? AND type = ?", acct.ID, domain.TxTypePremium))
}

func TestRequestWithdrawal(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()

	t.Run("insufficient balance", func(t *testing.T) {
		acct := env.newAccount(t, 10000, false)
		_, err := env.ledger.RequestWithdrawal(ctx, acct.ID, 15000, validBank(), 10000)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, int64(10000), env.balance(t, acct.ID))
		assert.Zero(t, env.count(t, &models.Transaction{}, "account_id = ?", acct.ID))
	})

	t.Run("reserves funds", func(t *testing.T) {
		acct := env.newAccount(t, 20000, false)
		txn, err := env.ledger.RequestWithdrawal(ctx, acct.ID, 15000, validBank(), 10000)
		require.NoError(t, err)
		assert.Equal(t, domain.TxStatusPending, txn.Status)
		assert.Equal(t, int64(15000), txn.AmountPaise)
		assert.Equal(t, "HDFC0001234", txn.BankIFSC)
		assert.Equal(t, int64(5000), env.balance(t, acct.ID))
	})

	t.Run("exact balance", func(t *testing.T) {
		acct := env.newAccount(t, 10000, false)
		_, err := env.ledger.RequestWithdrawal(ctx, acct.ID, 10000, validBank(), 10000)
		require.NoError(t, err)
		assert.Zero(t, env.balance(t, acct.ID))
	})

	t.Run("validation before storage", func(t *testing.T) {
		acct := env.newAccount(t, 50000, false)
		_, err := env.ledger.RequestWithdrawal(ctx, acct.ID, 0, validBank(), 10000)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = env.ledger.RequestWithdrawal(ctx, acct.ID, 5000, validBank(), 10000)
		assert.ErrorIs(t, err, ErrBelowMinimumWithdrawal)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		for name, mutate := range map[string]func(*BankDetails){
			"no name":      func(b *BankDetails) { b.AccountName = " " },
			"no number":    func(b *BankDetails) { b.AccountNumber = "" },
			"alpha number": func(b *BankDetails) { b.AccountNumber = "12AB5678" },
			"no ifsc":      func(b *BankDetails) { b.IFSC = "" },
			"bad ifsc":     func(b *BankDetails) { b.IFSC = "HDFC1234567" },
		} {
			bank := validBank()
			mutate(&bank)
			_, err := env.ledger.RequestWithdrawal(ctx, acct.ID, 20000, bank, 10000)
			assert.ErrorIs(t, err, ErrInvalidBankDetails, name)
		}
		assert.Equal(t, int64(50000), env.balance(t, acct.ID))
	})

	t.Run("lowercase ifsc accepted", func(t *testing.T) {
		acct := env.newAccount(t, 50000, false)
		bank := validBank()
		bank.IFSC = " sbin0000001 "
		txn, err := env.ledger.RequestWithdrawal(ctx, acct.ID, 20000, bank, 10000)
		require.NoError(t, err)
		assert.Equal(t, "SBIN0000001", txn.BankIFSC)
	})
}

func TestResolveWithdrawal_RefundPolicy(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	admin := env.newAccount(t, 0, false)
	acct := env.newAccount(t, 20000, false)

	first, err := env.ledger.RequestWithdrawal(ctx, acct.ID, 15000, validBank(), 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), env.balance(t, acct.ID))

	approved, err := env.ledger.ResolveWithdrawal(ctx, first.ID, domain.TxStatusApproved, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusApproved, approved.Status)
	require.NotNil(t, approved.ResolvedBy)
	assert.Equal(t, admin.ID, *approved.ResolvedBy)
	assert.Equal(t, int64(5000), env.balance(t, acct.ID))

	_, err = env.ledger.CreditDeposit(ctx, acct.ID, 5000, "pay_top_up")
	require.NoError(t, err)
	second, err := env.ledger.RequestWithdrawal(ctx, acct.ID, 3000, validBank(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), env.balance(t, acct.ID))

	rejected, err := env.ledger.ResolveWithdrawal(ctx, second.ID, domain.TxStatusRejected, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusRejected, rejected.Status)
	assert.Equal(t, int64(10000), env.balance(t, acct.ID), "rejected withdrawal is refunded")

	_, err = env.ledger.ResolveWithdrawal(ctx, second.ID, domain.TxStatusApproved, admin.ID)
	assert.ErrorIs(t, err, ErrNotPending)
	assert.Equal(t, int64(10000), env.balance(t, acct.ID))

	notes, err := env.notifs.List(ctx, acct.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, domain.NotifWithdrawalRejected, notes[0].Type)
}

func TestResolveWithdrawal_ForfeitPolicy(t *testing.T) {
	env := newTestEnv(t, domain.RejectForfeit)
	ctx := context.Background()
	acct := env.newAccount(t, 20000, false)

	txn, err := env.ledger.RequestWithdrawal(ctx, acct.ID, 3000, validBank(), 0)
	require.NoError(t, err)
	_, err = env.ledger.ResolveWithdrawal(ctx, txn.ID, domain.TxStatusRejected, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(17000), env.balance(t, acct.ID))
}

func TestResolveWithdrawal_Errors(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 0, false)

	_, err := env.ledger.ResolveWithdrawal(ctx, 12345, domain.TxStatusApproved, 1)
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = env.ledger.ResolveWithdrawal(ctx, 1, "maybe", 1)
	assert.ErrorIs(t, err, ErrInvalidDecision)

	dep, err := env.ledger.CreditDeposit(ctx, acct.ID, 100, "pay_x")
	require.NoError(t, err)
	_, err = env.ledger.ResolveWithdrawal(ctx, dep.ID, domain.TxStatusApproved, 1)
	assert.ErrorIs(t, err, ErrTransactionNotFound, "deposits cannot be resolved")
}

func TestGrantReferral(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	referrer := env.newAccount(t, 0, false)
	referred := env.newAccount(t, 0, false)

	ref, err := env.ledger.GrantReferral(ctx, referrer.ID, referred.ID, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), ref.RewardPaise)
	assert.Equal(t, int64(5000), env.balance(t, referrer.ID))

	_, err = env.ledger.GrantReferral(ctx, referrer.ID, referred.ID, 5000)
	assert.ErrorIs(t, err, ErrAlreadyReferred)

	other := env.newAccount(t, 0, false)
	_, err = env.ledger.GrantReferral(ctx, other.ID, referred.ID, 5000)
	assert.ErrorIs(t, err, ErrAlreadyReferred, "an account is referred at most once")
	assert.Equal(t, int64(5000), env.balance(t, referrer.ID))
	assert.Zero(t, env.balance(t, other.ID))

	_, err = env.ledger.GrantReferral(ctx, 9999, other.ID, 5000)
	assert.ErrorIs(t, err, ErrReferrerNotFound)
	_, err = env.ledger.GrantReferral(ctx, other.ID, other.ID, 5000)
	assert.ErrorIs(t, err, ErrSelfReferral)
	_, err = env.ledger.GrantReferral(ctx, referrer.ID, other.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestGrantReferral_Concurrent(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	referrer := env.newAccount(t, 0, false)
	referred := env.newAccount(t, 0, false)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.GrantReferral(ctx, referrer.ID, referred.ID, 5000)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyReferred)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, int64(5000), env.balance(t, referrer.ID))
}

func TestLedgerEventsAndMetrics(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 0, false)

	_, err := env.ledger.CreditVideoWatch(ctx, acct.ID, "vid-1", 500)
	require.NoError(t, err)
	_, err = env.ledger.CreditVideoWatch(ctx, acct.ID, "vid-2", 500)
	require.ErrorIs(t, err, ErrDailyLimitReached)

	evts := env.events.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, domain.EventVideoCredited, evts[0].Type)
	assert.Equal(t, "ledger.video_credited", evts[0].RoutingKey())
	assert.Equal(t, int64(500), evts[0].BalancePaise)
	assert.Equal(t, "vid-1", evts[0].Reference)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LedgerOps.WithLabelValues("credit_video_watch", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LedgerOps.WithLabelValues("credit_video_watch", "daily_limit_reached")))
}

func TestBackendFailureIsClassified(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	ctx := context.Background()
	acct := env.newAccount(t, 0, false)

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = env.ledger.Balance(ctx, acct.ID)
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	_, err = env.ledger.CreditVideoWatch(ctx, acct.ID, "vid", 500)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LedgerOps.WithLabelValues("credit_video_watch", "backend_unavailable")))
}

// Runs a mixed sequence: earn, deposit, withdraw, approve, reject,
// referral. The balance must always equal the ledger projection.
func TestBalanceMatchesProjection(t *testing.T) {
	for _, policy := range []domain.WithdrawalRejectPolicy{domain.RejectRefund, domain.RejectForfeit} {
		t.Run(string(policy), func(t *testing.T) {
			env := newTestEnv(t, policy)
			ctx := context.Background()
			rec := NewReconcileService(env.db, policy, 2, env.metrics, env.log)

			a := env.newAccount(t, 0, false)
			b := env.newAccount(t, 0, false)

			_, err := env.ledger.CreditVideoWatch(ctx, a.ID, "v", 500)
			require.NoError(t, err)
			_, err = env.ledger.CreditDeposit(ctx, a.ID, 20000, "pay_a")
			require.NoError(t, err)
			_, err = env.ledger.GrantReferral(ctx, a.ID, b.ID, 5000)
			require.NoError(t, err)
			w1, err := env.ledger.RequestWithdrawal(ctx, a.ID, 15000, validBank(), 10000)
			require.NoError(t, err)
			_, err = env.ledger.ResolveWithdrawal(ctx, w1.ID, domain.TxStatusApproved, 1)
			require.NoError(t, err)
			w2, err := env.ledger.RequestWithdrawal(ctx, a.ID, 3000, validBank(), 0)
			require.NoError(t, err)
			_, err = env.ledger.ResolveWithdrawal(ctx, w2.ID, domain.TxStatusRejected, 1)
			require.NoError(t, err)
			_, err = env.ledger.RequestWithdrawal(ctx, a.ID, 1000, validBank(), 0)
			require.NoError(t, err)
			_, err = env.ledger.PurchasePremium(ctx, b.ID, 19900, "pay_b")
			require.NoError(t, err)

			report, err := rec.Account(ctx, a.ID)
			require.NoError(t, err)
			assert.True(t, report.Consistent, "%+v", report)

			want := int64(500 + 20000 + 5000 - 15000 - 1000)
			if policy == domain.RejectForfeit {
				want -= 3000
			}
			assert.Equal(t, want, env.balance(t, a.ID))

			sum, err := rec.All(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, sum.Checked)
			assert.Zero(t, sum.Drifted)
		})
	}
}
