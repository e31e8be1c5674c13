package service

import (
	"context"
	"testing"
	"time"

	"videoearn/internal/domain"
	"videoearn/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountService(env *testEnv) *AccountService {
	return NewAccountService(
		env.accounts,
		repository.NewEarningRepository(env.db),
		repository.NewTransactionRepository(env.db),
		repository.NewReferralRepository(env.db),
		env.ledger,
		"https://videoearn.test/",
	)
}

func TestDashboardVideoLock(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	svc := newAccountService(env)
	ctx := context.Background()
	rates, err := env.settings.Load(ctx)
	require.NoError(t, err)
	acct := env.newAccount(t, 0, false)

	d, err := svc.Dashboard(ctx, acct.ID, rates)
	require.NoError(t, err)
	assert.False(t, d.VideoLocked)
	assert.Equal(t, "2024-03-10", d.Today)

	_, err = env.ledger.CreditVideoWatch(ctx, acct.ID, "v1", rates.AmountPerVideo)
	require.NoError(t, err)
	d, err = svc.Dashboard(ctx, acct.ID, rates)
	require.NoError(t, err)
	assert.True(t, d.VideoLocked)
	assert.Equal(t, int64(500), d.EarnedTodayPaise)
	assert.Equal(t, int64(500), d.BalancePaise)

	env.clock.Set(env.clock.Now().Add(24 * time.Hour))
	d, err = svc.Dashboard(ctx, acct.ID, rates)
	require.NoError(t, err)
	assert.False(t, d.VideoLocked, "the lock lifts on the next business day")

	_, err = svc.Dashboard(ctx, 9999, rates)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestReferralInfo(t *testing.T) {
	env := newTestEnv(t, domain.RejectRefund)
	svc := newAccountService(env)
	ctx := context.Background()
	rates, err := env.settings.Load(ctx)
	require.NoError(t, err)

	referrer := env.newAccount(t, 0, false)
	for i := 0; i < 2; i++ {
		referred := env.newAccount(t, 0, false)
		_, err := env.ledger.GrantReferral(ctx, referrer.ID, referred.ID, rates.ReferralBonus)
		require.NoError(t, err)
	}

	info, err := svc.ReferralInfo(ctx, referrer.ID, rates)
	require.NoError(t, err)
	assert.Equal(t, referrer.ReferralCode, info.Code)
	assert.Equal(t, "https://videoearn.test/signup?ref="+referrer.ReferralCode, info.Link)
	assert.Equal(t, int64(2), info.ReferralCount)
	assert.Equal(t, int64(10000), info.TotalRewardsPaise)

	list, err := svc.Referrals(ctx, referrer.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotNil(t, list[0].Referred)
}
