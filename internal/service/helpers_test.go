package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"videoearn/config"
	"videoearn/internal/database"
	"videoearn/internal/domain"
	"videoearn/internal/events"
	"videoearn/internal/metrics"
	"videoearn/internal/models"
	"videoearn/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var ist = mustLoad("Asia/Kolkata")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type testEnv struct {
	db       *gorm.DB
	log      *logrus.Logger
	clock    *fakeClock
	events   *events.Recorder
	metrics  *metrics.Metrics
	notifs   *NotificationService
	ledger   *LedgerService
	settings *SettingsService
	accounts *repository.AccountRepository
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestDB opens a private in-memory SQLite database. A single connection
// makes concurrent transactions run one after another.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open("file::memory:"), &config.DatabaseConfig{MaxIdleConns: 1, MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T, policy domain.WithdrawalRejectPolicy) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:       db,
		log:      quietLogger(),
		clock:    &fakeClock{t: time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)},
		events:   &events.Recorder{},
		metrics:  metrics.New(prometheus.NewRegistry()),
		accounts: repository.NewAccountRepository(db),
	}
	env.notifs = NewNotificationService(repository.NewNotificationRepository(db))
	env.ledger = NewLedgerService(db, env.log, LedgerOptions{
		Location:     ist,
		RejectPolicy: policy,
		Publisher:    env.events,
		Metrics:      env.metrics,
		Notifier:     env.notifs,
		Now:          env.clock.Now,
	})
	env.settings = NewSettingsService(repository.NewSettingRepository(db), env.log)
	require.NoError(t, database.SeedSettings(context.Background(), db))
	return env
}

var mobileSeq struct {
	sync.Mutex
	n int
}

// newAccount inserts an account with the given starting balance, bypassing
// the ledger.
func (e *testEnv) newAccount(t *testing.T, balance int64, premium bool) *models.Account {
	t.Helper()
	mobileSeq.Lock()
	mobileSeq.n++
	n := mobileSeq.n
	mobileSeq.Unlock()

	a := &models.Account{
		Mobile:       fmt.Sprintf("8%09d", n),
		PasswordHash: "x",
		Role:         domain.RoleUser,
		BalancePaise: balance,
		IsPremium:    premium,
		ReferralCode: fmt.Sprintf("T%05d", n),
	}
	require.NoError(t, e.accounts.Create(context.Background(), a))
	return a
}

func (e *testEnv) balance(t *testing.T, id uint) int64 {
	t.Helper()
	b, err := e.ledger.Balance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (e *testEnv) count(t *testing.T, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func validBank() BankDetails {
	return BankDetails{
		AccountName:   "Asha Verma",
		AccountNumber: "123456789012",
		IFSC:          "HDFC0001234",
		BankName:      "HDFC Bank",
	}
}
