package router

import (
	"fmt"
	"time"

	"videoearn/config"
	"videoearn/internal/domain"
	"videoearn/internal/events"
	"videoearn/internal/metrics"
	"videoearn/internal/repository"
	"videoearn/internal/service"
	"videoearn/pkg/payment"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Services is the wired service layer shared by the HTTP routes and the
// background jobs.
type Services struct {
	Ledger        *service.LedgerService
	Settings      *service.SettingsService
	Auth          *service.AuthService
	Accounts      *service.AccountService
	Payments      *service.PaymentService
	Reconcile     *service.ReconcileService
	Notifications *service.NotificationService
	AdminRepo     *repository.AdminRepository
}

func NewServices(cfg *config.Config, db *gorm.DB, log *logrus.Logger, m *metrics.Metrics, pub events.Publisher, provider payment.Provider) (*Services, error) {
	loc, err := time.LoadLocation(cfg.Ledger.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("ledger time zone %q: %w", cfg.Ledger.TimeZone, err)
	}
	policy, ok := domain.ParseRejectPolicy(cfg.Ledger.WithdrawalRejectMode)
	if !ok {
		return nil, fmt.Errorf("unknown withdrawal reject policy %q", cfg.Ledger.WithdrawalRejectMode)
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	orderRepo := repository.NewPaymentOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notifSvc := service.NewNotificationService(notificationRepo)
	ledger := service.NewLedgerService(db, log, service.LedgerOptions{
		Location:     loc,
		RejectPolicy: policy,
		Publisher:    pub,
		Metrics:      m,
		Notifier:     notifSvc,
	})
	settings := service.NewSettingsService(settingRepo, log)

	return &Services{
		Ledger:        ledger,
		Settings:      settings,
		Auth:          service.NewAuthService(cfg, accountRepo, ledger, settings, log),
		Accounts:      service.NewAccountService(accountRepo, earningRepo, txnRepo, referralRepo, ledger, cfg.Server.PublicBaseURL),
		Payments:      service.NewPaymentService(orderRepo, accountRepo, txnRepo, provider, ledger, settings, notifSvc, cfg.Payment.Currency, log),
		Reconcile:     service.NewReconcileService(db, policy, cfg.Jobs.ReconcileBatchSize, m, log),
		Notifications: notifSvc,
		AdminRepo:     repository.NewAdminRepository(db),
	}, nil
}

// NewPaymentProvider picks the provider named in config.
func NewPaymentProvider(cfg *config.PaymentConfig) (payment.Provider, error) {
	switch cfg.Provider {
	case "razorpay":
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return nil, fmt.Errorf("razorpay requires RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET")
		}
		return payment.NewRazorpayProvider(cfg.BaseURL, cfg.KeyID, cfg.KeySecret, cfg.WebhookSecret), nil
	case "stub", "":
		return &payment.StubProvider{}, nil
	}
	return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
}
