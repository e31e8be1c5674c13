package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"videoearn/internal/domain"
	"videoearn/internal/models"
	"videoearn/internal/repository"
	"videoearn/pkg/payment"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound  = errors.New("payment order not found")
	ErrInvalidPurpose = errors.New("purpose must be deposit or premium")
)

// CheckoutOrder is returned to the client to open the payment widget.
type CheckoutOrder struct {
	OrderID         string `json:"order_id"`
	Provider        string `json:"provider"`
	ProviderOrderID string `json:"provider_order_id"`
	KeyID           string `json:"key_id"`
	Purpose         string `json:"purpose"`
	AmountPaise     int64  `json:"amount_paise"`
	Currency        string `json:"currency"`
}

// PaymentService turns verified provider payments into ledger credits. No
// payment reaches the ledger without a valid provider signature.
type PaymentService struct {
	orders        *repository.PaymentOrderRepository
	accounts      *repository.AccountRepository
	txns          *repository.TransactionRepository
	provider      payment.Provider
	ledger        *LedgerService
	settings      *SettingsService
	notifications *NotificationService
	currency      string
	log           *logrus.Logger
}

func NewPaymentService(
	orders *repository.PaymentOrderRepository,
	accounts *repository.AccountRepository,
	txns *repository.TransactionRepository,
	provider payment.Provider,
	ledger *LedgerService,
	settings *SettingsService,
	notifications *NotificationService,
	currency string,
	log *logrus.Logger,
) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{
		orders:        orders,
		accounts:      accounts,
		txns:          txns,
		provider:      provider,
		ledger:        ledger,
		settings:      settings,
		notifications: notifications,
		currency:      currency,
		log:           log,
	}
}

// CreateOrder opens a checkout. Deposits use the given amount; premium
// orders always charge the current premium fee.
func (s *PaymentService) CreateOrder(ctx context.Context, accountID uint, purpose string, amount int64) (*CheckoutOrder, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, classify(orNotFound(err, ErrAccountNotFound))
	}
	switch purpose {
	case domain.PaymentPurposeDeposit:
		if amount <= 0 {
			return nil, ErrInvalidAmount
		}
	case domain.PaymentPurposePremium:
		if acct.IsPremium {
			return nil, ErrAlreadyPremium
		}
		rates, err := s.settings.Load(ctx)
		if err != nil {
			return nil, err
		}
		amount = rates.PremiumFee
		if amount <= 0 {
			return nil, ErrInvalidAmount
		}
	default:
		return nil, ErrInvalidPurpose
	}

	orderID := "ord_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	po, err := s.provider.CreateOrder(ctx, payment.OrderRequest{
		Receipt:     orderID,
		AmountPaise: amount,
		Currency:    s.currency,
		Notes:       map[string]string{"purpose": purpose, "account_id": fmt.Sprint(accountID)},
	})
	if err != nil {
		s.log.WithError(err).WithField("account_id", accountID).Error("provider order creation failed")
		return nil, classify(err)
	}
	order := &models.PaymentOrder{
		OrderID:         orderID,
		ProviderOrderID: po.ProviderOrderID,
		AccountID:       accountID,
		Purpose:         purpose,
		AmountPaise:     amount,
		Currency:        s.currency,
		Status:          domain.PaymentOrderCreated,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, classify(err)
	}
	return &CheckoutOrder{
		OrderID:         orderID,
		Provider:        s.provider.Name(),
		ProviderOrderID: po.ProviderOrderID,
		KeyID:           po.KeyID,
		Purpose:         purpose,
		AmountPaise:     amount,
		Currency:        s.currency,
	}, nil
}

// Confirm applies a payment the checkout widget reported, after checking its
// signature with the provider.
func (s *PaymentService) Confirm(ctx context.Context, accountID uint, orderID, paymentID, signature string) (*models.Transaction, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, classify(orNotFound(err, ErrOrderNotFound))
	}
	if order.AccountID != accountID {
		return nil, ErrOrderNotFound
	}
	if !s.provider.VerifyPayment(order.ProviderOrderID, paymentID, signature) {
		s.log.WithFields(logrus.Fields{"order_id": orderID, "account_id": accountID}).Warn("payment signature rejected")
		return nil, ErrPaymentUnverified
	}
	return s.apply(ctx, order, paymentID)
}

// ConfirmFromWebhook applies a captured payment reported by the provider's
// webhook. Events other than payment.captured are ignored and return nil.
func (s *PaymentService) ConfirmFromWebhook(ctx context.Context, body []byte, signature string) (*models.Transaction, error) {
	if !s.provider.VerifyWebhook(body, signature) {
		return nil, ErrPaymentUnverified
	}
	wp, err := s.provider.ParseWebhook(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentUnverified, err)
	}
	if wp.Event != payment.EventPaymentCaptured {
		return nil, nil
	}
	order, err := s.orders.GetByProviderOrderID(ctx, wp.ProviderOrderID)
	if err != nil {
		return nil, classify(orNotFound(err, ErrOrderNotFound))
	}
	if wp.AmountPaise != order.AmountPaise {
		s.log.WithFields(logrus.Fields{"order_id": order.OrderID, "expected": order.AmountPaise, "got": wp.AmountPaise}).Warn("webhook amount mismatch")
		return nil, ErrPaymentUnverified
	}
	return s.apply(ctx, order, wp.PaymentID)
}

func (s *PaymentService) apply(ctx context.Context, order *models.PaymentOrder, paymentID string) (*models.Transaction, error) {
	var (
		txn *models.Transaction
		err error
	)
	switch order.Purpose {
	case domain.PaymentPurposeDeposit:
		txn, err = s.ledger.CreditDeposit(ctx, order.AccountID, order.AmountPaise, paymentID)
	case domain.PaymentPurposePremium:
		txn, err = s.ledger.PurchasePremium(ctx, order.AccountID, order.AmountPaise, paymentID)
	default:
		return nil, ErrInvalidPurpose
	}

	fresh := err == nil
	switch {
	case errors.Is(err, ErrDuplicatePayment):
		// Replay of a payment that was already applied.
		txn, err = s.txns.GetByPaymentRef(ctx, paymentID)
		if err != nil {
			return nil, classify(err)
		}
		if txn.AccountID != order.AccountID {
			return nil, ErrDuplicatePayment
		}
	case errors.Is(err, ErrAlreadyPremium):
		order.Status = domain.PaymentOrderFailed
		order.PaymentRef = paymentID
		if uerr := s.orders.Update(ctx, order); uerr != nil {
			s.log.WithError(uerr).WithField("order_id", order.OrderID).Error("failed to mark order failed")
		}
		return nil, err
	case err != nil:
		return nil, err
	}

	if order.Status != domain.PaymentOrderPaid {
		paidAt := txn.CreatedAt
		order.Status = domain.PaymentOrderPaid
		order.PaymentRef = paymentID
		order.TransactionID = &txn.ID
		order.PaidAt = &paidAt
		if err := s.orders.Update(ctx, order); err != nil {
			s.log.WithError(err).WithField("order_id", order.OrderID).Error("failed to mark order paid")
		}
	}
	if fresh && s.notifications != nil {
		if err := s.notifications.NotifyPaymentConfirmed(ctx, order.AccountID, order.Purpose, order.AmountPaise, paymentID); err != nil {
			s.log.WithError(err).WithField("order_id", order.OrderID).Warn("payment notification failed")
		}
	}
	return txn, nil
}

// OrderStatus returns the account's order, for polling after checkout.
func (s *PaymentService) OrderStatus(ctx context.Context, accountID uint, orderID string) (*models.PaymentOrder, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, classify(err)
	}
	if order.AccountID != accountID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
