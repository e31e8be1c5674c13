package payment

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrMalformedWebhook = errors.New("malformed webhook payload")

// EventPaymentCaptured is the webhook event that confirms a payment.
const EventPaymentCaptured = "payment.captured"

type OrderRequest struct {
	Receipt     string // our order id, echoed back by the provider
	AmountPaise int64
	Currency    string
	Notes       map[string]string
}

// Order is what the checkout widget needs to collect a payment.
type Order struct {
	ProviderOrderID string `json:"provider_order_id"`
	AmountPaise     int64  `json:"amount_paise"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	KeyID           string `json:"key_id"`
}

// WebhookPayment is the payment a provider webhook reports.
type WebhookPayment struct {
	Event           string
	PaymentID       string
	ProviderOrderID string
	AmountPaise     int64
	Status          string
}

type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// VerifyPayment checks the signature the checkout widget returned.
	VerifyPayment(providerOrderID, paymentID, signature string) bool
	VerifyWebhook(body []byte, signature string) bool
	ParseWebhook(body []byte) (*WebhookPayment, error)
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string `json:"id"`
				OrderID  string `json:"order_id"`
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
				Status   string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func parseWebhook(body []byte) (*WebhookPayment, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrMalformedWebhook
	}
	entity := env.Payload.Payment.Entity
	if env.Event == "" || entity.ID == "" || entity.OrderID == "" {
		return nil, ErrMalformedWebhook
	}
	return &WebhookPayment{
		Event:           env.Event,
		PaymentID:       entity.ID,
		ProviderOrderID: entity.OrderID,
		AmountPaise:     entity.Amount,
		Status:          entity.Status,
	}, nil
}
