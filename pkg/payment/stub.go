package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// StubSignature is accepted by StubProvider for checkout and webhook signatures.
const StubSignature = "stub"

// StubProvider is a no-op provider for development. Payment ids must carry
// the stub_ prefix and signatures must equal StubSignature.
type StubProvider struct{}

func (s *StubProvider) Name() string { return "stub" }

func (s *StubProvider) CreateOrder(_ context.Context, req OrderRequest) (*Order, error) {
	return &Order{
		ProviderOrderID: "stub_order_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		AmountPaise:     req.AmountPaise,
		Currency:        req.Currency,
		Status:          "created",
		KeyID:           "stub",
	}, nil
}

func (s *StubProvider) VerifyPayment(providerOrderID, paymentID, signature string) bool {
	return providerOrderID != "" && strings.HasPrefix(paymentID, "stub_") && signature == StubSignature
}

func (s *StubProvider) VerifyWebhook(body []byte, signature string) bool {
	return len(body) > 0 && signature == StubSignature
}

func (s *StubProvider) ParseWebhook(body []byte) (*WebhookPayment, error) {
	return parseWebhook(body)
}
