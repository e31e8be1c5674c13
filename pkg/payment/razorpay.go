package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RazorpayProvider creates orders through the Razorpay Orders API and checks
// checkout and webhook signatures.
type RazorpayProvider struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	client        *http.Client
}

func NewRazorpayProvider(baseURL, keyID, keySecret, webhookSecret string) *RazorpayProvider {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &RazorpayProvider{
		BaseURL:       baseURL,
		KeyID:         keyID,
		KeySecret:     keySecret,
		WebhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *RazorpayProvider) Name() string { return "razorpay" }

type razorpayOrderReq struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrderResp struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (p *RazorpayProvider) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(razorpayOrderReq{
		Amount:   req.AmountPaise,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(p.KeyID, p.KeySecret)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("razorpay create order failed: %d %s", resp.StatusCode, string(respBody))
	}
	var out razorpayOrderResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("razorpay: order response missing id")
	}
	return &Order{
		ProviderOrderID: out.ID,
		AmountPaise:     out.Amount,
		Currency:        out.Currency,
		Status:          out.Status,
		KeyID:           p.KeyID,
	}, nil
}

// VerifyPayment checks hex(HMAC-SHA256(key_secret, order_id|payment_id)).
func (p *RazorpayProvider) VerifyPayment(providerOrderID, paymentID, signature string) bool {
	if p.KeySecret == "" || providerOrderID == "" || paymentID == "" {
		return false
	}
	return validSignature(p.KeySecret, []byte(providerOrderID+"|"+paymentID), signature)
}

// VerifyWebhook checks the X-Razorpay-Signature header against the raw body.
func (p *RazorpayProvider) VerifyWebhook(body []byte, signature string) bool {
	if p.WebhookSecret == "" {
		return false
	}
	return validSignature(p.WebhookSecret, body, signature)
}

func (p *RazorpayProvider) ParseWebhook(body []byte) (*WebhookPayment, error) {
	return parseWebhook(body)
}

// Sign returns the hex HMAC-SHA256 of msg under secret.
func Sign(secret string, msg []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret string, msg []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hmac.Equal(mac.Sum(nil), got)
}
