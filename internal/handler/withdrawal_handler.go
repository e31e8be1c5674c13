package handler

import (
	"net/http"

	"videoearn/internal/middleware"
	"videoearn/internal/money"
	"videoearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type WithdrawalHandler struct {
	ledger   *service.LedgerService
	settings *service.SettingsService
	log      *logrus.Logger
}

func NewWithdrawalHandler(ledger *service.LedgerService, settings *service.SettingsService, log *logrus.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{ledger: ledger, settings: settings, log: log}
}

type WithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"` // rupees
	AccountName   string          `json:"account_name"`
	AccountNumber string          `json:"account_number"`
	IFSC          string          `json:"ifsc"`
	BankName      string          `json:"bank_name"`
}

// Create reserves the amount and queues the withdrawal for admin approval.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please enter a valid amount.")
		return
	}
	amount, err := money.FromDecimal(req.Amount)
	if err != nil {
		writeError(c, h.log, service.ErrInvalidAmount)
		return
	}
	ctx := c.Request.Context()
	rates, err := h.settings.Load(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	txn, err := h.ledger.RequestWithdrawal(ctx, middleware.GetUserID(c), amount, service.BankDetails{
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
		BankName:      req.BankName,
	}, rates.MinWithdrawal)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"transaction": txn,
		"message":     "Withdrawal request submitted. It will be processed after admin approval.",
	})
}
