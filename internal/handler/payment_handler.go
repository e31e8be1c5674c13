package handler

import (
	"io"
	"net/http"

	"videoearn/internal/domain"
	"videoearn/internal/middleware"
	"videoearn/internal/money"
	"videoearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

type PaymentHandler struct {
	svc *service.PaymentService
	log *logrus.Logger
}

func NewPaymentHandler(svc *service.PaymentService, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

// CreateOrder starts a deposit or premium checkout.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req struct {
		Purpose string          `json:"purpose" binding:"required,oneof=deposit premium"`
		Amount  decimal.Decimal `json:"amount"` // rupees, deposits only
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, service.ErrInvalidPurpose)
		return
	}
	var amount int64
	if req.Purpose == domain.PaymentPurposeDeposit {
		var err error
		if amount, err = money.FromDecimal(req.Amount); err != nil {
			writeError(c, h.log, service.ErrInvalidAmount)
			return
		}
	}
	order, err := h.svc.CreateOrder(c.Request.Context(), middleware.GetUserID(c), req.Purpose, amount)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "amount": money.Format(order.AmountPaise)})
}

// Confirm applies the payment the checkout widget reported.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req struct {
		OrderID   string `json:"order_id" binding:"required"`
		PaymentID string `json:"payment_id" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "order_id, payment_id and signature are required")
		return
	}
	txn, err := h.svc.Confirm(c.Request.Context(), middleware.GetUserID(c), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

func (h *PaymentHandler) OrderStatus(c *gin.Context) {
	order, err := h.svc.OrderStatus(c.Request.Context(), middleware.GetUserID(c), c.Param("order_id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Webhook receives provider events. Events other than payment.captured are
// acknowledged and ignored.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}
	txn, err := h.svc.ConfirmFromWebhook(c.Request.Context(), body, c.GetHeader(webhookSignatureHeader))
	if err != nil {
		h.log.WithError(err).Warn("payment webhook rejected")
		writeError(c, h.log, err)
		return
	}
	if txn == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "transaction_id": txn.ID})
}
