package handler

import (
	"net/http"

	"videoearn/internal/middleware"
	"videoearn/internal/money"
	"videoearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type VideoHandler struct {
	ledger   *service.LedgerService
	settings *service.SettingsService
	accounts *service.AccountService
	log      *logrus.Logger
}

func NewVideoHandler(ledger *service.LedgerService, settings *service.SettingsService, accounts *service.AccountService, log *logrus.Logger) *VideoHandler {
	return &VideoHandler{ledger: ledger, settings: settings, accounts: accounts, log: log}
}

// Complete credits the per-video amount for a finished video.
func (h *VideoHandler) Complete(c *gin.Context) {
	var req struct {
		VideoRef string `json:"video_ref" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Video reference is required.")
		return
	}
	ctx := c.Request.Context()
	rates, err := h.settings.Load(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	userID := middleware.GetUserID(c)
	earning, err := h.ledger.CreditVideoWatch(ctx, userID, req.VideoRef, rates.AmountPerVideo)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	balance, err := h.ledger.Balance(ctx, userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"earning":       earning,
		"earned":        money.Format(earning.AmountPaise),
		"balance_paise": balance,
		"balance":       money.Format(balance),
	})
}

func (h *VideoHandler) Earnings(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.accounts.Earnings(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": list})
}
