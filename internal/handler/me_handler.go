package handler

import (
	"net/http"

	"videoearn/internal/domain"
	"videoearn/internal/middleware"
	"videoearn/internal/money"
	"videoearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MeHandler serves the signed-in account's dashboard and histories.
type MeHandler struct {
	accounts *service.AccountService
	settings *service.SettingsService
	log      *logrus.Logger
}

func NewMeHandler(accounts *service.AccountService, settings *service.SettingsService, log *logrus.Logger) *MeHandler {
	return &MeHandler{accounts: accounts, settings: settings, log: log}
}

func (h *MeHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	rates, err := h.settings.Load(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	d, err := h.accounts.Dashboard(ctx, middleware.GetUserID(c), rates)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dashboard":        d,
		"balance":          money.Format(d.BalancePaise),
		"amount_per_video": money.Format(d.AmountPerVideoPaise),
	})
}

// Transactions lists the account's transactions, optionally filtered by ?type=.
func (h *MeHandler) Transactions(c *gin.Context) {
	txType := c.Query("type")
	switch txType {
	case "", domain.TxTypeDeposit, domain.TxTypeWithdrawal, domain.TxTypePremium:
	default:
		badRequest(c, "type must be deposit, withdrawal or premium")
		return
	}
	limit, offset := pagination(c)
	list, err := h.accounts.Transactions(c.Request.Context(), middleware.GetUserID(c), txType, limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}
