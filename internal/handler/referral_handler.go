package handler

import (
	"net/http"

	"videoearn/internal/middleware"
	"videoearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ReferralHandler struct {
	accounts *service.AccountService
	settings *service.SettingsService
	log      *logrus.Logger
}

func NewReferralHandler(accounts *service.AccountService, settings *service.SettingsService, log *logrus.Logger) *ReferralHandler {
	return &ReferralHandler{accounts: accounts, settings: settings, log: log}
}

// Info returns the account's referral code and shareable link.
func (h *ReferralHandler) Info(c *gin.Context) {
	ctx := c.Request.Context()
	rates, err := h.settings.Load(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	info, err := h.accounts.ReferralInfo(ctx, middleware.GetUserID(c), rates)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *ReferralHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.accounts.Referrals(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": list})
}
