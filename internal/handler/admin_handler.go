package handler

import (
	"net/http"
	"strconv"

	"videoearn/internal/domain"
	"videoearn/internal/middleware"
	"videoearn/internal/repository"
	"videoearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	adminRepo *repository.AdminRepository
	settings  *service.SettingsService
	ledger    *service.LedgerService
	reconcile *service.ReconcileService
	auth      *service.AuthService
	log       *logrus.Logger
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	settings *service.SettingsService,
	ledger *service.LedgerService,
	reconcile *service.ReconcileService,
	auth *service.AuthService,
	log *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		adminRepo: adminRepo,
		settings:  settings,
		ledger:    ledger,
		reconcile: reconcile,
		auth:      auth,
		log:       log,
	}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats(c.Request.Context(), h.ledger.Today())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Analytics handles GET /admin/analytics?days=30.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}
	ctx := c.Request.Context()
	signups, err := h.adminRepo.SignupsByDay(ctx, days)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	watches, err := h.adminRepo.VideoWatchesByDay(ctx, days)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signups": signups, "video_watches": watches, "days": days})
}

// ListAccounts handles GET /admin/accounts.
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.adminRepo.ListAccounts(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListWithdrawals handles GET /admin/withdrawals?status=.
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	h.listTransactions(c, domain.TxTypeWithdrawal)
}

// ListDeposits handles GET /admin/deposits.
func (h *AdminHandler) ListDeposits(c *gin.Context) {
	h.listTransactions(c, domain.TxTypeDeposit)
}

// ListPremium handles GET /admin/premium.
func (h *AdminHandler) ListPremium(c *gin.Context) {
	h.listTransactions(c, domain.TxTypePremium)
}

func (h *AdminHandler) listTransactions(c *gin.Context, txType string) {
	page, limit := parsePagination(c)
	list, total, err := h.adminRepo.ListTransactions(c.Request.Context(), txType, c.Query("status"), page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListReferrals handles GET /admin/referrals.
func (h *AdminHandler) ListReferrals(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.adminRepo.ListReferrals(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GrantReferral handles POST /admin/referrals. It retries a signup referral
// whose grant failed on a storage error.
func (h *AdminHandler) GrantReferral(c *gin.Context) {
	var req struct {
		ReferredID   uint   `json:"referred_id" binding:"required"`
		ReferralCode string `json:"referral_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "referred_id and referral_code are required")
		return
	}
	ref, err := h.auth.ApplyReferral(c.Request.Context(), req.ReferredID, req.ReferralCode)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.log.WithFields(logrus.Fields{
		"admin_id":    middleware.GetUserID(c),
		"referred_id": req.ReferredID,
	}).Info("admin granted referral")
	c.JSON(http.StatusCreated, gin.H{"referral": ref})
}

// ResolveWithdrawal handles POST /admin/withdrawals/:id/resolve.
func (h *AdminHandler) ResolveWithdrawal(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, service.ErrInvalidDecision)
		return
	}
	txn, err := h.ledger.ResolveWithdrawal(c.Request.Context(), id, req.Decision, middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn, "reject_policy": h.ledger.RejectPolicy()})
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Raw(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// UpdateSettings handles PUT /admin/settings.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		Settings map[string]string `json:"settings" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "settings is required")
		return
	}
	if err := h.settings.Update(c.Request.Context(), req.Settings); err != nil {
		writeError(c, h.log, err)
		return
	}
	h.log.WithField("admin_id", middleware.GetUserID(c)).Info("admin updated settings")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Reconcile handles GET /admin/reconcile/:id.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	report, err := h.reconcile.Account(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
