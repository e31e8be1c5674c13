package handler

import (
	"errors"
	"net/http"
	"strconv"

	"videoearn/internal/auth"
	"videoearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// Order matters: wrapped errors must come before the errors they wrap.
var errorMappings = []errorMapping{
	{service.ErrBelowMinimumWithdrawal, http.StatusBadRequest, "The amount is below the minimum withdrawal."},
	{service.ErrInvalidAmount, http.StatusBadRequest, "Please enter a valid amount."},
	{service.ErrAccountNotFound, http.StatusNotFound, "Account not found."},
	{service.ErrInsufficientBalance, http.StatusBadRequest, "You do not have enough balance for this withdrawal."},
	{service.ErrDailyLimitReached, http.StatusTooManyRequests, "You have already earned from a video today. Upgrade to premium to watch more."},
	{service.ErrAlreadyReferred, http.StatusConflict, "This account has already been referred."},
	{service.ErrReferrerNotFound, http.StatusNotFound, "Referral code not found."},
	{service.ErrSelfReferral, http.StatusBadRequest, "You cannot use your own referral code."},
	{service.ErrInvalidBankDetails, http.StatusBadRequest, "Please enter valid bank details: account name, account number and IFSC code."},
	{service.ErrNotPending, http.StatusConflict, "This withdrawal has already been processed."},
	{service.ErrInvalidDecision, http.StatusBadRequest, "Decision must be approved or rejected."},
	{service.ErrTransactionNotFound, http.StatusNotFound, "Withdrawal not found."},
	{service.ErrPaymentUnverified, http.StatusPaymentRequired, "We could not verify your payment. If money was deducted, please contact support."},
	{service.ErrDuplicatePayment, http.StatusConflict, "This payment has already been applied."},
	{service.ErrAlreadyPremium, http.StatusConflict, "You are already a premium member."},
	{service.ErrInvalidVideo, http.StatusBadRequest, "Video reference is required."},
	{service.ErrCodeGenerationExhausted, http.StatusServiceUnavailable, "We could not create your account right now. Please try again."},
	{service.ErrBackendUnavailable, http.StatusServiceUnavailable, "Service is temporarily unavailable. Please try again."},
	{service.ErrMobileExists, http.StatusConflict, "This mobile number is already registered. Please log in."},
	{service.ErrInvalidMobile, http.StatusBadRequest, "Please enter a valid 10-digit mobile number."},
	{service.ErrInvalidCreds, http.StatusUnauthorized, "Invalid mobile number or password."},
	{service.ErrWeakPassword, http.StatusBadRequest, "Password must be at least 6 characters."},
	{service.ErrAccountMissing, http.StatusUnauthorized, "Your session has expired. Please log in again."},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "Your session has expired. Please log in again."},
	{service.ErrOrderNotFound, http.StatusNotFound, "Payment order not found."},
	{service.ErrInvalidPurpose, http.StatusBadRequest, "Payment purpose must be deposit or premium."},
}

// writeError maps a service error to a status and a plain-language message.
// Unknown errors are logged and reported as a generic failure.
func writeError(c *gin.Context, log *logrus.Logger, err error) {
	if errors.Is(err, service.ErrInvalidSetting) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
			}
			c.JSON(m.status, gin.H{"error": m.message})
			return
		}
	}
	log.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// pagination reads limit/offset, clamping limit to [1, 100].
func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
