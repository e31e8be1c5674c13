package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"videoearn/internal/auth"
	"videoearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrDailyLimitReached, http.StatusTooManyRequests},
		{service.ErrInsufficientBalance, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", service.ErrNotPending), http.StatusConflict},
		{service.ErrBelowMinimumWithdrawal, http.StatusBadRequest},
		{service.ErrPaymentUnverified, http.StatusPaymentRequired},
		{service.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{fmt.Errorf("%w: unknown key", service.ErrInvalidSetting), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		writeError(c, quietLogger(), tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
		assert.NotContains(t, body["error"], "boom", "internal details are not leaked")
	}
}

func TestBelowMinimumMessageWinsOverInvalidAmount(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	writeError(c, quietLogger(), service.ErrBelowMinimumWithdrawal)
	assert.Contains(t, w.Body.String(), "minimum withdrawal")
}

func TestPagination(t *testing.T) {
	cases := map[string][2]int{
		"/":                     {20, 0},
		"/?limit=5&offset=10":   {5, 10},
		"/?limit=500":           {100, 0},
		"/?limit=-1&offset=-4":  {20, 0},
		"/?limit=abc&offset=xy": {20, 0},
	}
	for target, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		limit, offset := pagination(c)
		assert.Equal(t, want[0], limit, target)
		assert.Equal(t, want[1], offset, target)
	}
}

func TestParsePagination(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=0&limit=1000", nil)
	page, limit := parsePagination(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
}
