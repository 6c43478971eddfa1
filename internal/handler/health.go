package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Health is the liveness probe for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// UserCounter is the lightweight query the keep-alive probe runs.
type UserCounter interface {
	CountAll(ctx context.Context) (int, error)
}

// CronHandler serves scheduled probes authenticated by a shared secret.
type CronHandler struct {
	Users  UserCounter
	Secret string
	Log    *zap.Logger
}

func NewCronHandler(users UserCounter, secret string, log *zap.Logger) *CronHandler {
	return &CronHandler{Users: users, Secret: secret, Log: orNop(log)}
}

func (h *CronHandler) authorized(c echo.Context) bool {
	if h.Secret == "" {
		return false
	}
	got, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) == 1
}

// KeepAlive touches the database so hosted instances that pause on
// inactivity stay awake.
func (h *CronHandler) KeepAlive(c echo.Context) error {
	if !h.authorized(c) {
		return errJSON(c, http.StatusUnauthorized, "Unauthorized")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	start := time.Now()
	n, err := h.Users.CountAll(ctx)
	elapsed := time.Since(start)
	now := time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		h.Log.Error("keep-alive query failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success":   false,
			"status":    "error",
			"error":     "Database query failed",
			"timestamp": now,
		})
	}
	h.Log.Info("keep-alive", zap.Int("user_count", n), zap.Duration("elapsed", elapsed))
	return c.JSON(http.StatusOK, echo.Map{
		"success":          true,
		"status":           "ok",
		"message":          "Database keep-alive successful",
		"userCount":        n,
		"response_time_ms": elapsed.Milliseconds(),
		"timestamp":        now,
	})
}
