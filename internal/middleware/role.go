package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
)

// FreshUserLookup reads a user straight from the store, bypassing any cache.
type FreshUserLookup interface {
	GetByIDFresh(ctx context.Context, id uint64) (*model.User, error)
}

// RequireAdmin must run after Gate.  It re-reads the caller so a demotion or
// deactivation is honoured even while a cached copy is still warm.
func RequireAdmin(users FreshUserLookup, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cur, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
			}
			u, err := users.GetByIDFresh(c.Request().Context(), cur.ID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				log.Error("admin lookup failed", zap.Uint64("user_id", cur.ID), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
			}
			if u == nil || !u.IsActive() || !u.IsAdmin() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Admin access required"})
			}
			c.Set(ContextUser, u)
			c.Set(ContextRole, u.Role)
			return next(c)
		}
	}
}
