package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/middleware"
	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/service"
)

const requestTimeout = 5 * time.Second

// CacheBuster drops cached chart responses after a user's data changes.
type CacheBuster interface {
	ForgetUser(ctx context.Context, userID uint64)
}

type nopBuster struct{}

func (nopBuster) ForgetUser(context.Context, uint64) {}

// getUserID extracts the user_id set by the session gate.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.ContextUserID).(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

func errJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

func unauthenticated(c echo.Context) error {
	return errJSON(c, http.StatusUnauthorized, "Authentication required")
}

var badRequestErrors = []error{
	service.ErrMaxUsers,
	service.ErrUsernameTaken,
	service.ErrEmailTaken,
	service.ErrSelfDelete,
	service.ErrSelfDeactivate,
	service.ErrInvalidStatus,
	service.ErrInvalidRole,
	service.ErrEmptyTemplate,
	service.ErrInvalidMonth,
}

// respondError maps a domain error to a response.  Unknown errors are
// logged and reported with the generic fallback message.
func respondError(c echo.Context, log *zap.Logger, err error, fallback string) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		body := echo.Map{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return errJSON(c, http.StatusNotFound, "Not found")
	}
	if errors.Is(err, service.ErrInvalidCredentials) {
		return errJSON(c, http.StatusUnauthorized, err.Error())
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return errJSON(c, http.StatusBadRequest, target.Error())
		}
	}
	log.Error(fallback, zap.String("method", c.Request().Method), zap.String("path", c.Path()), zap.Error(err))
	return errJSON(c, http.StatusInternalServerError, fallback)
}

// userView is the public shape of an account.
type userView struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

func viewUser(u *model.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
