package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/utils"
)

// CookieName carries the session token.
const CookieName = "auth-token"

// Context keys set by Gate.
const (
	ContextUser   = "auth_user"
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// UserLookup resolves the user behind a session.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// GateConfig configures the session gate.
type GateConfig struct {
	PublicPrefixes []string
	LoginPath      string
	// LegacyUsername enables the pre-JWT cookie format for one admin account.
	LegacyUsername string
	Secure         bool
	Now            func() time.Time
}

// Gate authenticates every request that is not under a public prefix.  A
// valid session is a verified token whose user still exists and is active;
// the user is re-read on each request so deactivation takes effect at once.
func Gate(cfg GateConfig, tokens *utils.TokenIssuer, users UserLookup, log *zap.Logger) echo.MiddlewareFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if isPublic(path, cfg.PublicPrefixes) {
				return next(c)
			}

			u, err := resolveSession(c, cfg, tokens, users)
			if err != nil {
				log.Error("session lookup failed", zap.String("path", path), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
			}
			if u == nil {
				ClearSessionCookie(c, cfg.Secure)
				if strings.HasPrefix(path, "/api/") {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
				}
				return c.Redirect(http.StatusFound, cfg.LoginPath)
			}

			c.Set(ContextUser, u)
			c.Set(ContextUserID, u.ID)
			c.Set(ContextRole, u.Role)
			return next(c)
		}
	}
}

// resolveSession returns nil, nil for every "not logged in" outcome and an
// error only when the store itself fails.
func resolveSession(c echo.Context, cfg GateConfig, tokens *utils.TokenIssuer, users UserLookup) (*model.User, error) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	ctx := c.Request().Context()

	if claims, err := tokens.Verify(cookie.Value); err == nil {
		return activeOnly(users.GetByID(ctx, claims.UserID))
	}

	if cfg.LegacyUsername == "" {
		return nil, nil
	}
	lt, ok := utils.ParseLegacyToken(cookie.Value)
	if !ok || lt.Username != cfg.LegacyUsername {
		return nil, nil
	}
	age := cfg.Now().Sub(lt.IssuedAt)
	if age < 0 || age > utils.SessionTTL {
		return nil, nil
	}
	u, err := activeOnly(users.GetByUsername(ctx, lt.Username))
	if err != nil || u == nil || !u.IsAdmin() {
		return nil, err
	}
	return u, nil
}

func activeOnly(u *model.User, err error) (*model.User, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, nil
	}
	return u, nil
}

func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// SetSessionCookie attaches a freshly issued token to the response.
func SetSessionCookie(c echo.Context, token string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
