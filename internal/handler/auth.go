package handler

import (
	"errors"   // matching service sentinels
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"             // structured logging

	"github.com/iliyamo/finance-tracker/internal/middleware" // session cookie helpers
	"github.com/iliyamo/finance-tracker/internal/service"    // credential checks and signup rules
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth   *service.AuthService
	Secure bool // sets the Secure flag on the session cookie
	Log    *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, secure bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Secure: secure, Log: orNop(log)}
}

type loginReq struct {
	Username string `json:"username"` // exact, case-sensitive
	Password string `json:"password"` // plaintext, checked against the bcrypt hash
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return errJSON(c, http.StatusBadRequest, "Username and password are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.Auth.Authenticate(ctx, req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return errJSON(c, http.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return respondError(c, h.Log, err, "Internal server error")
	}

	// the JWT travels only in the HttpOnly cookie, never in the body
	middleware.SetSessionCookie(c, sess.Token, h.Secure)
	h.Log.Info("user signed in", zap.Uint64("user_id", sess.User.ID))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewUser(sess.User)})
}

// Logout clears the session cookie.  Tokens are stateless, so nothing is
// revoked server-side.
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearSessionCookie(c, h.Secure)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Signup registers a regular user.  No session is started; the client
// signs in afterwards.
func (h *AuthHandler) Signup(c echo.Context) error {
	var in service.SignupInput
	if err := c.Bind(&in); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.CreateUser(ctx, in)
	if err != nil {
		return respondError(c, h.Log, err, "Internal server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewUser(u)})
}

// SignupAvailability reports whether the active-user cap allows signup.
func (h *AuthHandler) SignupAvailability(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	a, err := h.Auth.SignupAvailability(ctx)
	if err != nil {
		return respondError(c, h.Log, err, "Internal server error")
	}
	return c.JSON(http.StatusOK, a)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": viewUser(u)})
}
