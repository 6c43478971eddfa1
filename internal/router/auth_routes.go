package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/finance-tracker/internal/handler"
)

// RegisterAuth registers the session endpoints.  Login and signup sit
// behind the rate limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login, limiter)
	g.POST("/logout", a.Logout)
	g.POST("/signup", a.Signup, limiter)
	g.GET("/signup", a.SignupAvailability)
	g.GET("/signup-availability", a.SignupAvailability)
	g.GET("/me", a.Me)
}

// RegisterAdmin registers account management.  requireAdmin re-checks the
// caller's role against the store on every request.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, requireAdmin echo.MiddlewareFunc) {
	g := e.Group("/api/admin", requireAdmin)
	g.GET("/users", h.ListUsers)
	g.DELETE("/users", h.DeleteUser)
	g.PATCH("/users", h.UpdateUserStatus)
}
