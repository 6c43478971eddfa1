package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/finance-tracker/internal/handler"
)

// RegisterEntries mounts the expense or investment routes under prefix.
func RegisterEntries(e *echo.Echo, prefix string, h *handler.EntryHandler) {
	g := e.Group(prefix)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/reorder", h.Reorder)
	g.POST("/fill", h.Fill)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/toggle-completion", h.ToggleCompletion)
}

// RegisterLedger mounts one ledger.  Only the credit-card list is
// user-ordered.
func RegisterLedger(e *echo.Echo, prefix string, h *handler.LedgerHandler, reorder bool) {
	g := e.Group(prefix)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.DELETE("", h.Delete)
	g.DELETE("/:id", h.Delete)
	if reorder {
		g.POST("/reorder", h.Reorder)
	}
}

// RegisterTemplates mounts both recurring-item templates.
func RegisterTemplates(e *echo.Echo, expense, investment *handler.TemplateHandler) {
	for path, h := range map[string]*handler.TemplateHandler{
		"/api/templates/expense":    expense,
		"/api/templates/investment": investment,
	} {
		e.GET(path, h.Get)
		e.POST(path, h.Save)
		e.PUT(path, h.Update)
	}
}

func RegisterNotes(e *echo.Echo, h *handler.NoteHandler) {
	e.GET("/api/notes", h.Get)
	e.POST("/api/notes", h.Save)
}

// RegisterSummary mounts the chart endpoints.  Trends are served through
// the per-user response cache.
func RegisterSummary(e *echo.Echo, h *handler.SummaryHandler, cache echo.MiddlewareFunc) {
	e.GET("/api/summary", h.MonthSummary)
	e.GET("/api/trends", h.Trends, cache)
}
