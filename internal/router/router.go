package router

import (
	"database/sql"
	"path/filepath"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/config"
	"github.com/iliyamo/finance-tracker/internal/handler"
	"github.com/iliyamo/finance-tracker/internal/middleware"
	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/queue"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/service"
	"github.com/iliyamo/finance-tracker/internal/utils"
)

// Deps are the long-lived components the HTTP layer is built from.  Redis
// and Events may be nil.
type Deps struct {
	Config config.Config
	Log    *zap.Logger
	DB     *sql.DB
	Redis  *redis.Client
	Users  *repository.CachedUserRepo
	Tokens *utils.TokenIssuer
	Auth   *service.AuthService
	Events queue.Publisher
}

// New builds the echo instance with every route registered.  The session
// gate runs for all requests; public paths are let through by prefix.
func New(d Deps) *echo.Echo {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Gate(middleware.GateConfig{
		PublicPrefixes: cfg.PublicPrefixes,
		LoginPath:      cfg.LoginPath,
		LegacyUsername: cfg.LegacyUsername,
		Secure:         cfg.Secure(),
	}, d.Tokens, d.Users, log))

	entries := repository.NewEntryRepo(d.DB)
	templates := repository.NewTemplateRepo(d.DB)
	ledger := repository.NewLedgerRepo(d.DB)
	filler := service.NewTemplateFiller(d.DB, entries, templates, d.Events, log)
	cache := middleware.NewResponseCache(cfg.Cache, d.Redis, log)
	limiter := middleware.NewTokenBucket(cfg.RateLimit, d.Redis, log)

	RegisterRoutes(e, handler.NewCronHandler(d.Users, cfg.CronSecret, log), cfg.StaticDir)
	RegisterAuth(e, handler.NewAuthHandler(d.Auth, cfg.Secure(), log), limiter)
	RegisterAdmin(e, handler.NewAdminHandler(d.Auth, log), middleware.RequireAdmin(d.Users, log))

	RegisterEntries(e, "/api/expenses", handler.NewEntryHandler(model.KindExpense, entries, filler, cache, log))
	RegisterEntries(e, "/api/investments", handler.NewEntryHandler(model.KindInvestment, entries, filler, cache, log))
	RegisterLedger(e, "/api/credit-card-entries", handler.NewLedgerHandler(model.LedgerCreditCard, "credit card entries", ledger, cache, log), true)
	RegisterLedger(e, "/api/income", handler.NewLedgerHandler(model.LedgerIncome, "income entries", ledger, cache, log), false)
	RegisterLedger(e, "/api/external-investment-buffer", handler.NewLedgerHandler(model.LedgerExternalBuffer, "external investment buffer", ledger, cache, log), false)
	RegisterTemplates(e,
		handler.NewTemplateHandler(model.KindExpense, templates, log),
		handler.NewTemplateHandler(model.KindInvestment, templates, log))
	RegisterNotes(e, handler.NewNoteHandler(repository.NewNoteRepo(d.DB), log))
	RegisterSummary(e, handler.NewSummaryHandler(repository.NewSummaryRepo(d.DB), ledger, log), cache.Middleware())
	return e
}

// RegisterRoutes registers the probes and, when configured, the static
// front-end.
func RegisterRoutes(e *echo.Echo, cron *handler.CronHandler, staticDir string) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/cron/keep-alive", cron.KeepAlive)

	if staticDir == "" {
		return
	}
	e.Static("/static", staticDir)
	e.File("/login", filepath.Join(staticDir, "login.html"))
	e.File("/", filepath.Join(staticDir, "index.html"))
}
