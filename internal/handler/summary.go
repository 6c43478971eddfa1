package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/service"
)

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 24
)

// SummaryHandler serves the chart data.
type SummaryHandler struct {
	Summary *repository.SummaryRepo
	Ledger  *repository.LedgerRepo
	Log     *zap.Logger
	Now     func() time.Time
}

func NewSummaryHandler(summary *repository.SummaryRepo, ledger *repository.LedgerRepo, log *zap.Logger) *SummaryHandler {
	if summary == nil || ledger == nil {
		panic("nil repository passed to NewSummaryHandler")
	}
	return &SummaryHandler{Summary: summary, Ledger: ledger, Log: orNop(log), Now: time.Now}
}

type monthTotals struct {
	Expenses       float64 `json:"expenses"`
	Investments    float64 `json:"investments"`
	Income         float64 `json:"income"`
	CreditCard     float64 `json:"credit_card"`
	ExternalBuffer float64 `json:"external_buffer"`
	Remaining      float64 `json:"remaining"`
}

func sumCategories(cts []model.CategoryTotal) float64 {
	var t float64
	for _, ct := range cts {
		t += ct.Total
	}
	return t
}

// MonthSummary returns category breakdowns and totals for one month,
// defaulting to the current month.
func (h *SummaryHandler) MonthSummary(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	month := c.QueryParam("month")
	if month == "" {
		month = h.Now().UTC().Format("2006-01")
	}
	if !model.ValidMonth(month) {
		return errJSON(c, http.StatusBadRequest, service.ErrInvalidMonth.Error())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	fail := func(err error) error { return respondError(c, h.Log, err, "Failed to build summary") }

	expenses, err := h.Summary.CategoryTotals(ctx, uid, model.KindExpense, month)
	if err != nil {
		return fail(err)
	}
	investments, err := h.Summary.CategoryTotals(ctx, uid, model.KindInvestment, month)
	if err != nil {
		return fail(err)
	}
	totals := monthTotals{Expenses: sumCategories(expenses), Investments: sumCategories(investments)}
	for _, l := range []struct {
		kind model.LedgerKind
		dst  *float64
	}{
		{model.LedgerIncome, &totals.Income},
		{model.LedgerCreditCard, &totals.CreditCard},
		{model.LedgerExternalBuffer, &totals.ExternalBuffer},
	} {
		v, err := h.Ledger.Total(ctx, l.kind, uid, month)
		if err != nil {
			return fail(err)
		}
		*l.dst = v
	}
	totals.Remaining = totals.Income - totals.Expenses - totals.Investments

	return c.JSON(http.StatusOK, echo.Map{
		"month":       month,
		"expenses":    expenses,
		"investments": investments,
		"totals":      totals,
	})
}

// Trends returns per-month totals for the last ?months=N months (default
// 6, at most 24), including the current one.
func (h *SummaryHandler) Trends(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	n := defaultTrendMonths
	if raw := c.QueryParam("months"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxTrendMonths {
			return errJSON(c, http.StatusBadRequest, "months must be between 1 and "+strconv.Itoa(maxTrendMonths))
		}
		n = v
	}
	since := trendStart(h.Now().UTC(), n)

	ctx, cancel := requestCtx(c)
	defer cancel()

	totals, err := h.Summary.MonthlyTotals(ctx, uid, since)
	if err != nil {
		return respondError(c, h.Log, err, "Failed to build trends")
	}
	return c.JSON(http.StatusOK, echo.Map{"since": since, "data": totals})
}

// trendStart is the first month of an n-month window ending at now.
func trendStart(now time.Time, n int) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(n - 1), 0).Format("2006-01")
}
