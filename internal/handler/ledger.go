package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/service"
)

// LedgerHandler serves the credit-card, income and external-buffer lists.
type LedgerHandler struct {
	Kind   model.LedgerKind
	Ledger *repository.LedgerRepo
	Cache  CacheBuster
	Log    *zap.Logger
	// Label names the list in error messages, e.g. "credit card entries".
	Label string
}

func NewLedgerHandler(kind model.LedgerKind, label string, ledger *repository.LedgerRepo, cache CacheBuster, log *zap.Logger) *LedgerHandler {
	if ledger == nil {
		panic("nil repository passed to NewLedgerHandler")
	}
	if cache == nil {
		cache = nopBuster{}
	}
	return &LedgerHandler{Kind: kind, Ledger: ledger, Cache: cache, Log: orNop(log), Label: label}
}

type ledgerReq struct {
	Description  string   `json:"description"`
	Amount       *float64 `json:"amount"`
	Month        string   `json:"month"`
	DisplayOrder *int     `json:"display_order"`
}

func (h *LedgerHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	month := c.QueryParam("month")
	if month != "" && !model.ValidMonth(month) {
		return errJSON(c, http.StatusBadRequest, service.ErrInvalidMonth.Error())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	list, err := h.Ledger.List(ctx, h.Kind, uid, month)
	if err != nil {
		return respondError(c, h.Log, err, "Failed to fetch "+h.Label)
	}
	if list == nil {
		list = []*model.LedgerEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": list})
}

func (h *LedgerHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req ledgerReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	switch {
	case strings.TrimSpace(req.Description) == "":
		return errJSON(c, http.StatusBadRequest, "Description is required")
	case req.Amount == nil:
		return errJSON(c, http.StatusBadRequest, "Amount is required")
	case !model.ValidMonth(req.Month):
		return errJSON(c, http.StatusBadRequest, service.ErrInvalidMonth.Error())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	e := &model.LedgerEntry{
		UserID:       uid,
		Kind:         h.Kind,
		Description:  strings.TrimSpace(req.Description),
		Amount:       *req.Amount,
		Month:        req.Month,
		DisplayOrder: req.DisplayOrder,
	}
	if err := h.Ledger.Create(ctx, e); err != nil {
		return respondError(c, h.Log, err, "Failed to create "+h.Label)
	}
	h.Cache.ForgetUser(ctx, uid)
	return c.JSON(http.StatusOK, echo.Map{"data": e})
}

// Delete accepts the id as a path parameter or, as older clients send it,
// as ?id=.
func (h *LedgerHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	id, ok := parseID(c)
	if !ok {
		n, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
		if err != nil || n == 0 {
			return errJSON(c, http.StatusBadRequest, "Entry ID is required")
		}
		id = n
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Ledger.Delete(ctx, h.Kind, id, uid); err != nil {
		return respondError(c, h.Log, err, "Failed to delete "+h.Label)
	}
	h.Cache.ForgetUser(ctx, uid)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *LedgerHandler) Reorder(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req reorderReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	updates, ok := req.updates()
	if !ok {
		return errJSON(c, http.StatusBadRequest, "items must be an array")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Ledger.Reorder(ctx, h.Kind, uid, updates); err != nil {
		return respondError(c, h.Log, err, "Failed to reorder "+h.Label)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
