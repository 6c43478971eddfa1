package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/service"
)

// EntryHandler serves one of the two monthly entry tables.  The router
// mounts one instance per kind.
type EntryHandler struct {
	Kind    model.EntryKind         // expense or investment
	Entries *repository.EntryRepo   // table access, always scoped by user
	Filler  *service.TemplateFiller // copies template items into a month
	Cache   CacheBuster             // drops the caller's cached summaries after writes
	Log     *zap.Logger
}

func NewEntryHandler(kind model.EntryKind, entries *repository.EntryRepo, filler *service.TemplateFiller, cache CacheBuster, log *zap.Logger) *EntryHandler {
	if entries == nil || filler == nil {
		panic("nil dependency passed to NewEntryHandler")
	}
	if cache == nil {
		cache = nopBuster{}
	}
	return &EntryHandler{Kind: kind, Entries: entries, Filler: filler, Cache: cache, Log: orNop(log)}
}

type entryReq struct {
	Name           string   `json:"name"`
	Amount         *float64 `json:"amount"` // pointer so a missing amount differs from 0
	Category       string   `json:"category"`
	Month          string   `json:"month"`           // YYYY-MM
	InvestmentType *string  `json:"investment_type"` // ignored for expenses
	DisplayOrder   *int     `json:"display_order"`
}

func (r entryReq) validate() (string, bool) {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return "Name is required", false
	case r.Amount == nil:
		return "Amount is required", false
	case *r.Amount < 0:
		return "Amount must not be negative", false
	case !model.ValidMonth(r.Month):
		return service.ErrInvalidMonth.Error(), false
	}
	return "", true
}

func (h *EntryHandler) toEntry(req entryReq, ownerID uint64) *model.Entry {
	e := &model.Entry{
		UserID:       ownerID,
		Kind:         h.Kind,
		Name:         strings.TrimSpace(req.Name),
		Amount:       *req.Amount,
		Category:     strings.TrimSpace(req.Category),
		Month:        req.Month,
		DisplayOrder: req.DisplayOrder,
	}
	if h.Kind == model.KindInvestment {
		e.InvestmentType = req.InvestmentType
	}
	return e
}

func (h *EntryHandler) failure(verb string) string {
	return "Failed to " + verb + " " + string(h.Kind) + "s"
}

// List returns the caller's entries, optionally for one month.
func (h *EntryHandler) List(c echo.Context) error {
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

	list, err := h.Entries.ListByMonth(ctx, uid, h.Kind, month)
	if err != nil {
		return respondError(c, h.Log, err, h.failure("fetch"))
	}
	if list == nil {
		list = []*model.Entry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": list})
}

// Create adds a manual entry.
func (h *EntryHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req entryReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if msg, ok := req.validate(); !ok {
		return errJSON(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	e := h.toEntry(req, uid)
	e.SourceType = model.SourceManual
	if err := h.Entries.Create(ctx, e); err != nil {
		return respondError(c, h.Log, err, h.failure("create"))
	}
	h.Cache.ForgetUser(ctx, uid)
	return c.JSON(http.StatusOK, echo.Map{"data": e})
}

// Update edits an owned entry.
func (h *EntryHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	id, ok := parseID(c)
	if !ok {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}
	var req entryReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if msg, ok := req.validate(); !ok {
		return errJSON(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	e := h.toEntry(req, uid)
	e.ID = id
	if err := h.Entries.Update(ctx, e); err != nil {
		return respondError(c, h.Log, err, h.failure("update"))
	}
	updated, err := h.Entries.GetByIDAndOwner(ctx, h.Kind, id, uid)
	if err != nil {
		return respondError(c, h.Log, err, h.failure("update"))
	}
	h.Cache.ForgetUser(ctx, uid)
	return c.JSON(http.StatusOK, echo.Map{"data": updated})
}

// Delete removes an owned entry.
func (h *EntryHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	id, ok := parseID(c)
	if !ok {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Entries.Delete(ctx, h.Kind, id, uid); err != nil {
		return respondError(c, h.Log, err, h.failure("delete"))
	}
	h.Cache.ForgetUser(ctx, uid)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ToggleCompletion flips the completed flag of an owned entry.
func (h *EntryHandler) ToggleCompletion(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	id, ok := parseID(c)
	if !ok {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	e, err := h.Entries.ToggleCompletion(ctx, h.Kind, id, uid)
	if err != nil {
		return respondError(c, h.Log, err, "Failed to toggle completion")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": e, "success": true})
}

// reorderReq accepts the generic "items" key as well as the per-table keys
// older clients send.
type reorderReq struct {
	Items       []model.OrderUpdate `json:"items"`
	Expenses    []model.OrderUpdate `json:"expenses"`
	Investments []model.OrderUpdate `json:"investments"`
	Entries     []model.OrderUpdate `json:"entries"`
}

func (r reorderReq) updates() ([]model.OrderUpdate, bool) {
	for _, u := range [][]model.OrderUpdate{r.Items, r.Expenses, r.Investments, r.Entries} {
		if u != nil {
			return u, true
		}
	}
	return nil, false
}

// Reorder applies a batch of display_order updates atomically.
func (h *EntryHandler) Reorder(c echo.Context) error {
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

	if err := h.Entries.Reorder(ctx, h.Kind, uid, updates); err != nil {
		return respondError(c, h.Log, err, h.failure("reorder"))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type fillReq struct {
	Month string `json:"month"`
}

// Fill regenerates the month's template entries.
func (h *EntryHandler) Fill(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req fillReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Filler.Fill(ctx, uid, h.Kind, req.Month)
	if err != nil {
		return respondError(c, h.Log, err, "Failed to fill from template")
	}
	h.Cache.ForgetUser(ctx, uid)
	return c.JSON(http.StatusOK, res)
}
