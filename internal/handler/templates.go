package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
)

// TemplateHandler serves the recurring-item template of one entry kind.
type TemplateHandler struct {
	Kind      model.EntryKind
	Templates *repository.TemplateRepo
	Log       *zap.Logger
}

func NewTemplateHandler(kind model.EntryKind, templates *repository.TemplateRepo, log *zap.Logger) *TemplateHandler {
	if templates == nil {
		panic("nil repository passed to NewTemplateHandler")
	}
	return &TemplateHandler{Kind: kind, Templates: templates, Log: orNop(log)}
}

type templateReq struct {
	Items []model.TemplateItem `json:"items"`
}

// normalize trims names and gives every item a stable id so the UI can key
// rows; items without a name are rejected.
func (h *TemplateHandler) normalize(items []model.TemplateItem) ([]model.TemplateItem, string, bool) {
	out := make([]model.TemplateItem, 0, len(items))
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		it.Category = strings.TrimSpace(it.Category)
		if it.Name == "" {
			return nil, "Every template item needs a name", false
		}
		if it.Amount < 0 {
			return nil, "Amount must not be negative", false
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if h.Kind != model.KindInvestment {
			it.InvestmentType = nil
		}
		out = append(out, it)
	}
	return out, "", true
}

func (h *TemplateHandler) label() string {
	if h.Kind == model.KindInvestment {
		return "central investment template"
	}
	return "central template"
}

// Get returns the template, or {"data": null} when none is saved yet.
func (h *TemplateHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	t, err := h.Templates.Get(ctx, uid, h.Kind)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"data": nil})
	}
	if err != nil {
		return respondError(c, h.Log, err, "Failed to fetch "+h.label())
	}
	return c.JSON(http.StatusOK, echo.Map{"data": t})
}

// Save creates or replaces the template.
func (h *TemplateHandler) Save(c echo.Context) error {
	return h.write(c, false)
}

// Update replaces an existing template and 404s when there is none.
func (h *TemplateHandler) Update(c echo.Context) error {
	return h.write(c, true)
}

func (h *TemplateHandler) write(c echo.Context, mustExist bool) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req templateReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.Items == nil {
		return errJSON(c, http.StatusBadRequest, "items must be an array")
	}
	items, msg, ok := h.normalize(req.Items)
	if !ok {
		return errJSON(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	var t *model.Template
	if mustExist {
		t, err = h.Templates.Update(ctx, uid, h.Kind, items)
		if errors.Is(err, repository.ErrNotFound) {
			return errJSON(c, http.StatusNotFound, "No "+h.label()+" found to update")
		}
	} else {
		t, err = h.Templates.Upsert(ctx, uid, h.Kind, items)
	}
	if err != nil {
		return respondError(c, h.Log, err, "Failed to save "+h.label())
	}
	return c.JSON(http.StatusOK, echo.Map{"data": t})
}
