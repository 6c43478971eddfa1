package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/service"
)

// NoteHandler serves the free-text note kept per month.  An empty month
// addresses the user's general note.
type NoteHandler struct {
	Notes *repository.NoteRepo
	Log   *zap.Logger
}

func NewNoteHandler(notes *repository.NoteRepo, log *zap.Logger) *NoteHandler {
	if notes == nil {
		panic("nil repository passed to NewNoteHandler")
	}
	return &NoteHandler{Notes: notes, Log: orNop(log)}
}

type noteReq struct {
	Month                  string  `json:"month"`
	Content                string  `json:"content"`
	CreditCardTrackerTitle *string `json:"credit_card_tracker_title"`
}

func validNoteMonth(m string) bool { return m == "" || model.ValidMonth(m) }

func (h *NoteHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	month := c.QueryParam("month")
	if !validNoteMonth(month) {
		return errJSON(c, http.StatusBadRequest, service.ErrInvalidMonth.Error())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Notes.Get(ctx, uid, month)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"data": nil})
	}
	if err != nil {
		return respondError(c, h.Log, err, "Failed to fetch note")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": n})
}

// Save creates or updates the note.  Omitting credit_card_tracker_title
// keeps the stored title.
func (h *NoteHandler) Save(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if !validNoteMonth(req.Month) {
		return errJSON(c, http.StatusBadRequest, service.ErrInvalidMonth.Error())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Notes.Upsert(ctx, &model.Note{
		UserID:                 uid,
		Month:                  req.Month,
		Content:                req.Content,
		CreditCardTrackerTitle: req.CreditCardTrackerTitle,
	})
	if err != nil {
		return respondError(c, h.Log, err, "Failed to save note")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": n})
}
