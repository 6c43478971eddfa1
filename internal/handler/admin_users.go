package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/service"
)

// AdminHandler serves account management for admins.  Routes are expected
// to sit behind middleware.RequireAdmin.
type AdminHandler struct {
	Auth *service.AuthService
	Log  *zap.Logger
}

func NewAdminHandler(auth *service.AuthService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Auth: auth, Log: orNop(log)}
}

type adminUserReq struct {
	UserID uint64 `json:"userId"`
	Status string `json:"status"`
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	users, err := h.Auth.ListUsers(ctx)
	if err != nil {
		return respondError(c, h.Log, err, "Internal server error")
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewUser(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req adminUserReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.UserID == 0 {
		return errJSON(c, http.StatusBadRequest, "User ID is required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Auth.DeleteUser(ctx, actorID, req.UserID); err != nil {
		return respondError(c, h.Log, err, "Failed to delete user")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AdminHandler) UpdateUserStatus(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	var req adminUserReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.UserID == 0 || req.Status == "" {
		return errJSON(c, http.StatusBadRequest, "User ID and status are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Auth.UpdateUserStatus(ctx, actorID, req.UserID, req.Status); err != nil {
		return respondError(c, h.Log, err, "Failed to update user status")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
