package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kanchiweave/storefront/internal/logging"
	"github.com/kanchiweave/storefront/internal/registry"
	"github.com/kanchiweave/storefront/internal/session"
)

type SessionHandler struct {
	Sessions *session.Manager
	Registry *registry.Registry
}

// Logout drops the session's local state: stores and cached snapshots. The
// token itself is the client's to discard.
func (h *SessionHandler) Logout(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	if err := h.Registry.EndSession(c.Request().Context(), sess); err != nil {
		logging.FromContext(c.Request().Context()).Warn("session purge failed", "error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
