package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kanchiweave/storefront/internal/session"
	"github.com/kanchiweave/storefront/internal/upstream"
)

// ProxyHandler forwards the profile, address and catalog surfaces straight
// to the backend. The storefront does not reshape these; it only attaches
// the bearer token and maps a 401 to a session-expired signal so the UI can
// send the shopper back to sign-in.
type ProxyHandler struct {
	Sessions *session.Manager
	Upstream *upstream.Client
}

func (h *ProxyHandler) Forward(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)

	var body []byte
	if c.Request().Body != nil {
		var err error
		body, err = io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "read body")
		}
	}

	path := c.Request().URL.Path
	if q := c.Request().URL.RawQuery; q != "" {
		path += "?" + q
	}

	status, data, err := h.Upstream.Passthrough(c.Request().Context(), c.Request().Method, path, sess.Token, body)
	if errors.Is(err, upstream.ErrUnauthorized) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session_expired"})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSONBlob(status, data)
}
