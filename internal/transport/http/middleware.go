package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/kanchiweave/storefront/internal/logging"
)

// RequestLogger puts a request-scoped logger into the request context so
// handlers and everything below them log with the request id attached.
// Must run after the RequestID middleware.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := log
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				l = log.With("request_id", id)
			}
			ctx := logging.IntoContext(c.Request().Context(), l)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
