package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kanchiweave/storefront/internal/payment"
	"github.com/kanchiweave/storefront/internal/pricing"
	"github.com/kanchiweave/storefront/internal/registry"
	"github.com/kanchiweave/storefront/internal/session"
)

type PaymentHandler struct {
	Sessions    *session.Manager
	Registry    *registry.Registry
	Coordinator *payment.Coordinator
}

// Initiate creates the gateway order and answers with the widget config the
// browser needs to open the hosted checkout. The cart snapshot is captured
// here, before the gateway order exists, so mid-flow cart edits cannot
// drift into the recorded order.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Cart(c.Request().Context(), sess)
	ck := h.Registry.Checkout(c.Request().Context(), sess)

	lines := store.Lines()
	if len(lines) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	attemptID, cfg, err := h.Coordinator.Start(payment.Request{
		SessionID: sess.ID,
		Token:     sess.Token,
		Items:     lines,
		Quote:     pricing.ForLines(lines),
		Prefill:   ck.Form().User,
	})
	if errors.Is(err, payment.ErrInFlight) {
		return echo.NewHTTPError(http.StatusConflict, "payment already in progress")
	}
	if errors.Is(err, payment.ErrWidgetUnavailable) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "payment checkout unavailable")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"attempt_id": attemptID, "config": cfg})
}

// Callback resumes a parked attempt with the gateway's completion values.
// Verification and placement failures are blocking errors; the attempt's
// flags are already reset so the shopper may retry.
func (h *PaymentHandler) Callback(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)

	var req struct {
		AttemptID string `json:"attempt_id"`
		payment.Completion
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	conf, err := h.Coordinator.Complete(req.AttemptID, req.Completion)
	if errors.Is(err, payment.ErrNoAttempt) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown payment attempt")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	ctx := c.Request().Context()
	h.Registry.Cart(ctx, sess).Clear(ctx)
	h.Registry.Checkout(ctx, sess).Reset()
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": conf})
}

// Cancel handles the shopper closing the checkout overlay: a non-blocking
// notice, no order anywhere.
func (h *PaymentHandler) Cancel(c echo.Context) error {
	var req struct {
		AttemptID string `json:"attempt_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err := h.Coordinator.Dismiss(req.AttemptID)
	if errors.Is(err, payment.ErrNoAttempt) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown payment attempt")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": false, "notice": "payment cancelled"})
}
