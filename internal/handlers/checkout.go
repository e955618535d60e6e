package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kanchiweave/storefront/internal/checkout"
	"github.com/kanchiweave/storefront/internal/models"
	"github.com/kanchiweave/storefront/internal/registry"
	"github.com/kanchiweave/storefront/internal/session"
)

type CheckoutHandler struct {
	Sessions *session.Manager
	Registry *registry.Registry
}

func (h *CheckoutHandler) GetState(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	ck := h.Registry.Checkout(c.Request().Context(), sess)
	return c.JSON(http.StatusOK, echo.Map{
		"step":   ck.Step(),
		"form":   ck.Form(),
		"errors": ck.Errors(),
	})
}

func (h *CheckoutHandler) SetUserDetails(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	ck := h.Registry.Checkout(c.Request().Context(), sess)

	var u models.UserDetails
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	ck.SetUserDetails(u)
	return c.JSON(http.StatusOK, echo.Map{"step": ck.Step()})
}

func (h *CheckoutHandler) SetAddress(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	ck := h.Registry.Checkout(c.Request().Context(), sess)

	var req struct {
		SelectedAddressID string          `json:"selected_address_id"`
		NewAddress        *models.Address `json:"new_address"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.NewAddress != nil && req.NewAddress.Country == "" {
		req.NewAddress.Country = "India"
	}
	ck.SetAddress(req.SelectedAddressID, req.NewAddress)
	return c.JSON(http.StatusOK, echo.Map{"step": ck.Step()})
}

func (h *CheckoutHandler) SetPaymentMethod(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	ck := h.Registry.Checkout(c.Request().Context(), sess)

	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	ck.SetPaymentMethod(req.PaymentMethod)
	return c.JSON(http.StatusOK, echo.Map{"step": ck.Step()})
}

// Next advances the wizard. Field errors come back with 422 and the step
// unchanged; a COD submission failure is a blocking 502 with the cart left
// intact for retry.
func (h *CheckoutHandler) Next(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	ck := h.Registry.Checkout(c.Request().Context(), sess)

	outcome, err := ck.Next(c.Request().Context())
	if errors.Is(err, checkout.ErrSubmitInFlight) {
		return echo.NewHTTPError(http.StatusConflict, "order submission already in progress")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if len(outcome.Errors) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, outcome)
	}
	return c.JSON(http.StatusOK, outcome)
}

func (h *CheckoutHandler) Previous(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	ck := h.Registry.Checkout(c.Request().Context(), sess)
	return c.JSON(http.StatusOK, echo.Map{"step": ck.Previous()})
}

func (h *CheckoutHandler) Reset(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	ck := h.Registry.Checkout(c.Request().Context(), sess)
	ck.Reset()
	return c.JSON(http.StatusOK, echo.Map{"step": ck.Step()})
}
