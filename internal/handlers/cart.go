package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kanchiweave/storefront/internal/logging"
	"github.com/kanchiweave/storefront/internal/models"
	"github.com/kanchiweave/storefront/internal/pricing"
	"github.com/kanchiweave/storefront/internal/registry"
	"github.com/kanchiweave/storefront/internal/session"
)

type CartHandler struct {
	Sessions *session.Manager
	Registry *registry.Registry
}

func (h *CartHandler) GetCart(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Cart(c.Request().Context(), sess)

	lines := store.Lines()
	return c.JSON(http.StatusOK, echo.Map{
		"cart":        lines,
		"total_items": pricing.TotalItems(lines),
		"quote":       pricing.ForLines(lines),
	})
}

// AddToCart accepts any product-shaped payload and normalizes it at the
// boundary. It always succeeds once the payload has an id: the backend
// mirror is fire-and-forget.
func (h *CartHandler) AddToCart(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Cart(c.Request().Context(), sess)

	var raw map[string]any
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	line, err := models.LineFromProduct(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	store.Add(c.Request().Context(), line)
	lines := store.Lines()
	return c.JSON(http.StatusOK, echo.Map{
		"cart":        lines,
		"total_items": pricing.TotalItems(lines),
		"quote":       pricing.ForLines(lines),
	})
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Cart(c.Request().Context(), sess)

	var req struct {
		ProductID string `json:"product_id"`
		Delta     int    `json:"delta"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id required")
	}
	if req.Delta == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "delta must be non-zero")
	}

	store.UpdateQuantity(c.Request().Context(), req.ProductID, req.Delta)
	return c.JSON(http.StatusOK, echo.Map{"cart": store.Lines()})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Cart(c.Request().Context(), sess)

	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	store.Remove(c.Request().Context(), id)
	return c.JSON(http.StatusOK, echo.Map{"cart": store.Lines()})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Cart(c.Request().Context(), sess)
	store.Clear(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"cart": []models.CartLine{}})
}

// SyncCart pushes the locally held cart up for merge after login. A failed
// sync keeps the local state and is reported as synced=false, never as a
// blocking error.
func (h *CartHandler) SyncCart(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Cart(c.Request().Context(), sess)

	synced := true
	if err := store.Sync(c.Request().Context()); err != nil {
		logging.FromContext(c.Request().Context()).Warn("cart sync failed", "error", err)
		synced = false
	}
	return c.JSON(http.StatusOK, echo.Map{"cart": store.Lines(), "synced": synced})
}
