package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kanchiweave/storefront/internal/logging"
	"github.com/kanchiweave/storefront/internal/models"
	"github.com/kanchiweave/storefront/internal/registry"
	"github.com/kanchiweave/storefront/internal/session"
)

type WishlistHandler struct {
	Sessions *session.Manager
	Registry *registry.Registry
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Wishlist(c.Request().Context(), sess)
	return c.JSON(http.StatusOK, echo.Map{"wishlist": store.Entries()})
}

func (h *WishlistHandler) AddToWishlist(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Wishlist(c.Request().Context(), sess)

	var raw map[string]any
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	entry, err := models.EntryFromProduct(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	store.Add(c.Request().Context(), entry)
	return c.JSON(http.StatusOK, echo.Map{"wishlist": store.Entries()})
}

func (h *WishlistHandler) RemoveFromWishlist(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Wishlist(c.Request().Context(), sess)

	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	store.Remove(c.Request().Context(), id)
	return c.JSON(http.StatusOK, echo.Map{"wishlist": store.Entries()})
}

func (h *WishlistHandler) SyncWishlist(c echo.Context) error {
	sess := h.Sessions.FromRequest(c)
	store := h.Registry.Wishlist(c.Request().Context(), sess)

	synced := true
	if err := store.Sync(c.Request().Context()); err != nil {
		logging.FromContext(c.Request().Context()).Warn("wishlist sync failed", "error", err)
		synced = false
	}
	return c.JSON(http.StatusOK, echo.Map{"wishlist": store.Entries(), "synced": synced})
}
