package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/kanchiweave/storefront/internal/handlers"
)

type Deps struct {
	CartHandler     *handlers.CartHandler
	WishlistHandler *handlers.WishlistHandler
	CheckoutHandler *handlers.CheckoutHandler
	PaymentHandler  *handlers.PaymentHandler
	ProxyHandler    *handlers.ProxyHandler
	SearchHandler   *handlers.SearchHandler
	SessionHandler  *handlers.SessionHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	cart := api.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/add", d.CartHandler.AddToCart)
	cart.PUT("/update", d.CartHandler.UpdateQuantity)
	cart.DELETE("/remove/:id", d.CartHandler.RemoveFromCart)
	cart.DELETE("/clear", d.CartHandler.ClearCart)
	cart.POST("/sync", d.CartHandler.SyncCart)

	wishlist := api.Group("/wishlist")
	wishlist.GET("", d.WishlistHandler.GetWishlist)
	wishlist.POST("/add", d.WishlistHandler.AddToWishlist)
	wishlist.DELETE("/remove/:id", d.WishlistHandler.RemoveFromWishlist)
	wishlist.POST("/sync", d.WishlistHandler.SyncWishlist)

	checkout := api.Group("/checkout")
	checkout.GET("", d.CheckoutHandler.GetState)
	checkout.PUT("/user", d.CheckoutHandler.SetUserDetails)
	checkout.PUT("/address", d.CheckoutHandler.SetAddress)
	checkout.PUT("/payment-method", d.CheckoutHandler.SetPaymentMethod)
	checkout.POST("/next", d.CheckoutHandler.Next)
	checkout.POST("/previous", d.CheckoutHandler.Previous)
	checkout.POST("/reset", d.CheckoutHandler.Reset)

	payment := api.Group("/payment")
	payment.POST("/initiate", d.PaymentHandler.Initiate)
	payment.POST("/callback", d.PaymentHandler.Callback)
	payment.POST("/cancel", d.PaymentHandler.Cancel)

	api.POST("/logout", d.SessionHandler.Logout)

	// Surfaces the backend owns outright.
	api.GET("/products", d.ProxyHandler.Forward)
	api.GET("/products/:id", d.ProxyHandler.Forward)
	api.GET("/categories", d.ProxyHandler.Forward)
	api.GET("/profile", d.ProxyHandler.Forward)
	api.PUT("/profile", d.ProxyHandler.Forward)
	api.GET("/addresses", d.ProxyHandler.Forward)
	api.POST("/addresses", d.ProxyHandler.Forward)
	api.PUT("/addresses/:id", d.ProxyHandler.Forward)
	api.DELETE("/addresses/:id", d.ProxyHandler.Forward)

	if d.SearchHandler != nil {
		api.GET("/search", d.SearchHandler.Search)
		api.POST("/search/index", d.SearchHandler.IndexProduct)
	}
}
