// Package pricing is the single place order totals are computed. Every
// surface that shows a subtotal, shipping fee or grand total goes through
// ForLines; no screen carries its own formula.
package pricing

import "github.com/kanchiweave/storefront/internal/models"

const (
	// FlatShipping applies outside the promotional band.
	FlatShipping = 100.0

	// Free shipping when freeShippingFloor < subtotal < freeShippingCeil.
	// Both bounds are strict: a subtotal of exactly 1000 still ships at
	// the flat rate.
	freeShippingFloor = 1000.0
	freeShippingCeil  = 7000.0
)

type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

func Subtotal(lines []models.CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.UnitPrice * float64(l.Quantity)
	}
	return sum
}

func TotalItems(lines []models.CartLine) int {
	var n int
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func ForLines(lines []models.CartLine) Quote {
	if len(lines) == 0 {
		return Quote{}
	}
	q := Quote{Subtotal: Subtotal(lines), Shipping: FlatShipping}
	if q.Subtotal > freeShippingFloor && q.Subtotal < freeShippingCeil {
		q.Shipping = 0
	}
	q.Total = q.Subtotal + q.Shipping
	return q
}
