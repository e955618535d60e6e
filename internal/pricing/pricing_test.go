package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kanchiweave/storefront/internal/models"
)

func lines(price float64, qty int) []models.CartLine {
	return []models.CartLine{{ProductID: "A1", UnitPrice: price, Quantity: qty}}
}

func TestQuoteEmptyCart(t *testing.T) {
	q := ForLines(nil)
	require.Equal(t, Quote{}, q)
}

func TestFlatShippingBelowBand(t *testing.T) {
	q := ForLines(lines(250, 2))
	require.Equal(t, 500.0, q.Subtotal)
	require.Equal(t, FlatShipping, q.Shipping)
	require.Equal(t, 600.0, q.Total)
}

func TestShippingBoundaryAtOneThousand(t *testing.T) {
	// The band is strict: exactly 1000 does not qualify for free shipping.
	q := ForLines(lines(500, 2))
	require.Equal(t, 1000.0, q.Subtotal)
	require.Equal(t, FlatShipping, q.Shipping)
	require.Equal(t, 1100.0, q.Total)

	q = ForLines(lines(500.5, 2))
	require.Equal(t, 0.0, q.Shipping)
}

func TestFreeShippingInsideBand(t *testing.T) {
	q := ForLines(lines(1500, 3))
	require.Equal(t, 4500.0, q.Subtotal)
	require.Equal(t, 0.0, q.Shipping)
	require.Equal(t, 4500.0, q.Total)
}

func TestShippingBoundaryAtSevenThousand(t *testing.T) {
	q := ForLines(lines(6999, 1))
	require.Equal(t, 0.0, q.Shipping)

	q = ForLines(lines(7000, 1))
	require.Equal(t, FlatShipping, q.Shipping)
}

func TestTotalsAreAdditive(t *testing.T) {
	mixed := []models.CartLine{
		{ProductID: "A1", UnitPrice: 499.5, Quantity: 2},
		{ProductID: "B2", UnitPrice: 120, Quantity: 1},
		{ProductID: "C3", UnitPrice: 80, Quantity: 5},
	}
	require.Equal(t, 499.5*2+120+80*5, Subtotal(mixed))
	require.Equal(t, 8, TotalItems(mixed))
}
