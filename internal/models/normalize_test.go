package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineFromProductSnakeCase(t *testing.T) {
	line, err := LineFromProduct(map[string]any{
		"product_id":    "A1",
		"product_name":  "Banarasi Silk",
		"category_name": "silk",
		"primary_image": "a1.jpg",
		"unit_price":    4200.0,
		"selected_size": "free",
	})
	require.NoError(t, err)
	require.Equal(t, "A1", line.ProductID)
	require.Equal(t, "Banarasi Silk", line.Name)
	require.Equal(t, "silk", line.Category)
	require.Equal(t, "a1.jpg", line.Image)
	require.Equal(t, 4200.0, line.UnitPrice)
	require.Equal(t, 1, line.Quantity)
	require.NotNil(t, line.Size)
	require.Equal(t, "free", *line.Size)
}

func TestLineFromProductCamelCase(t *testing.T) {
	line, err := LineFromProduct(map[string]any{
		"productId": "B2",
		"name":      "Cotton Saree",
		"price":     750.0,
		"quantity":  3.0,
	})
	require.NoError(t, err)
	require.Equal(t, "B2", line.ProductID)
	require.Equal(t, 750.0, line.UnitPrice)
	require.Equal(t, 3, line.Quantity)
	require.Nil(t, line.Size)
}

func TestLineFromProductNumericID(t *testing.T) {
	// some payloads carry ids as JSON numbers
	line, err := LineFromProduct(map[string]any{"id": 17.0, "price": "499.50"})
	require.NoError(t, err)
	require.Equal(t, "17", line.ProductID)
	require.Equal(t, 499.5, line.UnitPrice)
}

func TestLineFromProductMissingID(t *testing.T) {
	_, err := LineFromProduct(map[string]any{"name": "orphan"})
	require.ErrorIs(t, err, ErrNoProductID)
}

func TestEntryFromProduct(t *testing.T) {
	e, err := EntryFromProduct(map[string]any{
		"product_id":   "C3",
		"name":         "Chiffon Saree",
		"price":        999.0,
		"actual_price": 1499.0,
		"discount":     33.0,
	})
	require.NoError(t, err)
	require.Equal(t, "C3", e.ProductID)
	require.Equal(t, 999.0, e.Price)
	require.Equal(t, 1499.0, e.ActualPrice)
	require.Equal(t, 33.0, e.Discount)
}

func TestEntryFromProductMissingID(t *testing.T) {
	_, err := EntryFromProduct(map[string]any{"name": "orphan"})
	require.ErrorIs(t, err, ErrNoProductID)
}

func TestCartLineString(t *testing.T) {
	line := CartLine{ProductID: "A1", UnitPrice: 499.5, Quantity: 2}
	require.Equal(t, "A1 x2 @499.50", line.String())
}
