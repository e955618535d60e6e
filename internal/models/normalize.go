package models

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrNoProductID = errors.New("product id missing")

// LineFromProduct builds a canonical CartLine from a loosely shaped product
// payload. Product surfaces disagree on field names (id vs product_id,
// name vs product_name), so everything is normalized here, at the boundary,
// and nowhere else.
func LineFromProduct(raw map[string]any) (CartLine, error) {
	id := pickString(raw, "product_id", "id", "productId")
	if id == "" {
		return CartLine{}, ErrNoProductID
	}

	line := CartLine{
		ProductID: id,
		Name:      pickString(raw, "name", "product_name", "productName"),
		Category:  pickString(raw, "category", "category_name", "categoryName"),
		Image:     pickString(raw, "image", "primary_image", "primaryImage"),
		UnitPrice: pickFloat(raw, "price", "unit_price", "unitPrice"),
		Quantity:  1,
	}
	if q := int(pickFloat(raw, "quantity")); q > 1 {
		line.Quantity = q
	}
	if size := pickString(raw, "size", "selected_size", "selectedSize"); size != "" {
		line.Size = &size
	}
	return line, nil
}

// EntryFromProduct is the wishlist counterpart of LineFromProduct.
func EntryFromProduct(raw map[string]any) (WishlistEntry, error) {
	id := pickString(raw, "product_id", "id", "productId")
	if id == "" {
		return WishlistEntry{}, ErrNoProductID
	}
	return WishlistEntry{
		ProductID:   id,
		Name:        pickString(raw, "name", "product_name", "productName"),
		Price:       pickFloat(raw, "price"),
		ActualPrice: pickFloat(raw, "actual_price", "actualPrice"),
		Discount:    pickFloat(raw, "discount"),
		Image:       pickString(raw, "image", "primary_image", "primaryImage"),
	}, nil
}

func pickString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func pickFloat(raw map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		case int:
			return float64(v)
		}
	}
	return 0
}

// String renders the line in a compact debug form.
func (l CartLine) String() string {
	return fmt.Sprintf("%s x%d @%.2f", l.ProductID, l.Quantity, l.UnitPrice)
}
