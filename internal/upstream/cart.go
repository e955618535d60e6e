package upstream

import (
	"context"
	"net/http"

	"github.com/kanchiweave/storefront/internal/models"
)

type cartResponse struct {
	Cart []models.CartLine `json:"cart"`
}

func (c *Client) FetchCart(ctx context.Context, token string) ([]models.CartLine, error) {
	var resp cartResponse
	if err := c.do(ctx, http.MethodGet, "/api/cart", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}

// AddCartItem mirrors one optimistic add. The backend may answer with its
// own authoritative cart snapshot; a nil slice means it did not.
func (c *Client) AddCartItem(ctx context.Context, token string, line models.CartLine) ([]models.CartLine, error) {
	req := map[string]any{
		"product_id": line.ProductID,
		"quantity":   line.Quantity,
		"price":      line.UnitPrice,
		"name":       line.Name,
		"image":      line.Image,
	}
	if line.Size != nil {
		req["size"] = *line.Size
	}
	var resp cartResponse
	if err := c.do(ctx, http.MethodPost, "/api/cart/add", token, req, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, token, productID string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/remove/"+productID, token, nil, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, token, productID string, quantity int) error {
	req := map[string]any{"product_id": productID, "quantity": quantity}
	return c.do(ctx, http.MethodPut, "/api/cart/update", token, req, nil)
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/clear", token, nil, nil)
}

// SyncCart pushes the full local cart for server-side merge and returns the
// merged result. Always the whole list, never a delta, so a repeated sync
// with unchanged state is idempotent.
func (c *Client) SyncCart(ctx context.Context, token string, lines []models.CartLine) ([]models.CartLine, error) {
	req := map[string]any{"cart": lines}
	var resp struct {
		Success bool              `json:"success"`
		Cart    []models.CartLine `json:"cart"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/cart/sync", token, req, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}
