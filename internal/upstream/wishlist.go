package upstream

import (
	"context"
	"net/http"

	"github.com/kanchiweave/storefront/internal/models"
)

type wishlistResponse struct {
	Wishlist []models.WishlistEntry `json:"wishlist"`
}

func (c *Client) FetchWishlist(ctx context.Context, token string) ([]models.WishlistEntry, error) {
	var resp wishlistResponse
	if err := c.do(ctx, http.MethodGet, "/api/wishlist", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Wishlist, nil
}

func (c *Client) AddWishlistItem(ctx context.Context, token string, entry models.WishlistEntry) error {
	return c.do(ctx, http.MethodPost, "/api/wishlist/add", token, entry, nil)
}

func (c *Client) RemoveWishlistItem(ctx context.Context, token, productID string) error {
	return c.do(ctx, http.MethodDelete, "/api/wishlist/remove/"+productID, token, nil, nil)
}

// SyncWishlist posts the full local list for server-side merge and returns
// the merged result.
func (c *Client) SyncWishlist(ctx context.Context, token string, entries []models.WishlistEntry) ([]models.WishlistEntry, error) {
	req := map[string]any{"wishlist": entries}
	var resp struct {
		Success  bool                   `json:"success"`
		Wishlist []models.WishlistEntry `json:"wishlist"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/wishlist/sync", token, req, &resp); err != nil {
		return nil, err
	}
	return resp.Wishlist, nil
}
