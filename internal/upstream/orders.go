package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kanchiweave/storefront/internal/models"
)

type PlaceOrderRequest struct {
	PaymentID      string            `json:"razorpay_payment_id"`
	GatewayOrderID string            `json:"razorpay_order_id"`
	Items          []models.CartLine `json:"items"`
	Subtotal       float64           `json:"subtotal"`
	Shipping       float64           `json:"shipping"`
	Total          float64           `json:"total"`
}

type CODOrderRequest struct {
	User          models.UserDetails `json:"user"`
	Address       models.Address     `json:"address"`
	PaymentMethod string             `json:"payment_method"`
	PaymentStatus string             `json:"payment_status"`
	Items         []models.CartLine  `json:"items"`
	Subtotal      float64            `json:"subtotal"`
	Shipping      float64            `json:"shipping"`
	Total         float64            `json:"total"`
}

// PlaceOrder records a paid online order. Only valid after VerifyPayment
// succeeded for the same payment.
func (c *Client) PlaceOrder(ctx context.Context, token string, req PlaceOrderRequest) (*models.OrderConfirmation, error) {
	var resp struct {
		Success bool `json:"success"`
		Order   struct {
			OrderID     string `json:"order_id"`
			OrderNumber string `json:"order_number"`
			CreatedAt   string `json:"created_at"`
		} `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/orders/place", token, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("upstream: place order rejected")
	}
	return &models.OrderConfirmation{
		OrderID:     resp.Order.OrderID,
		OrderNumber: resp.Order.OrderNumber,
		PaymentID:   req.PaymentID,
		Subtotal:    req.Subtotal,
		Shipping:    req.Shipping,
		Total:       req.Total,
		CreatedAt:   resp.Order.CreatedAt,
	}, nil
}

// CreateCODOrder records a cash-on-delivery order. The backend answers with
// either snake_case or camelCase identifiers depending on its version, so
// both are accepted.
func (c *Client) CreateCODOrder(ctx context.Context, token string, req CODOrderRequest) (*models.OrderConfirmation, error) {
	var resp struct {
		Success     bool   `json:"success"`
		OrderID     string `json:"order_id"`
		OrderIDAlt  string `json:"orderId"`
		OrderNum    string `json:"order_number"`
		OrderNumAlt string `json:"orderNumber"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/orders/create", token, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("upstream: create order rejected")
	}
	conf := &models.OrderConfirmation{
		OrderID:     resp.OrderID,
		OrderNumber: resp.OrderNum,
		Subtotal:    req.Subtotal,
		Shipping:    req.Shipping,
		Total:       req.Total,
	}
	if conf.OrderID == "" {
		conf.OrderID = resp.OrderIDAlt
	}
	if conf.OrderNumber == "" {
		conf.OrderNumber = resp.OrderNumAlt
	}
	return conf, nil
}
