package upstream

import (
	"context"
	"fmt"
	"net/http"
)

type GatewayOrder struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func (c *Client) CreatePaymentOrder(ctx context.Context, token string, amount float64) (*GatewayOrder, error) {
	req := map[string]any{"amount": amount}
	var resp struct {
		Success bool         `json:"success"`
		Order   GatewayOrder `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/payment/create-order", token, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Order.ID == "" {
		return nil, fmt.Errorf("upstream: create-order rejected")
	}
	return &resp.Order, nil
}

// VerifyPayment asks the backend to check the gateway signature. A response
// without success means the completion callback could not be trusted; the
// caller must not place the order.
func (c *Client) VerifyPayment(ctx context.Context, token, orderID, paymentID, signature string) error {
	req := map[string]any{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
		"razorpay_signature":  signature,
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/payment/verify", token, req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return ErrVerificationFailed
	}
	return nil
}
