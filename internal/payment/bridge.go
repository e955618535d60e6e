// Package payment mediates the three-party handshake between shopper,
// backend and payment gateway: create a gateway order, hand the shopper to
// the hosted checkout, verify the returned signature, and only then record
// the order. Verification failing anywhere short-circuits before placement;
// that ordering is the one hard guarantee in the flow.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kanchiweave/storefront/internal/events"
	"github.com/kanchiweave/storefront/internal/models"
	"github.com/kanchiweave/storefront/internal/pricing"
	"github.com/kanchiweave/storefront/internal/upstream"
)

type State string

const (
	StateIdle         State = "idle"
	StateCreated      State = "created"
	StateWidgetOpened State = "widget_opened"
	StateSucceeded    State = "succeeded"
	StateVerified     State = "verified"
	StateOrderPlaced  State = "order_placed"
	StateFailed       State = "failed"
	StateCancelled    State = "cancelled"
)

var (
	// ErrDismissed is returned when the shopper closes the checkout without
	// paying. No order exists; the caller shows a non-blocking notice.
	ErrDismissed = errors.New("payment: checkout dismissed")

	// ErrWidgetUnavailable is the script-load failure: the gateway is not
	// configured or the checkout could not be presented at all.
	ErrWidgetUnavailable = errors.New("payment: checkout unavailable")

	ErrInFlight = errors.New("payment: attempt already in flight")
)

const themeColor = "#8b1d3f"

// Completion is what the hosted checkout reports back after a successful
// payment.
type Completion struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// WidgetConfig parameterizes the hosted checkout overlay.
type WidgetConfig struct {
	Key      string             `json:"key"`
	Amount   float64            `json:"amount"`
	Currency string             `json:"currency"`
	OrderID  string             `json:"order_id"`
	Prefill  models.UserDetails `json:"prefill"`
	Theme    string             `json:"theme"`
}

// Widget presents the checkout to the shopper and blocks until it reports a
// completion or a dismissal.
type Widget interface {
	Open(ctx context.Context, cfg WidgetConfig) (*Completion, error)
}

// Gateway is the backend's payment surface.
type Gateway interface {
	CreatePaymentOrder(ctx context.Context, token string, amount float64) (*upstream.GatewayOrder, error)
	VerifyPayment(ctx context.Context, token, orderID, paymentID, signature string) error
	PlaceOrder(ctx context.Context, token string, req upstream.PlaceOrderRequest) (*models.OrderConfirmation, error)
}

// Request carries everything one payment attempt needs. Items are the cart
// snapshot taken before the gateway order is created, so a cart changing
// mid-flow cannot drift into the recorded order. SessionID keys the
// one-attempt-per-session guard in the Coordinator.
type Request struct {
	SessionID string
	Token     string
	Items     []models.CartLine
	Quote     pricing.Quote
	Prefill   models.UserDetails
}

type Bridge struct {
	key      string
	gateway  Gateway
	producer *events.Producer
	log      *slog.Logger

	mu         sync.Mutex
	state      State
	processing bool
}

func NewBridge(key string, gateway Gateway, producer *events.Producer, log *slog.Logger) *Bridge {
	return &Bridge{
		key:      key,
		gateway:  gateway,
		producer: producer,
		log:      log,
		state:    StateIdle,
	}
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) Processing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processing
}

// Run drives one attempt end to end. Whatever the exit path, the processing
// flag is false afterwards so the shopper can retry.
func (b *Bridge) Run(ctx context.Context, req Request, w Widget) (*models.OrderConfirmation, error) {
	if b.key == "" || w == nil {
		return nil, ErrWidgetUnavailable
	}

	b.mu.Lock()
	if b.processing {
		b.mu.Unlock()
		return nil, ErrInFlight
	}
	b.processing = true
	b.state = StateIdle
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.processing = false
		b.mu.Unlock()
	}()

	items := append([]models.CartLine(nil), req.Items...)

	order, err := b.gateway.CreatePaymentOrder(ctx, req.Token, req.Quote.Total)
	if err != nil {
		b.setState(StateFailed)
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	b.setState(StateCreated)

	b.setState(StateWidgetOpened)
	done, err := w.Open(ctx, WidgetConfig{
		Key:      b.key,
		Amount:   order.Amount,
		Currency: order.Currency,
		OrderID:  order.ID,
		Prefill:  req.Prefill,
		Theme:    themeColor,
	})
	if err != nil {
		if errors.Is(err, ErrDismissed) {
			b.setState(StateCancelled)
			b.log.Info("checkout dismissed", "gateway_order", order.ID)
			return nil, ErrDismissed
		}
		b.setState(StateFailed)
		return nil, fmt.Errorf("open checkout: %w", err)
	}
	b.setState(StateSucceeded)

	if err := b.gateway.VerifyPayment(ctx, req.Token, done.OrderID, done.PaymentID, done.Signature); err != nil {
		b.setState(StateFailed)
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	b.setState(StateVerified)

	conf, err := b.gateway.PlaceOrder(ctx, req.Token, upstream.PlaceOrderRequest{
		PaymentID:      done.PaymentID,
		GatewayOrderID: done.OrderID,
		Items:          items,
		Subtotal:       req.Quote.Subtotal,
		Shipping:       req.Quote.Shipping,
		Total:          req.Quote.Total,
	})
	if err != nil {
		b.setState(StateFailed)
		return nil, fmt.Errorf("place order: %w", err)
	}
	b.setState(StateOrderPlaced)

	event := map[string]any{
		"type":       "order_placed",
		"order_id":   conf.OrderID,
		"payment_id": done.PaymentID,
		"total":      req.Quote.Total,
	}
	if err := b.producer.PublishEvent(ctx, events.TopicOrder, conf.OrderID, event); err != nil {
		b.log.Warn("event publish failed", "error", err)
	}
	return conf, nil
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}
