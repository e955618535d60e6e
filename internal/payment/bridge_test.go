package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kanchiweave/storefront/internal/models"
	"github.com/kanchiweave/storefront/internal/pricing"
	"github.com/kanchiweave/storefront/internal/upstream"
)

type fakeGateway struct {
	mu sync.Mutex

	createCalls int
	createErr   error
	order       upstream.GatewayOrder

	verifyCalls int
	verifyErr   error

	placeCalls []upstream.PlaceOrderRequest
	placeErr   error
	conf       *models.OrderConfirmation
}

func (g *fakeGateway) CreatePaymentOrder(ctx context.Context, token string, amount float64) (*upstream.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	o := g.order
	if o.ID == "" {
		o = upstream.GatewayOrder{ID: "rzp_order_1", Amount: amount, Currency: "INR"}
	}
	return &o, nil
}

func (g *fakeGateway) VerifyPayment(ctx context.Context, token, orderID, paymentID, signature string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	return g.verifyErr
}

func (g *fakeGateway) PlaceOrder(ctx context.Context, token string, req upstream.PlaceOrderRequest) (*models.OrderConfirmation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.placeCalls = append(g.placeCalls, req)
	if g.placeErr != nil {
		return nil, g.placeErr
	}
	return g.conf, nil
}

// scriptedWidget reports a fixed completion or dismissal without parking.
type scriptedWidget struct {
	completion *Completion
	err        error
	opened     []WidgetConfig
}

func (w *scriptedWidget) Open(ctx context.Context, cfg WidgetConfig) (*Completion, error) {
	w.opened = append(w.opened, cfg)
	if w.err != nil {
		return nil, w.err
	}
	return w.completion, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRequest() Request {
	return Request{
		SessionID: "user:1",
		Token:     "tok",
		Items: []models.CartLine{
			{ProductID: "A1", Name: "Silk Saree", UnitPrice: 4200, Quantity: 1},
		},
		Quote:   pricing.Quote{Subtotal: 4200, Shipping: 0, Total: 4200},
		Prefill: models.UserDetails{FirstName: "Meera", Email: "meera@example.com", Phone: "9876543210"},
	}
}

func TestRunHappyPath(t *testing.T) {
	gw := &fakeGateway{conf: &models.OrderConfirmation{OrderID: "ord-1", Total: 4200}}
	w := &scriptedWidget{completion: &Completion{
		OrderID:   "rzp_order_1",
		PaymentID: "pay_1",
		Signature: "sig",
	}}
	b := NewBridge("rzp_key", gw, nil, testLogger())

	conf, err := b.Run(context.Background(), testRequest(), w)
	require.NoError(t, err)
	require.Equal(t, "ord-1", conf.OrderID)
	require.Equal(t, StateOrderPlaced, b.State())
	require.False(t, b.Processing())

	require.Len(t, w.opened, 1)
	require.Equal(t, "rzp_key", w.opened[0].Key)
	require.Equal(t, "rzp_order_1", w.opened[0].OrderID)
	require.Equal(t, 4200.0, w.opened[0].Amount)

	require.Len(t, gw.placeCalls, 1)
	placed := gw.placeCalls[0]
	require.Equal(t, "pay_1", placed.PaymentID)
	require.Equal(t, "rzp_order_1", placed.GatewayOrderID)
	require.Len(t, placed.Items, 1)
	require.Equal(t, 4200.0, placed.Total)
}

func TestFailedVerificationNeverPlacesOrder(t *testing.T) {
	gw := &fakeGateway{verifyErr: upstream.ErrVerificationFailed}
	w := &scriptedWidget{completion: &Completion{OrderID: "rzp_order_1", PaymentID: "pay_1", Signature: "bad"}}
	b := NewBridge("rzp_key", gw, nil, testLogger())

	_, err := b.Run(context.Background(), testRequest(), w)
	require.ErrorIs(t, err, upstream.ErrVerificationFailed)
	require.Equal(t, StateFailed, b.State())
	require.False(t, b.Processing())
	require.Equal(t, 1, gw.verifyCalls)
	require.Empty(t, gw.placeCalls)
}

func TestDismissedCheckoutCancelsWithoutVerifyOrPlace(t *testing.T) {
	gw := &fakeGateway{}
	w := &scriptedWidget{err: ErrDismissed}
	b := NewBridge("rzp_key", gw, nil, testLogger())

	_, err := b.Run(context.Background(), testRequest(), w)
	require.ErrorIs(t, err, ErrDismissed)
	require.Equal(t, StateCancelled, b.State())
	require.False(t, b.Processing())
	require.Zero(t, gw.verifyCalls)
	require.Empty(t, gw.placeCalls)
}

func TestMissingKeyMeansWidgetUnavailable(t *testing.T) {
	gw := &fakeGateway{}
	b := NewBridge("", gw, nil, testLogger())

	_, err := b.Run(context.Background(), testRequest(), &scriptedWidget{})
	require.ErrorIs(t, err, ErrWidgetUnavailable)
	require.Zero(t, gw.createCalls)
}

func TestCreateOrderFailureStopsBeforeWidget(t *testing.T) {
	gw := &fakeGateway{createErr: errors.New("gateway down")}
	w := &scriptedWidget{}
	b := NewBridge("rzp_key", gw, nil, testLogger())

	_, err := b.Run(context.Background(), testRequest(), w)
	require.Error(t, err)
	require.Equal(t, StateFailed, b.State())
	require.Empty(t, w.opened)
}

func TestCoordinatorCompleteFlow(t *testing.T) {
	gw := &fakeGateway{conf: &models.OrderConfirmation{OrderID: "ord-1"}}
	c := NewCoordinator("rzp_key", gw, nil, testLogger())

	id, cfg, err := c.Start(testRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, "rzp_order_1", cfg.OrderID)

	conf, err := c.Complete(id, Completion{OrderID: "rzp_order_1", PaymentID: "pay_1", Signature: "sig"})
	require.NoError(t, err)
	require.Equal(t, "ord-1", conf.OrderID)

	// the attempt is gone once resumed
	_, err = c.Complete(id, Completion{})
	require.ErrorIs(t, err, ErrNoAttempt)
}

func TestCoordinatorDismissFlow(t *testing.T) {
	gw := &fakeGateway{}
	c := NewCoordinator("rzp_key", gw, nil, testLogger())

	id, _, err := c.Start(testRequest())
	require.NoError(t, err)

	require.NoError(t, c.Dismiss(id))
	require.Zero(t, gw.verifyCalls)
	require.Empty(t, gw.placeCalls)
}

func TestCoordinatorStartFailsFastOnGatewayError(t *testing.T) {
	gw := &fakeGateway{createErr: errors.New("gateway down")}
	c := NewCoordinator("rzp_key", gw, nil, testLogger())

	_, _, err := c.Start(testRequest())
	require.Error(t, err)

	// a fast failure frees the session immediately
	_, _, err = c.Start(testRequest())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInFlight)
}

func TestSecondStartForSameSessionIsRejected(t *testing.T) {
	gw := &fakeGateway{conf: &models.OrderConfirmation{OrderID: "ord-1"}}
	c := NewCoordinator("rzp_key", gw, nil, testLogger())

	id, _, err := c.Start(testRequest())
	require.NoError(t, err)

	_, _, err = c.Start(testRequest())
	require.ErrorIs(t, err, ErrInFlight)

	// a different session is unaffected
	other := testRequest()
	other.SessionID = "user:2"
	otherID, _, err := c.Start(other)
	require.NoError(t, err)
	require.NoError(t, c.Dismiss(otherID))

	conf, err := c.Complete(id, Completion{OrderID: "rzp_order_1", PaymentID: "pay_1", Signature: "sig"})
	require.NoError(t, err)
	require.Equal(t, "ord-1", conf.OrderID)
	require.Len(t, gw.placeCalls, 1)

	// the session is free again once the attempt resolved
	retry, _, err := c.Start(testRequest())
	require.NoError(t, err)
	require.NoError(t, c.Dismiss(retry))
	require.Len(t, gw.placeCalls, 1)
}

func TestAbandonedAttemptIsReapedAfterTimeout(t *testing.T) {
	gw := &fakeGateway{}
	c := NewCoordinator("rzp_key", gw, nil, testLogger())
	c.timeout = 50 * time.Millisecond

	id, _, err := c.Start(testRequest())
	require.NoError(t, err)

	// the shopper never calls back; once the run times out the parked
	// attempt and the session's in-flight slot are both dropped
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.attempts) == 0 && len(c.inflight) == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, err = c.Complete(id, Completion{OrderID: "rzp_order_1", PaymentID: "pay_1", Signature: "sig"})
	require.ErrorIs(t, err, ErrNoAttempt)
	require.Empty(t, gw.placeCalls)

	// and the session can start over
	retry, _, err := c.Start(testRequest())
	require.NoError(t, err)
	require.NoError(t, c.Dismiss(retry))
}
