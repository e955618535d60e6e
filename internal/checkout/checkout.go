// Package checkout drives the four-step wizard: user details, delivery
// address, payment method, review. A step only advances once its fields
// validate; submission at the review step creates the order, through the
// COD path or by handing off to the payment bridge.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kanchiweave/storefront/internal/cart"
	"github.com/kanchiweave/storefront/internal/events"
	"github.com/kanchiweave/storefront/internal/models"
	"github.com/kanchiweave/storefront/internal/pricing"
	"github.com/kanchiweave/storefront/internal/session"
	"github.com/kanchiweave/storefront/internal/upstream"
)

type Step int

const (
	StepUserDetails Step = iota + 1
	StepAddress
	StepPayment
	StepReview
)

const (
	PaymentCOD    = "cod"
	PaymentOnline = "onlinePayment"
)

var ErrSubmitInFlight = errors.New("checkout: submission already in flight")

// OrderPlacer is the slice of the backend that records COD orders.
type OrderPlacer interface {
	CreateCODOrder(ctx context.Context, token string, req upstream.CODOrderRequest) (*models.OrderConfirmation, error)
}

type Form struct {
	User              models.UserDetails `json:"user"`
	SelectedAddressID string             `json:"selected_address_id,omitempty"`
	NewAddress        *models.Address    `json:"new_address,omitempty"`
	PaymentMethod     string             `json:"payment_method,omitempty"`
}

// Outcome reports what one Next call did. Errors non-empty means the step
// did not advance; NeedsPayment means the online flow must now run through
// the payment bridge; Confirmation means a COD order was recorded.
type Outcome struct {
	Step         Step                      `json:"step"`
	Errors       map[string]string         `json:"errors,omitempty"`
	NeedsPayment bool                      `json:"needs_payment,omitempty"`
	Confirmation *models.OrderConfirmation `json:"confirmation,omitempty"`
}

// Session is one shopper's checkout state. It is ephemeral: a restart drops
// it and the shopper starts the wizard over.
type Session struct {
	sess     session.Session
	cart     *cart.Store
	placer   OrderPlacer
	producer *events.Producer
	log      *slog.Logger

	mu         sync.Mutex
	step       Step
	form       Form
	fieldErrs  map[string]string
	submitting bool
}

func NewSession(sess session.Session, c *cart.Store, placer OrderPlacer, producer *events.Producer, log *slog.Logger) *Session {
	return &Session{
		sess:     sess,
		cart:     c,
		placer:   placer,
		producer: producer,
		log:      log.With("session", sess.ID),
		step:     StepUserDetails,
	}
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) Errors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.fieldErrs))
	for k, v := range s.fieldErrs {
		out[k] = v
	}
	return out
}

func (s *Session) SetUserDetails(u models.UserDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.User = u
}

// SetAddress records either a saved address reference or a freshly entered
// one; setting one clears the other.
func (s *Session) SetAddress(selectedID string, addr *models.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.SelectedAddressID = selectedID
	s.form.NewAddress = addr
	if selectedID != "" {
		s.form.NewAddress = nil
	}
}

func (s *Session) SetPaymentMethod(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.PaymentMethod = method
}

// Previous moves back one step and clears field errors. Always allowed above
// step 1.
func (s *Session) Previous() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step > StepUserDetails {
		s.step--
	}
	s.fieldErrs = nil
	return s.step
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = StepUserDetails
	s.form = Form{}
	s.fieldErrs = nil
}

// Next validates the current step. Validation failure keeps the step and
// reports field errors. Steps 1-3 advance on success; step 4 submits.
func (s *Session) Next(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	step := s.step
	form := s.form
	s.mu.Unlock()

	var errs map[string]string
	switch step {
	case StepUserDetails:
		errs = validateUserDetails(form.User)
	case StepAddress:
		errs = validateAddress(form.SelectedAddressID, form.NewAddress)
	case StepPayment:
		errs = validatePayment(form.PaymentMethod)
	case StepReview:
		return s.submit(ctx, form)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(errs) > 0 {
		s.fieldErrs = errs
		return Outcome{Step: s.step, Errors: errs}, nil
	}
	s.fieldErrs = nil
	s.step = step + 1
	return Outcome{Step: s.step}, nil
}

func (s *Session) submit(ctx context.Context, form Form) (Outcome, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	s.submitting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	lines := s.cart.Lines()
	if len(lines) == 0 {
		errs := map[string]string{"cart": "cart is empty"}
		s.mu.Lock()
		s.fieldErrs = errs
		s.mu.Unlock()
		return Outcome{Step: StepReview, Errors: errs}, nil
	}

	if form.PaymentMethod == PaymentOnline {
		// The payment bridge owns the rest of the flow; the caller resumes
		// us through its completion.
		return Outcome{Step: StepReview, NeedsPayment: true}, nil
	}

	quote := pricing.ForLines(lines)
	req := upstream.CODOrderRequest{
		User:          form.User,
		Address:       s.deliveryAddress(form),
		PaymentMethod: PaymentCOD,
		PaymentStatus: "pending",
		Items:         lines,
		Subtotal:      quote.Subtotal,
		Shipping:      quote.Shipping,
		Total:         quote.Total,
	}
	conf, err := s.placer.CreateCODOrder(ctx, s.sess.Token, req)
	if err != nil {
		// Blocking: the cart stays intact so the shopper can retry.
		return Outcome{Step: StepReview}, fmt.Errorf("create order: %w", err)
	}

	s.cart.Clear(ctx)
	event := map[string]any{
		"type":     "order_created",
		"session":  s.sess.ID,
		"order_id": conf.OrderID,
		"method":   PaymentCOD,
		"total":    quote.Total,
	}
	if err := s.producer.PublishEvent(ctx, events.TopicOrder, conf.OrderID, event); err != nil {
		s.log.Warn("event publish failed", "error", err)
	}

	s.Reset()
	return Outcome{Step: StepReview, Confirmation: conf}, nil
}

func (s *Session) deliveryAddress(form Form) models.Address {
	if form.SelectedAddressID != "" {
		return models.Address{ID: form.SelectedAddressID}
	}
	if form.NewAddress != nil {
		return *form.NewAddress
	}
	return models.Address{}
}
