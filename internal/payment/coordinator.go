package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kanchiweave/storefront/internal/events"
	"github.com/kanchiweave/storefront/internal/models"
)

// attemptTimeout bounds how long a parked attempt waits for the shopper to
// finish or abandon the hosted checkout.
const attemptTimeout = 15 * time.Minute

var ErrNoAttempt = errors.New("payment: no such attempt")

// Coordinator splits one bridge run across the two HTTP requests the hosted
// checkout needs: Start parks the attempt once the widget config is ready,
// and Complete/Dismiss resume it when the shopper's browser reports back.
// At most one attempt per session is in flight at a time; a second Start
// while one is parked answers ErrInFlight.
type Coordinator struct {
	key      string
	gateway  Gateway
	producer *events.Producer
	log      *slog.Logger
	timeout  time.Duration

	mu       sync.Mutex
	attempts map[string]*attempt
	inflight map[string]string // session id -> attempt id
}

func NewCoordinator(key string, gateway Gateway, producer *events.Producer, log *slog.Logger) *Coordinator {
	return &Coordinator{
		key:      key,
		gateway:  gateway,
		producer: producer,
		log:      log,
		timeout:  attemptTimeout,
		attempts: make(map[string]*attempt),
		inflight: make(map[string]string),
	}
}

type runResult struct {
	conf *models.OrderConfirmation
	err  error
}

type widgetOutcome struct {
	completion *Completion
	dismissed  bool
}

// attempt implements Widget: Open hands the config to the waiting Start call
// and parks until the browser reports back through Complete or Dismiss.
type attempt struct {
	id        string
	sessionID string
	bridge    *Bridge
	opened    chan WidgetConfig
	outcome   chan widgetOutcome
	done      chan runResult
	finished  chan struct{}
}

func (a *attempt) Open(ctx context.Context, cfg WidgetConfig) (*Completion, error) {
	a.opened <- cfg
	select {
	case o := <-a.outcome:
		if o.dismissed {
			return nil, ErrDismissed
		}
		return o.completion, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Start creates the gateway order and returns the attempt id plus the widget
// config the browser needs. A failure before the widget opens is returned
// directly and nothing is parked. A session with a parked attempt gets
// ErrInFlight until that attempt resolves or times out.
func (c *Coordinator) Start(req Request) (string, WidgetConfig, error) {
	a := &attempt{
		id:        newAttemptID(),
		sessionID: req.SessionID,
		bridge:    NewBridge(c.key, c.gateway, c.producer, c.log),
		opened:    make(chan WidgetConfig, 1),
		outcome:   make(chan widgetOutcome, 1),
		done:      make(chan runResult, 1),
		finished:  make(chan struct{}),
	}

	c.mu.Lock()
	if _, busy := c.inflight[req.SessionID]; busy {
		c.mu.Unlock()
		return "", WidgetConfig{}, ErrInFlight
	}
	c.inflight[req.SessionID] = a.id
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		conf, err := a.bridge.Run(ctx, req, a)
		a.done <- runResult{conf: conf, err: err}
		close(a.finished)
	}()

	select {
	case cfg := <-a.opened:
		c.mu.Lock()
		c.attempts[a.id] = a
		c.mu.Unlock()
		// Reap the attempt when its run ends, however it ends. An
		// abandoned checkout times out, the entry is dropped, and the
		// session is free to start over.
		go func() {
			<-a.finished
			c.release(a)
		}()
		return a.id, cfg, nil
	case r := <-a.done:
		c.release(a)
		return "", WidgetConfig{}, r.err
	}
}

// Complete resumes a parked attempt with the gateway's completion values and
// returns the final outcome: verification then placement, or the error that
// stopped them.
func (c *Coordinator) Complete(id string, done Completion) (*models.OrderConfirmation, error) {
	a, err := c.take(id)
	if err != nil {
		return nil, err
	}
	a.outcome <- widgetOutcome{completion: &done}
	r := <-a.done
	c.release(a)
	return r.conf, r.err
}

// Dismiss resumes a parked attempt as cancelled. No order is created and the
// attempt's flags end reset.
func (c *Coordinator) Dismiss(id string) error {
	a, err := c.take(id)
	if err != nil {
		return err
	}
	a.outcome <- widgetOutcome{dismissed: true}
	r := <-a.done
	c.release(a)
	if r.err != nil && !errors.Is(r.err, ErrDismissed) {
		return r.err
	}
	return nil
}

func (c *Coordinator) take(id string) (*attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.attempts[id]
	if !ok {
		return nil, ErrNoAttempt
	}
	delete(c.attempts, id)
	return a, nil
}

// release drops the attempt and frees its session slot. Idempotent: the
// reaper and the resume paths may both get here.
func (c *Coordinator) release(a *attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, a.id)
	if c.inflight[a.sessionID] == a.id {
		delete(c.inflight, a.sessionID)
	}
}

func newAttemptID() string {
	b := make([]byte, 12)
	rand.Read(b)
	return hex.EncodeToString(b)
}
