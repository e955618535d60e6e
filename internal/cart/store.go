// Package cart holds the authoritative in-memory cart for one session.
// Every mutation applies locally first and is mirrored to the backend in the
// background; mirror failures are logged, never surfaced, and never rolled
// back. The local cache is written on every change so guest carts survive a
// restart.
package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kanchiweave/storefront/internal/events"
	"github.com/kanchiweave/storefront/internal/localcache"
	"github.com/kanchiweave/storefront/internal/models"
	"github.com/kanchiweave/storefront/internal/pricing"
	"github.com/kanchiweave/storefront/internal/session"
)

const mirrorTimeout = 10 * time.Second

// Upstream is the slice of the backend API the store mirrors into.
type Upstream interface {
	FetchCart(ctx context.Context, token string) ([]models.CartLine, error)
	AddCartItem(ctx context.Context, token string, line models.CartLine) ([]models.CartLine, error)
	RemoveCartItem(ctx context.Context, token, productID string) error
	UpdateCartItem(ctx context.Context, token, productID string, quantity int) error
	ClearCart(ctx context.Context, token string) error
	SyncCart(ctx context.Context, token string, lines []models.CartLine) ([]models.CartLine, error)
}

type Store struct {
	sess     session.Session
	upstream Upstream
	cache    *localcache.Store
	producer *events.Producer
	log      *slog.Logger

	mu    sync.Mutex
	lines []models.CartLine
	// seq numbers each dispatched mirror. A server snapshot is applied only
	// when no newer mutation has been dispatched since, so a slow response
	// can never clobber newer optimistic state.
	seq uint64

	wg sync.WaitGroup
}

func NewStore(sess session.Session, up Upstream, cache *localcache.Store, producer *events.Producer, log *slog.Logger) *Store {
	return &Store{
		sess:     sess,
		upstream: up,
		cache:    cache,
		producer: producer,
		log:      log.With("session", sess.ID),
	}
}

// Load initializes the store. With a token the server cart is authoritative;
// on fetch failure, or in guest mode, the last cached snapshot is adopted.
func (s *Store) Load(ctx context.Context) {
	if s.sess.Authenticated {
		lines, err := s.upstream.FetchCart(ctx, s.sess.Token)
		if err == nil {
			s.mu.Lock()
			s.lines = lines
			snapshot := s.snapshotLocked()
			s.mu.Unlock()
			s.persist(ctx, snapshot)
			return
		}
		s.log.Warn("cart fetch failed, using cached snapshot", "error", err)
	}

	var cached []models.CartLine
	if err := s.cache.Get(ctx, s.sess.ID, localcache.KeyCart, &cached); err == nil {
		s.mu.Lock()
		s.lines = cached
		s.mu.Unlock()
	}
}

// Add merges a duplicate product into its existing line, otherwise appends a
// new line with quantity 1. It cannot fail: the mirror call is fire-and-forget.
func (s *Store) Add(ctx context.Context, product models.CartLine) {
	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].ProductID == product.ProductID {
			s.lines[i].Quantity++
			product = s.lines[i]
			merged = true
			break
		}
	}
	if !merged {
		if product.Quantity < 1 {
			product.Quantity = 1
		}
		s.lines = append(s.lines, product)
	}
	snapshot := s.snapshotLocked()
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.publish(ctx, "cart_item_added", product.ProductID, product.Quantity)
	s.mirrorSnapshot(seq, func(ctx context.Context) ([]models.CartLine, error) {
		return s.upstream.AddCartItem(ctx, s.sess.Token, product)
	})
}

func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	kept := s.lines[:0]
	removed := false
	for _, l := range s.lines {
		if l.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	snapshot := s.snapshotLocked()
	s.nextSeqLocked()
	s.mu.Unlock()

	if !removed {
		return
	}
	s.persist(ctx, snapshot)
	s.publish(ctx, "cart_item_removed", productID, 0)
	s.mirror(func(ctx context.Context) error {
		return s.upstream.RemoveCartItem(ctx, s.sess.Token, productID)
	})
}

// UpdateQuantity applies a signed delta. A resulting quantity at or below
// zero removes the line; a non-positive quantity is never kept or persisted.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, delta int) {
	s.mu.Lock()
	idx := -1
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	next := s.lines[idx].Quantity + delta
	if next <= 0 {
		s.mu.Unlock()
		s.Remove(ctx, productID)
		return
	}
	s.lines[idx].Quantity = next
	snapshot := s.snapshotLocked()
	s.nextSeqLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.publish(ctx, "cart_quantity_changed", productID, next)
	s.mirror(func(ctx context.Context) error {
		return s.upstream.UpdateCartItem(ctx, s.sess.Token, productID, next)
	})
}

// Clear empties the cart. Used after order placement and on logout.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	s.nextSeqLocked()
	s.mu.Unlock()

	if err := s.cache.Delete(ctx, s.sess.ID, localcache.KeyCart); err != nil {
		s.log.Warn("cart cache delete failed", "error", err)
	}
	s.publish(ctx, "cart_cleared", "", 0)
	s.mirror(func(ctx context.Context) error {
		return s.upstream.ClearCart(ctx, s.sess.Token)
	})
}

// Sync pushes the full local cart for server-side merge and adopts the
// merged result. Called after login; a no-op for guests and empty carts.
func (s *Store) Sync(ctx context.Context) error {
	if !s.sess.Authenticated {
		return nil
	}
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	if len(snapshot) == 0 {
		return nil
	}

	merged, err := s.upstream.SyncCart(ctx, s.sess.Token, snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lines = merged
	snapshot = s.snapshotLocked()
	s.nextSeqLocked()
	s.mu.Unlock()
	s.persist(ctx, snapshot)
	return nil
}

func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.TotalItems(s.lines)
}

func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Subtotal(s.lines)
}

func (s *Store) Contains(productID string) bool {
	return s.Quantity(productID) > 0
}

func (s *Store) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// Flush waits for in-flight background mirrors. Tests use it to make the
// fire-and-forget path deterministic.
func (s *Store) Flush() {
	s.wg.Wait()
}

func (s *Store) snapshotLocked() []models.CartLine {
	return append([]models.CartLine(nil), s.lines...)
}

func (s *Store) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) persist(ctx context.Context, snapshot []models.CartLine) {
	if err := s.cache.Put(ctx, s.sess.ID, localcache.KeyCart, snapshot); err != nil {
		s.log.Warn("cart cache write failed", "error", err)
	}
}

// mirror runs a backend call that returns no snapshot. Failures are logged
// and swallowed.
func (s *Store) mirror(op func(ctx context.Context) error) {
	if !s.sess.Authenticated {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := op(ctx); err != nil {
			s.log.Warn("cart mirror failed", "error", err)
		}
	}()
}

// mirrorSnapshot runs a backend call that may answer with an authoritative
// cart snapshot. The snapshot is applied only when no newer mutation has
// been dispatched since this one; stale responses are discarded.
func (s *Store) mirrorSnapshot(seq uint64, op func(ctx context.Context) ([]models.CartLine, error)) {
	if !s.sess.Authenticated {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		lines, err := op(ctx)
		if err != nil {
			s.log.Warn("cart mirror failed", "error", err)
			return
		}
		if lines == nil {
			return
		}
		s.mu.Lock()
		if seq != s.seq {
			s.mu.Unlock()
			return
		}
		s.lines = lines
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		s.persist(ctx, snapshot)
	}()
}

func (s *Store) publish(ctx context.Context, kind, productID string, quantity int) {
	event := map[string]any{
		"type":    kind,
		"session": s.sess.ID,
	}
	if productID != "" {
		event["product_id"] = productID
		event["quantity"] = quantity
	}
	if err := s.producer.PublishEvent(ctx, events.TopicCart, s.sess.ID, event); err != nil {
		s.log.Warn("event publish failed", "error", err)
	}
}
