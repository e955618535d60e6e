// Package wishlist is the saved-for-later counterpart of the cart store:
// the same optimistic-then-mirror discipline, without quantities.
package wishlist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kanchiweave/storefront/internal/events"
	"github.com/kanchiweave/storefront/internal/localcache"
	"github.com/kanchiweave/storefront/internal/models"
	"github.com/kanchiweave/storefront/internal/session"
)

const mirrorTimeout = 10 * time.Second

type Upstream interface {
	FetchWishlist(ctx context.Context, token string) ([]models.WishlistEntry, error)
	AddWishlistItem(ctx context.Context, token string, entry models.WishlistEntry) error
	RemoveWishlistItem(ctx context.Context, token, productID string) error
	SyncWishlist(ctx context.Context, token string, entries []models.WishlistEntry) ([]models.WishlistEntry, error)
}

type Store struct {
	sess     session.Session
	upstream Upstream
	cache    *localcache.Store
	producer *events.Producer
	log      *slog.Logger

	mu      sync.Mutex
	entries []models.WishlistEntry

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

func (s *Store) Load(ctx context.Context) {
	if s.sess.Authenticated {
		entries, err := s.upstream.FetchWishlist(ctx, s.sess.Token)
		if err == nil {
			s.mu.Lock()
			s.entries = entries
			snapshot := s.snapshotLocked()
			s.mu.Unlock()
			s.persist(ctx, snapshot)
			return
		}
		s.log.Warn("wishlist fetch failed, using cached snapshot", "error", err)
	}

	var cached []models.WishlistEntry
	if err := s.cache.Get(ctx, s.sess.ID, localcache.KeyWishlist, &cached); err == nil {
		s.mu.Lock()
		s.entries = cached
		s.mu.Unlock()
	}
}

// Add is a no-op when the product is already saved: at most one entry per
// product, and entries are never mutated in place.
func (s *Store) Add(ctx context.Context, entry models.WishlistEntry) {
	s.mu.Lock()
	for _, e := range s.entries {
		if e.ProductID == entry.ProductID {
			s.mu.Unlock()
			return
		}
	}
	s.entries = append(s.entries, entry)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.publish(ctx, "wishlist_item_added", entry.ProductID)
	s.mirror(func(ctx context.Context) error {
		return s.upstream.AddWishlistItem(ctx, s.sess.Token, entry)
	})
}

func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	kept := s.entries[:0]
	removed := false
	for _, e := range s.entries {
		if e.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if !removed {
		return
	}
	s.persist(ctx, snapshot)
	s.publish(ctx, "wishlist_item_removed", productID)
	s.mirror(func(ctx context.Context) error {
		return s.upstream.RemoveWishlistItem(ctx, s.sess.Token, productID)
	})
}

// Sync pushes the locally accumulated wishlist up for merge once a token is
// available, then adopts the merged server list as the new truth. The full
// list is sent each time, so repeating a sync cannot duplicate entries.
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

	merged, err := s.upstream.SyncWishlist(ctx, s.sess.Token, snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = merged
	snapshot = s.snapshotLocked()
	s.mu.Unlock()
	s.persist(ctx, snapshot)
	return nil
}

func (s *Store) Entries() []models.WishlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ProductID == productID {
			return true
		}
	}
	return false
}

func (s *Store) Flush() {
	s.wg.Wait()
}

func (s *Store) snapshotLocked() []models.WishlistEntry {
	return append([]models.WishlistEntry(nil), s.entries...)
}

func (s *Store) persist(ctx context.Context, snapshot []models.WishlistEntry) {
	if err := s.cache.Put(ctx, s.sess.ID, localcache.KeyWishlist, snapshot); err != nil {
		s.log.Warn("wishlist cache write failed", "error", err)
	}
}

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
			s.log.Warn("wishlist mirror failed", "error", err)
		}
	}()
}

func (s *Store) publish(ctx context.Context, kind, productID string) {
	event := map[string]any{
		"type":       kind,
		"session":    s.sess.ID,
		"product_id": productID,
	}
	if err := s.producer.PublishEvent(ctx, events.TopicCart, s.sess.ID, event); err != nil {
		s.log.Warn("event publish failed", "error", err)
	}
}
