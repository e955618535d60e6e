// Package registry owns the per-session store objects. Stores are built
// once per session at first use and live for the session; nothing here is an
// ambient singleton, handlers receive the registry explicitly.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kanchiweave/storefront/internal/cart"
	"github.com/kanchiweave/storefront/internal/checkout"
	"github.com/kanchiweave/storefront/internal/events"
	"github.com/kanchiweave/storefront/internal/localcache"
	"github.com/kanchiweave/storefront/internal/session"
	"github.com/kanchiweave/storefront/internal/upstream"
	"github.com/kanchiweave/storefront/internal/wishlist"
)

type Registry struct {
	upstream *upstream.Client
	cache    *localcache.Store
	producer *events.Producer
	log      *slog.Logger

	mu        sync.Mutex
	carts     map[string]*cartEntry
	wishlists map[string]*wishlistEntry
	checkouts map[string]*checkout.Session
	lastUse   map[string]time.Time
}

// cartEntry defers the store's initial load out of the registry lock: the
// map slot is claimed under the lock, the load runs under the entry's Once,
// so one session's slow upstream fetch never stalls another session.
type cartEntry struct {
	once  sync.Once
	store *cart.Store
}

type wishlistEntry struct {
	once  sync.Once
	store *wishlist.Store
}

func New(up *upstream.Client, cache *localcache.Store, producer *events.Producer, log *slog.Logger) *Registry {
	return &Registry{
		upstream:  up,
		cache:     cache,
		producer:  producer,
		log:       log,
		carts:     make(map[string]*cartEntry),
		wishlists: make(map[string]*wishlistEntry),
		checkouts: make(map[string]*checkout.Session),
		lastUse:   make(map[string]time.Time),
	}
}

// Cart returns the session's cart store, loading it on first access.
func (r *Registry) Cart(ctx context.Context, sess session.Session) *cart.Store {
	r.mu.Lock()
	e, ok := r.carts[sess.ID]
	if !ok {
		e = &cartEntry{}
		r.carts[sess.ID] = e
	}
	r.lastUse[sess.ID] = time.Now()
	r.mu.Unlock()

	e.once.Do(func() {
		e.store = cart.NewStore(sess, r.upstream, r.cache, r.producer, r.log)
		e.store.Load(ctx)
	})
	return e.store
}

func (r *Registry) Wishlist(ctx context.Context, sess session.Session) *wishlist.Store {
	r.mu.Lock()
	e, ok := r.wishlists[sess.ID]
	if !ok {
		e = &wishlistEntry{}
		r.wishlists[sess.ID] = e
	}
	r.lastUse[sess.ID] = time.Now()
	r.mu.Unlock()

	e.once.Do(func() {
		e.store = wishlist.NewStore(sess, r.upstream, r.cache, r.producer, r.log)
		e.store.Load(ctx)
	})
	return e.store
}

func (r *Registry) Checkout(ctx context.Context, sess session.Session) *checkout.Session {
	c := r.Cart(ctx, sess)
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.checkouts[sess.ID]; ok {
		return s
	}
	s := checkout.NewSession(sess, c, r.upstream, r.producer, r.log)
	r.checkouts[sess.ID] = s
	return s
}

// EndSession drops a session's stores and purges its cached snapshots.
// Used on logout.
func (r *Registry) EndSession(ctx context.Context, sess session.Session) error {
	r.mu.Lock()
	r.dropLocked(sess.ID)
	r.mu.Unlock()
	return r.cache.Purge(ctx, sess.ID)
}

// Sweep evicts sessions idle for longer than maxIdle and reports how many
// were dropped. Eviction is safe at any point: carts and wishlists persist
// to the local cache on every mutation, so a returning session reloads its
// state; only the checkout wizard position is lost.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, last := range r.lastUse {
		if last.Before(cutoff) {
			r.dropLocked(id)
			n++
		}
	}
	return n
}

func (r *Registry) dropLocked(id string) {
	delete(r.carts, id)
	delete(r.wishlists, id)
	delete(r.checkouts, id)
	delete(r.lastUse, id)
}
