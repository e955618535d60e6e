package registry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kanchiweave/storefront/internal/localcache"
	"github.com/kanchiweave/storefront/internal/models"
	"github.com/kanchiweave/storefront/internal/session"
	"github.com/kanchiweave/storefront/internal/upstream"
)

func newTestRegistry(t *testing.T, backendURL string) *Registry {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&localcache.Snapshot{}))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(upstream.NewClient(backendURL), localcache.NewStore(db), nil, log)
}

func TestSlowLoadDoesNotBlockOtherSessions(t *testing.T) {
	slowArrived := make(chan struct{}, 1)
	release := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer slow" {
			slowArrived <- struct{}{}
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cart":[]}`))
	}))
	defer backend.Close()

	r := newTestRegistry(t, backend.URL)
	ctx := context.Background()

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		r.Cart(ctx, session.Session{ID: "user:slow", Token: "slow", Authenticated: true})
	}()
	<-slowArrived

	// with the slow session parked mid-load, another session's first
	// access must still complete
	fastDone := make(chan struct{})
	go func() {
		defer close(fastDone)
		r.Cart(ctx, session.Session{ID: "user:fast", Token: "fast", Authenticated: true})
	}()
	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatal("second session blocked behind the first session's load")
	}

	close(release)
	<-slowDone
}

func TestStoresAreBuiltOncePerSession(t *testing.T) {
	r := newTestRegistry(t, "http://backend.invalid")
	sess := session.Session{ID: "guest:one"}
	ctx := context.Background()

	require.Same(t, r.Cart(ctx, sess), r.Cart(ctx, sess))
	require.Same(t, r.Wishlist(ctx, sess), r.Wishlist(ctx, sess))
	require.Same(t, r.Checkout(ctx, sess), r.Checkout(ctx, sess))
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	r := newTestRegistry(t, "http://backend.invalid")
	sess := session.Session{ID: "guest:idle"}
	ctx := context.Background()

	store := r.Cart(ctx, sess)
	store.Add(ctx, models.CartLine{ProductID: "A1", Name: "Cotton Saree", UnitPrice: 500})

	time.Sleep(5 * time.Millisecond)
	require.Equal(t, 1, r.Sweep(0))

	// the evicted session reloads its cart from the cache
	reloaded := r.Cart(ctx, sess)
	require.NotSame(t, store, reloaded)
	require.Equal(t, 1, reloaded.Quantity("A1"))
}

func TestSweepKeepsActiveSessions(t *testing.T) {
	r := newTestRegistry(t, "http://backend.invalid")
	sess := session.Session{ID: "guest:active"}
	ctx := context.Background()

	store := r.Cart(ctx, sess)
	require.Zero(t, r.Sweep(time.Hour))
	require.Same(t, store, r.Cart(ctx, sess))
}

func TestEndSessionDropsStoresAndCache(t *testing.T) {
	r := newTestRegistry(t, "http://backend.invalid")
	sess := session.Session{ID: "guest:bye"}
	ctx := context.Background()

	store := r.Cart(ctx, sess)
	store.Add(ctx, models.CartLine{ProductID: "A1", UnitPrice: 500})
	require.NoError(t, r.EndSession(ctx, sess))

	// gone from the registry and from the cache
	fresh := r.Cart(ctx, sess)
	require.NotSame(t, store, fresh)
	require.Empty(t, fresh.Lines())
}
