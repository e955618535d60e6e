package localcache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Snapshot{}))
	return NewStore(db)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := []string{"red saree", "blue saree"}
	require.NoError(t, s.Put(ctx, "guest:abc", KeyCart, in))

	var out []string
	require.NoError(t, s.Get(ctx, "guest:abc", KeyCart, &out))
	require.Equal(t, in, out)
}

func TestPutOverwritesExistingSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "guest:abc", KeyWishlist, []int{1}))
	require.NoError(t, s.Put(ctx, "guest:abc", KeyWishlist, []int{1, 2, 3}))

	var out []int
	require.NoError(t, s.Get(ctx, "guest:abc", KeyWishlist, &out))
	require.Equal(t, []int{1, 2, 3}, out)
}

func TestGetMissingSnapshot(t *testing.T) {
	s := newTestStore(t)

	var out []string
	err := s.Get(context.Background(), "guest:abc", KeyCart, &out)
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "guest:one", KeyCart, "mine"))

	var out string
	err := s.Get(ctx, "guest:two", KeyCart, &out)
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestPurgeDropsAllSessionKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "user:7", KeyCart, "a"))
	require.NoError(t, s.Put(ctx, "user:7", KeyWishlist, "b"))
	require.NoError(t, s.Purge(ctx, "user:7"))

	var out string
	require.ErrorIs(t, s.Get(ctx, "user:7", KeyCart, &out), ErrNoSnapshot)
	require.ErrorIs(t, s.Get(ctx, "user:7", KeyWishlist, &out), ErrNoSnapshot)
}
