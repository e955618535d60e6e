// Package localcache persists per-session snapshots of client state so that
// guest carts and wishlists survive restarts. It mirrors whatever the
// in-memory stores hold; it is written on every mutation and read only when
// a store initializes.
package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Snapshot keys known to the stores.
const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
	KeyUserData = "userData"
)

var ErrNoSnapshot = errors.New("localcache: no snapshot")

type Snapshot struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"column:session_id;uniqueIndex:idx_session_key;not null"`
	CacheKey  string `gorm:"column:cache_key;uniqueIndex:idx_session_key;not null"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Put(ctx context.Context, sessionID, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("localcache: marshal %s: %w", key, err)
	}
	snap := Snapshot{SessionID: sessionID, CacheKey: key, Value: string(data)}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		return fmt.Errorf("localcache: put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sessionID, key string, out any) error {
	var snap Snapshot
	err := s.DB.WithContext(ctx).
		Where("session_id = ? AND cache_key = ?", sessionID, key).
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoSnapshot
	}
	if err != nil {
		return fmt.Errorf("localcache: get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(snap.Value), out); err != nil {
		return fmt.Errorf("localcache: unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sessionID, key string) error {
	err := s.DB.WithContext(ctx).
		Where("session_id = ? AND cache_key = ?", sessionID, key).
		Delete(&Snapshot{}).Error
	if err != nil {
		return fmt.Errorf("localcache: delete %s: %w", key, err)
	}
	return nil
}

// Purge drops every snapshot for a session. Used on logout.
func (s *Store) Purge(ctx context.Context, sessionID string) error {
	err := s.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&Snapshot{}).Error
	if err != nil {
		return fmt.Errorf("localcache: purge session: %w", err)
	}
	return nil
}
