// Package prefs holds the user's settings, one JSON object in its own
// bucket. Writes are read-modify-write, last writer wins.
package prefs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/joshnesbit/quietsend/internal/bus"
	"github.com/joshnesbit/quietsend/internal/kv"
	"github.com/joshnesbit/quietsend/internal/model"
)

// Store owns the "preferences" bucket.
type Store struct {
	store  *kv.Store
	bus    *bus.Bus
	logger *zap.Logger
}

// NewStore creates a preferences store.
func NewStore(store *kv.Store, b *bus.Bus, logger *zap.Logger) *Store {
	return &Store{store: store, bus: b, logger: logger}
}

// Get returns the current preferences, defaulted if never written.
func (s *Store) Get(ctx context.Context) (model.Preferences, error) {
	var p model.Preferences
	if _, err := s.store.Get(ctx, kv.BucketPreferences, &p); err != nil {
		return model.Preferences{}, err
	}
	return p, nil
}

// SetAlwaysSendCopy updates the copy-to-self preference. Already-saved
// links keep the snapshot they were saved with.
func (s *Store) SetAlwaysSendCopy(ctx context.Context, v bool) (model.Preferences, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return model.Preferences{}, err
	}
	p.AlwaysSendCopy = v
	if err := s.store.Put(ctx, kv.BucketPreferences, p); err != nil {
		return model.Preferences{}, err
	}
	s.logger.Info("preferences updated", zap.Bool("always_send_copy", v))
	s.bus.Publish(bus.Event{Kind: bus.KindPrefsUpdated, Timestamp: time.Now(), Payload: p})
	return p, nil
}
