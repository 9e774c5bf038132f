// Package links is the append-only queue of saved pages waiting for the
// next weekly digest.
package links

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joshnesbit/quietsend/internal/bus"
	"github.com/joshnesbit/quietsend/internal/kv"
	"github.com/joshnesbit/quietsend/internal/model"
)

// ContactDirectory checks that a referenced contact exists at save time.
type ContactDirectory interface {
	Exists(ctx context.Context, contactID string) (bool, error)
}

// Queue owns the "savedLinks" bucket.
type Queue struct {
	store  *kv.Store
	dir    ContactDirectory
	bus    *bus.Bus
	logger *zap.Logger
}

// NewQueue creates a queue over the given store.
func NewQueue(store *kv.Store, dir ContactDirectory, b *bus.Bus, logger *zap.Logger) *Queue {
	return &Queue{store: store, dir: dir, bus: b, logger: logger}
}

func (q *Queue) load(ctx context.Context) ([]model.SavedLink, error) {
	var list []model.SavedLink
	if _, err := q.store.Get(ctx, kv.BucketSavedLinks, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Save appends a new entry. It never overwrites or merges: saving the same
// page twice queues it twice. The url/title pair is the caller's snapshot of
// the active page, and sendCopyToSelf is the caller's snapshot of the
// preference at save time.
func (q *Queue) Save(ctx context.Context, contactID, url, title, note string, sendCopyToSelf bool) (*model.SavedLink, error) {
	if strings.TrimSpace(contactID) == "" {
		return nil, model.Invalid("a contact must be selected")
	}
	if strings.TrimSpace(url) == "" {
		return nil, model.Invalid("the page url is required")
	}
	ok, err := q.dir.Exists(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.Invalid("selected contact no longer exists")
	}

	list, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	entry := model.SavedLink{
		ID:             uuid.New().String(),
		URL:            url,
		Title:          title,
		ContactID:      contactID,
		Note:           strings.TrimSpace(note),
		SendCopyToSelf: sendCopyToSelf,
		SavedAt:        time.Now().UTC(),
	}
	if err := q.store.Put(ctx, kv.BucketSavedLinks, append(list, entry)); err != nil {
		return nil, err
	}
	q.logger.Info("link saved",
		zap.String("link_id", entry.ID),
		zap.String("contact_id", contactID),
		zap.String("url", url))
	q.bus.Publish(bus.Event{Kind: bus.KindLinkSaved, Timestamp: time.Now(), Payload: entry})
	return &entry, nil
}

// List returns all entries in insertion order, delivered or not.
func (q *Queue) List(ctx context.Context) ([]model.SavedLink, error) {
	return q.load(ctx)
}

// Pending returns the entries that have not gone out in a digest yet,
// in insertion order.
func (q *Queue) Pending(ctx context.Context) ([]model.SavedLink, error) {
	list, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	var pending []model.SavedLink
	for i := range list {
		if !list[i].Delivered() {
			pending = append(pending, list[i])
		}
	}
	return pending, nil
}

// HasPending reports whether any undelivered entry references the contact.
func (q *Queue) HasPending(ctx context.Context, contactID string) (bool, error) {
	list, err := q.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range list {
		if list[i].ContactID == contactID && !list[i].Delivered() {
			return true, nil
		}
	}
	return false, nil
}

// MarkDelivered stamps the given entries with the delivery time. Called by
// the digest compiler after a successful hand-off; the only mutation saved
// links ever see.
func (q *Queue) MarkDelivered(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	list, err := q.load(ctx)
	if err != nil {
		return err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	at = at.UTC()
	for i := range list {
		if set[list[i].ID] && list[i].DeliveredAt == nil {
			list[i].DeliveredAt = &at
		}
	}
	return q.store.Put(ctx, kv.BucketSavedLinks, list)
}
