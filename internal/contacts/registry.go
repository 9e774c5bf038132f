// Package contacts manages the recipient list: at most five contacts,
// unique emails, created unconfirmed until the owner clicks the
// confirmation mail.
package contacts

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joshnesbit/quietsend/internal/bus"
	"github.com/joshnesbit/quietsend/internal/kv"
	"github.com/joshnesbit/quietsend/internal/model"
	"github.com/joshnesbit/quietsend/internal/notify"
)

// MaxContacts caps the recipient list.
const MaxContacts = 5

// Matches the loose local@domain.tld shape the settings form accepts.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Registry owns the "contacts" bucket.
type Registry struct {
	store    *kv.Store
	notifier notify.Notifier
	bus      *bus.Bus
	logger   *zap.Logger
}

// NewRegistry creates a registry over the given store.
func NewRegistry(store *kv.Store, notifier notify.Notifier, b *bus.Bus, logger *zap.Logger) *Registry {
	return &Registry{store: store, notifier: notifier, bus: b, logger: logger}
}

func (r *Registry) load(ctx context.Context) ([]model.Contact, error) {
	var list []model.Contact
	if _, err := r.store.Get(ctx, kv.BucketContacts, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// List returns all contacts in insertion order.
func (r *Registry) List(ctx context.Context) ([]model.Contact, error) {
	return r.load(ctx)
}

// Get returns the contact with the given id, or nil if unknown.
func (r *Registry) Get(ctx context.Context, id string) (*model.Contact, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, nil
}

// Exists reports whether a contact with the given id is registered.
func (r *Registry) Exists(ctx context.Context, id string) (bool, error) {
	c, err := r.Get(ctx, id)
	return c != nil, err
}

// Add validates and appends a new, unconfirmed contact, then signals the
// backend to send the confirmation mail.
func (r *Registry) Add(ctx context.Context, name, email string) (*model.Contact, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, model.Invalid("both name and email are required")
	}
	if !emailShape.MatchString(email) {
		return nil, model.Invalid("%q is not a valid email address", email)
	}

	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) >= MaxContacts {
		return nil, model.Invalid("you can only add up to %d contacts", MaxContacts)
	}
	for _, c := range list {
		if strings.EqualFold(c.Email, email) {
			return nil, model.Invalid("this email is already added")
		}
	}

	contact := model.Contact{
		ID:      uuid.New().String(),
		Name:    name,
		Email:   email,
		AddedAt: time.Now().UTC(),
	}
	if err := r.store.Put(ctx, kv.BucketContacts, append(list, contact)); err != nil {
		return nil, err
	}
	r.logger.Info("contact added",
		zap.String("contact_id", contact.ID),
		zap.String("email", contact.Email))

	// The contact is stored either way; on a failed hand-off the user can
	// resend from the settings page.
	evt := notify.NewEvent(notify.KindConfirmationRequested, notify.ConfirmationRequest{Contact: contact})
	if err := r.notifier.Notify(ctx, evt); err != nil {
		r.logger.Warn("confirmation request not delivered",
			zap.Error(err),
			zap.String("contact_id", contact.ID))
	}
	r.bus.Publish(bus.Event{Kind: bus.KindContactAdded, Timestamp: time.Now(), Payload: contact})
	return &contact, nil
}

// Delete removes a contact. Removing an unknown id is a no-op. Deletion is
// blocked while undelivered links still reference the contact, so a queued
// digest never loses its recipient.
func (r *Registry) Delete(ctx context.Context, id string) error {
	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	// Peek at the link queue. This check and the write below are separate
	// store calls, not a transaction; acceptable with the daemon as the
	// single writer.
	var links []model.SavedLink
	if _, err := r.store.Get(ctx, kv.BucketSavedLinks, &links); err != nil {
		return err
	}
	for i := range links {
		if links[i].ContactID == id && !links[i].Delivered() {
			return &model.ConflictError{Reason: "contact still has undelivered links queued for the next digest"}
		}
	}

	if err := r.store.Put(ctx, kv.BucketContacts, append(list[:idx:idx], list[idx+1:]...)); err != nil {
		return err
	}
	r.logger.Info("contact deleted", zap.String("contact_id", id))
	r.bus.Publish(bus.Event{Kind: bus.KindContactDeleted, Timestamp: time.Now(), Payload: id})
	return nil
}

// ResendConfirmation signals the backend to resend the confirmation mail.
func (r *Registry) ResendConfirmation(ctx context.Context, id string) error {
	c, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return &model.NotFoundError{Kind: "contact", ID: id}
	}

	evt := notify.NewEvent(notify.KindConfirmationRequested, notify.ConfirmationRequest{Contact: *c, Resend: true})
	if err := r.notifier.Notify(ctx, evt); err != nil {
		return err
	}
	r.logger.Info("confirmation resend requested", zap.String("contact_id", id))
	r.bus.Publish(bus.Event{Kind: bus.KindContactResent, Timestamp: time.Now(), Payload: id})
	return nil
}

// MarkConfirmed flips the confirmed flag. Triggered by the external
// confirmation flow, never by a UI surface.
func (r *Registry) MarkConfirmed(ctx context.Context, id string) (*model.Contact, error) {
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if list[i].Confirmed {
			return &list[i], nil
		}
		list[i].Confirmed = true
		if err := r.store.Put(ctx, kv.BucketContacts, list); err != nil {
			return nil, err
		}
		r.logger.Info("contact confirmed", zap.String("contact_id", id))
		r.bus.Publish(bus.Event{Kind: bus.KindContactConfirmed, Timestamp: time.Now(), Payload: list[i]})
		return &list[i], nil
	}
	return nil, &model.NotFoundError{Kind: "contact", ID: id}
}
