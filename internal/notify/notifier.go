// Package notify is the outbound boundary between the core and the email
// backend. The core signals follow-up obligations (confirmation mails,
// compiled digests) as events; a real backend and the in-tree log stub are
// interchangeable implementations of the same interface.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joshnesbit/quietsend/internal/model"
)

// Outbound event kinds.
const (
	KindConfirmationRequested = "contact.confirmation_requested"
	KindDigestCompiled        = "digest.compiled"
)

// Event is one outbound obligation handed to the backend.
type Event struct {
	ID      string
	Kind    string
	At      time.Time
	Payload any
}

// ConfirmationRequest asks the backend to mail a confirmation link.
type ConfirmationRequest struct {
	Contact model.Contact
	Resend  bool
}

// Digest is one contact's compiled weekly mailing.
type Digest struct {
	Contact    model.Contact
	Links      []model.SavedLink
	CopyToSelf bool
}

// Notifier delivers outbound events to the backend.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// NewEvent stamps a payload with a fresh id and the current time.
func NewEvent(kind string, payload any) Event {
	return Event{
		ID:      uuid.New().String(),
		Kind:    kind,
		At:      time.Now(),
		Payload: payload,
	}
}

// LogNotifier records outbound events in the log and delivers nothing.
// It stands in for the email backend until one exists.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(_ context.Context, evt Event) error {
	switch p := evt.Payload.(type) {
	case ConfirmationRequest:
		n.logger.Info("outbound event",
			zap.String("event_id", evt.ID),
			zap.String("kind", evt.Kind),
			zap.String("contact_id", p.Contact.ID),
			zap.String("email", p.Contact.Email),
			zap.Bool("resend", p.Resend))
	case Digest:
		n.logger.Info("outbound event",
			zap.String("event_id", evt.ID),
			zap.String("kind", evt.Kind),
			zap.String("contact_id", p.Contact.ID),
			zap.Int("links", len(p.Links)),
			zap.Bool("copy_to_self", p.CopyToSelf))
	default:
		n.logger.Info("outbound event",
			zap.String("event_id", evt.ID),
			zap.String("kind", evt.Kind))
	}
	return nil
}
