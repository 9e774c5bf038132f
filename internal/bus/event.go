package bus

import "time"

// Event kinds published by the core. Surfaces subscribe by prefix, e.g.
// "contact." for everything touching the contact list.
const (
	KindContactAdded     = "contact.added"
	KindContactDeleted   = "contact.deleted"
	KindContactConfirmed = "contact.confirmed"
	KindContactResent    = "contact.confirmation_resent"
	KindLinkSaved        = "link.saved"
	KindPrefsUpdated     = "prefs.updated"
	KindDigestDue        = "digest.due"
	KindDigestSent       = "digest.sent"
)

// Event is a state-change notification.
type Event struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}
