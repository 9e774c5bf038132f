package model

import "time"

// Contact is a person the user can queue saved links for. Contacts are
// created unconfirmed and only flip to confirmed through an external
// confirmation event.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Confirmed bool      `json:"confirmed"`
	AddedAt   time.Time `json:"addedAt"`
}

// SavedLink is one captured page waiting for the next weekly digest.
// Entries are append-only; nothing mutates them except DeliveredAt,
// which the digest compiler sets after a successful hand-off.
type SavedLink struct {
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	ContactID      string     `json:"contactId"`
	Note           string     `json:"note,omitempty"`
	SendCopyToSelf bool       `json:"sendCopyToSelf"`
	SavedAt        time.Time  `json:"savedAt"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
}

// Delivered reports whether the link already went out in a digest.
func (l *SavedLink) Delivered() bool { return l.DeliveredAt != nil }

// Preferences holds the user's settings. One recognized field today.
type Preferences struct {
	AlwaysSendCopy bool `json:"alwaysSendCopy"`
}
