// Package session keeps the server-side login state of a browser. The
// cookie holds a signed token naming a record in a Store.
package session

import (
	"context"
	"errors"
	"time"
)

// Kind names the collection a session identity came from.
type Kind string

const (
	KindInvitation Kind = "invitation"
	KindRSVP       Kind = "rsvp"
)

// ErrNotFound is returned by a Store for unknown or expired ids.
var ErrNotFound = errors.New("session not found")

// Session is the stored record.
type Session struct {
	ID           string `json:"-"`
	InvitationID string `json:"invitation_id,omitempty"`
	Kind         Kind   `json:"kind,omitempty"`
	Admin        bool   `json:"admin,omitempty"`
	Pending      bool   `json:"pending,omitempty"`
	State        string `json:"state,omitempty"`
}

// Bound reports whether the session is fully authenticated.
func (s *Session) Bound() bool {
	return s != nil && s.InvitationID != "" && !s.Pending
}

// Reset clears the identity fields.
func (s *Session) Reset() {
	*s = Session{ID: s.ID}
}

// Store persists session records. Get refreshes the record's TTL.
type Store interface {
	Get(ctx context.Context, id string, ttl time.Duration) (*Session, error)
	Set(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
