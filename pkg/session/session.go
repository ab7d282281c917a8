// Package session keeps in-progress design edits for the API server.
//
// A [Session] owns one [design.Designer] together with its undo history and
// an expiry time. Clients create a session, send mutations against it, and
// eventually save the design to a storage backend or let the session lapse.
//
// Two stores are provided:
//   - memory: sessions live in the server process, undo history included
//   - file: sessions are written as snapshots under a directory, so they
//     survive a restart; the undo history does not
//
// # Usage
//
//	st := session.NewMemoryStore()
//	sess, err := session.New("xor", session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	st.Set(ctx, sess)
//
//	sess, err = st.Get(ctx, id)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown or expired
//	}
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/io"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Session is one client's open design.
type Session struct {
	ID        string
	Name      string
	DesignID  uuid.UUID
	Designer  *design.Designer
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session outlived its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the expiry to ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

// Snapshot captures the session's current design.
func (s *Session) Snapshot() io.Snapshot {
	return io.FromStore(s.Designer.Store(), s.DesignID, s.Name)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. Unknown and expired sessions both
	// return ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any previous version.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the live sessions.
	List(ctx context.Context) ([]*Session, error)

	// Cleanup removes expired sessions and returns how many were dropped.
	Cleanup(ctx context.Context) (int, error)
}

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New starts a session on an empty design.
func New(name string, ttl time.Duration, opts ...design.Option) (*Session, error) {
	return FromSnapshot(io.New(name), ttl, opts...)
}

// FromSnapshot starts a session on a restored design. The snapshot's id is
// kept so that saving the session replaces the stored design.
func FromSnapshot(snap io.Snapshot, ttl time.Duration, opts ...design.Option) (*Session, error) {
	d, err := snap.Restore(opts...)
	if err != nil {
		return nil, err
	}
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	now := time.Now()
	return &Session{
		ID:        id,
		Name:      snap.Name,
		DesignID:  snap.ID,
		Designer:  d,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}
