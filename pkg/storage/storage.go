// Package storage keeps named design snapshots in a shared store.
//
// The CLI pushes and pulls designs, the API server loads and saves them.
// Four backends implement [Store]:
//
//   - file: one JSON snapshot per design in a directory
//   - sqlite: a single database file (modernc.org/sqlite, no cgo)
//   - redis: a Redis instance shared by several machines
//   - mongo: a MongoDB collection
//
// [Open] picks a backend by name and wraps it so every call reports to the
// storage hooks in pkg/observability. Remote backends retry transient
// network failures.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nunet/pkg/io"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when no design matches an id or name.
	ErrNotFound = errors.New("design not found")

	// ErrAmbiguous is returned when a name matches several designs.
	ErrAmbiguous = errors.New("design name is ambiguous")
)

// Entry summarizes one stored design.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Neurons   int       `json:"neurons"`
	Synapses  int       `json:"synapses"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists snapshots by id.
type Store interface {
	// Put inserts or replaces the snapshot with s.ID.
	Put(ctx context.Context, s io.Snapshot) error

	// Get returns the snapshot with id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (io.Snapshot, error)

	// Delete removes the snapshot with id, or returns ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns every stored design sorted by name, then id.
	List(ctx context.Context) ([]Entry, error)

	Close() error
}

// Resolve finds a design by id or by name. A ref that parses as a UUID is
// looked up directly; otherwise the name must match exactly one entry.
func Resolve(ctx context.Context, st Store, ref string) (io.Snapshot, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return st.Get(ctx, id)
	}
	entries, err := st.List(ctx)
	if err != nil {
		return io.Snapshot{}, err
	}
	var match *Entry
	for i := range entries {
		if entries[i].Name != ref {
			continue
		}
		if match != nil {
			return io.Snapshot{}, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
		}
		match = &entries[i]
	}
	if match == nil {
		return io.Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return st.Get(ctx, match.ID)
}

func entryOf(s io.Snapshot, at time.Time) Entry {
	return Entry{
		ID:        s.ID,
		Name:      s.Name,
		Neurons:   len(s.Neurons),
		Synapses:  len(s.Synapses),
		UpdatedAt: at.UTC().Truncate(time.Second),
	}
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
}

func encode(s io.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := io.WriteJSON(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (io.Snapshot, error) {
	return io.ReadJSON(bytes.NewReader(data))
}
