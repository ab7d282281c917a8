// Package cache stores generated artifacts keyed by the content that
// produced them.
//
// A design snapshot is hashed with [Hash]; a [Keyer] combines that hash with
// the generation or render options into a cache key. Entries are opaque
// bytes with an optional TTL. Three backends exist:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the API server
//   - [NullCache]: stores nothing, for --no-cache and tests
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss
	// (ok=false, err=nil), not an error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// PlanKey keys a generated network plan written in one format.
	PlanKey(snapshotHash string, opts PlanKeyOpts) string

	// RenderKey keys a rendered diagram.
	RenderKey(snapshotHash string, opts RenderKeyOpts) string
}

// PlanKeyOpts are the generation options that change the output.
type PlanKeyOpts struct {
	Name         string  `json:"name"`
	LearningRate float64 `json:"learning_rate"`
	Format       string  `json:"format"`
}

// RenderKeyOpts are the render options that change the output.
type RenderKeyOpts struct {
	Format    string `json:"format"`
	Detailed  bool   `json:"detailed"`
	Highlight bool   `json:"highlight"`
}

// DefaultKeyer hashes the options together with the snapshot hash.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlanKey returns "plan:<sha256>".
func (DefaultKeyer) PlanKey(snapshotHash string, opts PlanKeyOpts) string {
	return hashKey("plan", snapshotHash, opts)
}

// RenderKey returns "render:<sha256>".
func (DefaultKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return hashKey("render", snapshotHash, opts)
}
