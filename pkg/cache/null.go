package cache

import (
	"context"
	"time"
)

// NullCache stores nothing. The runner falls back to it when caching is
// disabled by config or --no-cache, so every lookup is a miss and every
// plan and diagram is rebuilt.
type NullCache struct{}

// NewNullCache returns a cache that never hits.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }
