package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nunet/pkg/cache"
	"github.com/matzehuels/nunet/pkg/io"
	"github.com/matzehuels/nunet/pkg/observability"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Open creates the named backend. For file and sqlite an empty dsn selects
// a location below dataDir.
func Open(ctx context.Context, backend, dsn, dataDir string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch backend {
	case "", BackendFile:
		backend = BackendFile
		if dsn == "" {
			dsn = filepath.Join(dataDir, "designs")
		}
		st, err = NewFileStore(dsn)
	case BackendSQLite:
		if dsn == "" {
			dsn = filepath.Join(dataDir, "designs.db")
		}
		st, err = NewSQLiteStore(ctx, dsn)
	case BackendRedis:
		st, err = NewRedisStore(ctx, dsn)
	case BackendMongo:
		st, err = NewMongoStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(st, backend), nil
}

// Instrument wraps st so every call is timed and reported to the storage
// hooks. Calls failing with a retryable error are retried with backoff.
func Instrument(st Store, backend string) Store {
	return &instrumented{inner: st, backend: backend}
}

type instrumented struct {
	inner   Store
	backend string
}

func (s *instrumented) do(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := cache.RetryWithBackoff(ctx, fn)
	observability.Storage().OnStorageOp(ctx, s.backend, op, time.Since(start), err)
	return err
}

func (s *instrumented) Put(ctx context.Context, snap io.Snapshot) error {
	return s.do(ctx, "put", func() error { return s.inner.Put(ctx, snap) })
}

func (s *instrumented) Get(ctx context.Context, id uuid.UUID) (snap io.Snapshot, err error) {
	err = s.do(ctx, "get", func() error {
		snap, err = s.inner.Get(ctx, id)
		return err
	})
	return snap, err
}

func (s *instrumented) Delete(ctx context.Context, id uuid.UUID) error {
	return s.do(ctx, "delete", func() error { return s.inner.Delete(ctx, id) })
}

func (s *instrumented) List(ctx context.Context) (entries []Entry, err error) {
	err = s.do(ctx, "list", func() error {
		entries, err = s.inner.List(ctx)
		return err
	})
	return entries, err
}

func (s *instrumented) Close() error { return s.inner.Close() }
