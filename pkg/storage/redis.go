package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/nunet/pkg/cache"
	"github.com/matzehuels/nunet/pkg/io"
)

// RedisStore keeps each snapshot under "<prefix>design:<id>" and an index
// hash "<prefix>designs" mapping id to the JSON-encoded Entry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to url (redis://host:port/db) and verifies the
// connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", cache.ErrNetwork, err)
	}
	return &RedisStore{client: client, prefix: "nunet:"}, nil
}

func (s *RedisStore) designKey(id uuid.UUID) string { return s.prefix + "design:" + id.String() }
func (s *RedisStore) indexKey() string              { return s.prefix + "designs" }

func (s *RedisStore) Put(ctx context.Context, snap io.Snapshot) error {
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	entry, err := json.Marshal(entryOf(snap, time.Now()))
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.designKey(snap.ID), payload, 0)
		pipe.HSet(ctx, s.indexKey(), snap.ID.String(), entry)
		return nil
	})
	return remote(err)
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (io.Snapshot, error) {
	payload, err := s.client.Get(ctx, s.designKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return io.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return io.Snapshot{}, remote(err)
	}
	snap, err := decode(payload)
	if err != nil {
		return io.Snapshot{}, fmt.Errorf("decode design %s: %w", id, err)
	}
	return snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.designKey(id))
		pipe.HDel(ctx, s.indexKey(), id.String())
		return nil
	})
	if err != nil {
		return remote(err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	index, err := s.client.HGetAll(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, remote(err)
	}
	entries := make([]Entry, 0, len(index))
	for id, raw := range index {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("index entry %s: %w", id, err)
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// remote marks connection-level failures as retryable.
func remote(err error) error {
	if err == nil {
		return nil
	}
	return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
}

var _ Store = (*RedisStore)(nil)
