// Package redisstore persists the session in a Redis hash. It exists for
// shared-terminal deployments (hospital kiosks) where the signed-in state
// must live off the local host. Set and Clear run as a MULTI/EXEC pipeline
// so the session fields always change together.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/clinicore-go/session"
)

const defaultTimeout = 5 * time.Second

// Store persists sessions in a single Redis hash.
type Store struct {
	rdb     redis.UniversalClient
	key     string
	timeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout overrides the per-operation Redis timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// New creates a Redis-backed store. key names the hash that holds the
// session fields, typically scoped per terminal or per user.
func New(rdb redis.UniversalClient, key string, options ...Option) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("[redisstore.New] redis client is required")
	}
	if key == "" {
		return nil, errors.New("[redisstore.New] key is required")
	}
	store := &Store{rdb: rdb, key: key, timeout: defaultTimeout}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Get reads the session hash. A missing hash is an empty session.
func (s *Store) Get() (session.Session, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	values, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return session.Session{}, errors.Wrap(err, "[redisstore.Get] HGETALL")
	}
	return session.DecodeValues(values)
}

// Set replaces the session hash atomically.
func (s *Store) Set(sess session.Session) error {
	values, err := session.EncodeValues(sess)
	if err != nil {
		return errors.Wrap(err, "[redisstore.Set] encode session")
	}

	ctx, cancel := s.opContext()
	defer cancel()

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(values) > 0 {
		flat := make([]any, 0, len(values)*2)
		for key, value := range values {
			flat = append(flat, key, value)
		}
		pipe.HSet(ctx, s.key, flat...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "[redisstore.Set] pipeline exec")
	}
	return nil
}

// Clear deletes the session hash.
func (s *Store) Clear() error {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return errors.Wrap(err, "[redisstore.Clear] DEL")
	}
	return nil
}

func (s *Store) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
