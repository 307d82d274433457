// Package redisstore keeps auth sessions in Redis, expiring them with the key TTL.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/auth"
)

const keyPrefix = "session:"

type store struct {
	client *redis.Client
}

var _ auth.Store = (*store)(nil)

// NewClient connects to redis with short timeouts.
func NewClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         conf.Redis.Addr,
		Password:     conf.Redis.Password,
		DB:           conf.Redis.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

func NewStore(client *redis.Client) auth.Store {
	return &store{client: client}
}

func key(id string) string { return keyPrefix + id }

func (s *store) CreateSession(ctx context.Context, sess auth.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return auth.ErrSessionExpired
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(s.client.Set(ctx, key(sess.ID), data, ttl).Err(), "storing session")
}

func (s *store) GetSession(ctx context.Context, id string) (auth.Session, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, errors.Wrap(err, "loading session")
	}

	var sess auth.Session
	if err = json.Unmarshal(data, &sess); err != nil {
		return auth.Session{}, errors.Wrap(err, "decoding session")
	}
	if sess.IsExpired(time.Now()) {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	return sess, nil
}

func (s *store) DeleteSession(ctx context.Context, id string) error {
	return errors.Wrap(s.client.Del(ctx, key(id)).Err(), "deleting session")
}

func (s *store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
