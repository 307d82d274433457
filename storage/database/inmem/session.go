package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/schooldesk/core/auth"
)

type sessionStore struct {
	table map[string]auth.Session
	mutex sync.RWMutex
}

var _ auth.Store = (*sessionStore)(nil)

func NewSessionStore() auth.Store {
	return &sessionStore{table: make(map[string]auth.Session)}
}

func (s *sessionStore) CreateSession(_ context.Context, sess auth.Session) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.table[sess.ID] = sess
	return nil
}

func (s *sessionStore) GetSession(_ context.Context, id string) (auth.Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sess, ok := s.table[id]
	if !ok {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	if sess.IsExpired(time.Now()) {
		delete(s.table, id)
		return auth.Session{}, auth.ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionStore) DeleteSession(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.table, id)
	return nil
}

func (s *sessionStore) Ping(context.Context) error { return nil }
