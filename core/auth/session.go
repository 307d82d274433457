package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid session token")
	ErrSessionExpired  = errors.New("session already expired")
)

// Session is an authenticated login, owned by the session Store.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	ExpiresAt time.Time `json:"expires_at"` // UTC
}

func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store keeps sessions until they expire or are deleted.
// GetSession returns ErrSessionNotFound for unknown or expired sessions.
type Store interface {
	CreateSession(ctx context.Context, sess Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
