package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/auth"
	"github.com/trezcool/schooldesk/core/testutil"
	"github.com/trezcool/schooldesk/core/user"
	emailsvc "github.com/trezcool/schooldesk/services/email"
	inmemdb "github.com/trezcool/schooldesk/storage/database/inmem"
)

func newTestStore(t *testing.T) (auth.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	sess := auth.Session{ID: "abc", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.CreateSession(ctx, sess))
	assert.True(t, mr.Exists("session:abc"))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL("session:abc").Seconds(), 5)

	got, err := s.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	_, err = s.GetSession(ctx, "unknown")
	assert.Equal(t, auth.ErrSessionNotFound, err)

	require.NoError(t, s.DeleteSession(ctx, "abc"))
	require.NoError(t, s.DeleteSession(ctx, "abc"))
	_, err = s.GetSession(ctx, "abc")
	assert.Equal(t, auth.ErrSessionNotFound, err)
}

func TestStore_expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx, auth.Session{ID: "short", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)
	_, err := s.GetSession(ctx, "short")
	assert.Equal(t, auth.ErrSessionNotFound, err)

	// already expired sessions are refused, never silently dropped
	err = s.CreateSession(ctx, auth.Session{ID: "old", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(-time.Minute)})
	assert.Equal(t, auth.ErrSessionExpired, err)
	assert.False(t, mr.Exists("session:old"))

	err = s.CreateSession(ctx, auth.Session{ID: "zero", UserID: "u1", CreatedAt: now, ExpiresAt: now})
	assert.Equal(t, auth.ErrSessionExpired, err)
	assert.False(t, mr.Exists("session:zero"))
}

func TestStore_unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	s := NewStore(client)
	mr.Close()

	_, err = s.GetSession(context.Background(), "abc")
	require.Error(t, err)
	assert.NotEqual(t, auth.ErrSessionNotFound, err)
	assert.Error(t, s.Ping(context.Background()))
}

func TestStore_signInWithZeroTTL(t *testing.T) {
	s, mr := newTestStore(t)
	conf := core.NewTestConfig()
	conf.Session.TTL = 0
	users := inmemdb.NewUserRepository(inmemdb.Open())
	usrSvc := user.NewService(users, emailsvc.NewConsoleServiceMock(conf, &testutil.Logger{}), conf)
	testutil.CreateUser(t, users, "Sam Student", "sam@school.test", "Str0ng#Pass", user.RoleStudent, 3)

	_, _, token, err := auth.NewService(s, usrSvc, conf).SignIn(context.Background(), "sam@school.test", "Str0ng#Pass")
	require.Error(t, err)
	assert.Equal(t, auth.ErrSessionExpired, errors.Cause(err))
	assert.Empty(t, token)
	assert.Empty(t, mr.Keys())
}
