package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/user"
)

var nowFunc = time.Now // mockable

type Service struct {
	store     Store
	usrSvc    *user.Service
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

func NewService(store Store, usrSvc *user.Service, conf *core.Config) *Service {
	return &Service{
		store:     store,
		usrSvc:    usrSvc,
		secretKey: []byte(conf.SecretKey),
		issuer:    conf.AppName,
		ttl:       conf.Session.TTL,
	}
}

// SignUp registers a new account. It does not sign the user in.
func (svc *Service) SignUp(ctx context.Context, nu user.NewUser) (user.User, error) {
	return svc.usrSvc.Create(ctx, nu)
}

// SignIn checks the credentials, opens a new Session and returns it with its signed token.
func (svc *Service) SignIn(ctx context.Context, email, pwd string) (user.User, Session, string, error) {
	usr, err := svc.usrSvc.Authenticate(ctx, email, pwd)
	if err != nil {
		return user.User{}, Session{}, "", err
	}

	now := nowFunc().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    usr.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(svc.ttl),
	}
	if err = svc.store.CreateSession(ctx, sess); err != nil {
		return user.User{}, Session{}, "", errors.Wrap(err, "creating session")
	}
	token, err := signToken(svc.secretKey, svc.issuer, sess)
	if err != nil {
		return user.User{}, Session{}, "", err
	}
	return usr, sess, token, nil
}

// Resolve returns the live Session behind token.
// An invalid token, or an unknown/expired session, yields ErrSessionNotFound.
// Any other error comes from the session store.
func (svc *Service) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionNotFound
	}
	claims, err := parseToken(svc.secretKey, token)
	if err != nil {
		return Session{}, ErrSessionNotFound
	}
	sess, err := svc.store.GetSession(ctx, claims.Id)
	if err != nil {
		if err == ErrSessionNotFound {
			return Session{}, err
		}
		return Session{}, errors.Wrap(err, "getting session")
	}
	if sess.IsExpired(nowFunc()) || sess.UserID != claims.Subject {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// SignOut destroys the session behind token. Signing out twice is not an error.
func (svc *Service) SignOut(ctx context.Context, token string) error {
	claims, err := parseToken(svc.secretKey, token)
	if err != nil {
		return nil
	}
	return svc.DeleteSession(ctx, claims.Id)
}

func (svc *Service) DeleteSession(ctx context.Context, id string) error {
	if err := svc.store.DeleteSession(ctx, id); err != nil && err != ErrSessionNotFound {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

func (svc *Service) Ping(ctx context.Context) error {
	return svc.store.Ping(ctx)
}
