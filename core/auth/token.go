package auth

import (
	"fmt"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// Claims represents the claims carried by a session token.
// Id (jti) is the session ID, Subject (sub) the user ID.
type Claims struct {
	jwt.StandardClaims
}

func signToken(secretKey []byte, issuer string, sess Session) (string, error) {
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Subject:   sess.UserID,
			Issuer:    issuer,
			IssuedAt:  sess.CreatedAt.Unix(),
			ExpiresAt: sess.ExpiresAt.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parseToken verifies the token signature & expiry.
func parseToken(secretKey []byte, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid || claims.Id == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
