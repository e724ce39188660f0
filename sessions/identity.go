package sessions

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ErrInvalidToken is the cause of every identity token rejection.
var ErrInvalidToken = errors.New("invalid identity token")

// Claims are the identity token fields the console reads.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"cognito:username"`
	jwt.RegisteredClaims
}

// Identity is what a sign-in learns about the user from the token.
type Identity struct {
	UserID    string
	Username  string
	Email     string
	ExpiresAt time.Time
}

// ParseIdentity reads the identity claims without verifying the signature:
// the upstream backend verifies the token on every forwarded request.
func ParseIdentity(token string) (Identity, error) {
	claims := new(Claims)
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return Identity{}, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if claims.Subject == "" {
		return Identity{}, errors.Wrap(ErrInvalidToken, "no subject")
	}

	id := Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
	}
	if id.Username == "" {
		id.Username = claims.Email
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
