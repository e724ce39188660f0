package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	SessionHeader = "X-Session-Id"
	SessionCookie = "geoconsole_session"

	AuthorizationHeader = "Authorization"
)

// Session is a signed-in console user. Token is the identity token
// issued by the identity provider and forwarded upstream as is.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TTL returns the remaining lifetime in seconds, -1 when the token never expires.
func (s Session) TTL(now time.Time) int64 {
	if s.ExpiresAt.IsZero() {
		return -1
	}

	ttl := int64(s.ExpiresAt.Sub(now) / time.Second)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// SignInRequest is the body of a sign-in call.
type SignInRequest struct {
	Token string `json:"token"`
}

func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}
