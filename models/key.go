package models

import (
	"encoding/json"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pkg/errors"
)

// Key is a map API key owned by a team.
type Key struct {
	KeyID          string    `json:"userKey"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createAt"`
	AllowedOrigins []string  `json:"allowedOrigins"`
}

// UnmarshalJSON accepts both spellings of the id (userKey, keyId) and of the
// creation time (createAt, createdAt). A creation time that is not RFC 3339
// is left zero.
func (k *Key) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserKey        string   `json:"userKey"`
		KeyID          string   `json:"keyId"`
		Name           string   `json:"name"`
		CreateAt       string   `json:"createAt"`
		CreatedAt      string   `json:"createdAt"`
		AllowedOrigins []string `json:"allowedOrigins"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*k = Key{KeyID: raw.UserKey, Name: raw.Name, AllowedOrigins: raw.AllowedOrigins}
	if k.KeyID == "" {
		k.KeyID = raw.KeyID
	}

	created := raw.CreateAt
	if created == "" {
		created = raw.CreatedAt
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		k.CreatedAt = t
	}
	return nil
}

func (k Key) Clone() Key {
	k.AllowedOrigins = cloneStrings(k.AllowedOrigins)
	return k
}

func (k Key) Equal(o Key) bool {
	return k.KeyID == o.KeyID &&
		k.Name == o.Name &&
		equalStrings(k.AllowedOrigins, o.AllowedOrigins)
}

// KeyUpdate is the PUT body of a key.
type KeyUpdate struct {
	Name           string   `json:"name"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

func (k Key) Update() KeyUpdate {
	return KeyUpdate{Name: k.Name, AllowedOrigins: nonNil(k.AllowedOrigins)}
}

// CreateRequest is the POST body of key and dataset creation.
type CreateRequest struct {
	Name string `json:"name"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.By(notBlank), validation.Length(1, 128)),
	)
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func nonNil(src []string) []string {
	if src == nil {
		return []string{}
	}
	return src
}
