package sessions

import (
	"time"

	"geoconsole/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrExpired      = errors.New("session expired")
	ErrTokenExpired = errors.New("identity token already expired")
)

// Manager creates, resolves and destroys console sessions on top of a Storage.
type Manager struct {
	storage    Storage
	defaultTTL int64
	now        func() time.Time
}

func NewManager(storage Storage, defaultTTL int64) *Manager {
	return &Manager{storage: storage, defaultTTL: defaultTTL, now: time.Now}
}

func (m *Manager) Storage() Storage { return m.storage }

// SignIn persists a new session for the identity token.
func (m *Manager) SignIn(token string) (models.Session, error) {
	identity, err := ParseIdentity(token)
	if err != nil {
		return models.Session{}, err
	}

	now := m.now().UTC()
	session := models.Session{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    identity.UserID,
		Username:  identity.Username,
		Email:     identity.Email,
		ExpiresAt: identity.ExpiresAt,
		CreatedAt: now,
	}
	if session.Expired(now) {
		return models.Session{}, ErrTokenExpired
	}

	ttl := session.TTL(now)
	if ttl < 0 {
		ttl = m.defaultTTL
		session.ExpiresAt = now.Add(time.Duration(ttl) * time.Second)
	}

	if err = m.storage.SaveAsJSON(session.ID, session, ttl); err != nil {
		return models.Session{}, errors.Wrap(err, "failed to save session")
	}
	return session, nil
}

// Get resolves a session id; expired sessions are removed and reported as ErrExpired.
func (m *Manager) Get(id string) (models.Session, error) {
	if id == "" {
		return models.Session{}, ErrNotFound
	}

	session, err := m.storage.GetSession(id)
	if err != nil {
		return models.Session{}, err
	}

	if session.Expired(m.now()) {
		_ = m.storage.Delete(id)
		return models.Session{}, ErrExpired
	}
	return *session, nil
}

func (m *Manager) SignOut(id string) error {
	return errors.Wrap(m.storage.Delete(id), "failed to delete session")
}
