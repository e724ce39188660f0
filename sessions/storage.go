package sessions

import (
	"geoconsole/config"
	"geoconsole/models"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no session is stored under the key.
var ErrNotFound = errors.New("session not found")

type Storage interface {
	CheckConn() error
	CloseConnection() error
	GetSession(key string) (*models.Session, error)
	SaveAsJSON(key string, value interface{}, ttl int64) error
	Delete(key string) error
}

func NewStorage(cfg config.SessionsCfg) (Storage, error) {
	switch cfg.Type {
	case config.SessionStorageBoltDB:
		boltdb, err := NewBoltDBStorage(cfg.BoltDB)
		if err != nil {
			return nil, errors.Wrap(err, "boltdb init storage err")
		}
		return boltdb, nil
	default:
		redis, err := NewRedisStorage(cfg.Redis)
		if err != nil {
			return nil, errors.Wrap(err, "redis init storage err")
		}
		return redis, nil
	}
}
