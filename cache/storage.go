package cache

import (
	"geoconsole/config"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get on a cache miss.
var ErrNotFound = errors.New("cache entry not found")

// Storage keeps serialized upstream lists keyed by bucket and key.
type Storage interface {
	CheckConn() error
	CloseConnection() error

	Get(bucket, key string) ([]byte, error)
	Save(bucket, key string, value []byte, ttl int64) error
	Delete(bucket, key string) error
}

func NewStorage(cfg config.CacheCfg) (Storage, error) {
	if cfg.Disable {
		return new(storageStub), nil
	}

	switch cfg.Type {
	case config.StorageTypeNutsDB:
		nutsdb, err := NewNutsDBStorage(cfg.NutsDB)
		if err != nil {
			return nil, errors.Wrap(err, "nutsdb init storage err")
		}
		return nutsdb, nil
	default:
		redis, err := NewRedisStorage(cfg.Redis)
		if err != nil {
			return nil, errors.Wrap(err, "redis init storage err")
		}
		return redis, nil
	}
}

type storageStub struct{}

func (s *storageStub) CheckConn() error { return nil }

func (s *storageStub) CloseConnection() error { return nil }

func (s *storageStub) Get(string, string) ([]byte, error) { return nil, ErrNotFound }

func (s *storageStub) Save(string, string, []byte, int64) error { return nil }

func (s *storageStub) Delete(string, string) error { return nil }
