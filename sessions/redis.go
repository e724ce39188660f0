package sessions

import (
	"encoding/json"
	"sync"

	"geoconsole/cache"
	"geoconsole/config"
	"geoconsole/models"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

const (
	commandGet    = "GET"
	commandSet    = "SET"
	commandDel    = "DEL"
	commandPing   = "PING"
	commandExpire = "EX"
	replyPong     = "PONG"

	keySpace = "session"
)

type RedisStorage struct {
	cfg  config.RedisConf
	pool *redis.Pool

	// dev mode keeps sessions in process memory
	mu  sync.RWMutex
	dev map[string][]byte
}

// NewRedisStorage returns initialized instance of the redis backed Storage.
func NewRedisStorage(cfg config.RedisConf) (*RedisStorage, error) {
	if cfg.DevMode {
		return &RedisStorage{cfg: cfg, dev: map[string][]byte{}}, nil
	}

	pool := cache.NewPool(cfg)
	conn, err := pool.Dial()
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis configuration url")
	}
	_ = conn.Close()

	return &RedisStorage{cfg: cfg, pool: pool}, nil
}

func (s *RedisStorage) CheckConn() error {
	if s.cfg.DevMode {
		return nil
	}

	conn := s.pool.Get()
	defer conn.Close()

	reply, err := redis.String(conn.Do(commandPing))
	if err != nil {
		return errors.Wrap(err, "connection failed")
	}

	if reply != replyPong {
		return errors.New("failed to receive ping response from redis")
	}

	return nil
}

func (s *RedisStorage) CloseConnection() error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

func (s *RedisStorage) GetSession(key string) (*models.Session, error) {
	var raw []byte
	if s.cfg.DevMode {
		var ok bool
		s.mu.RLock()
		raw, ok = s.dev[key]
		s.mu.RUnlock()
		if !ok {
			return nil, ErrNotFound
		}
	} else {
		conn := s.pool.Get()
		defer conn.Close()

		var err error
		raw, err = redis.Bytes(conn.Do(commandGet, s.cfg.Key(keySpace, key)))
		if err == redis.ErrNil {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to perform %s command, data wasn't retrieved", commandGet)
		}
	}

	session := new(models.Session)
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal raw value into target")
	}

	return session, nil
}

// SaveAsJSON saves any value as json object with provided key.
// A non positive ttl stores the value without expiration.
func (s *RedisStorage) SaveAsJSON(key string, value interface{}, ttl int64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal data")
	}

	if s.cfg.DevMode {
		s.mu.Lock()
		s.dev[key] = raw
		s.mu.Unlock()
		return nil
	}

	conn := s.pool.Get()
	defer conn.Close()

	args := redis.Args{}.Add(s.cfg.Key(keySpace, key), raw)
	if ttl > 0 {
		args = args.Add(commandExpire, ttl)
	}

	_, err = conn.Do(commandSet, args...)
	if err != nil {
		return errors.Wrapf(err, "failed to perform %s command, data wasn't saved", commandSet)
	}

	return nil
}

func (s *RedisStorage) Delete(key string) error {
	if s.cfg.DevMode {
		s.mu.Lock()
		delete(s.dev, key)
		s.mu.Unlock()
		return nil
	}

	conn := s.pool.Get()
	defer conn.Close()

	if _, err := conn.Do(commandDel, s.cfg.Key(keySpace, key)); err != nil {
		return errors.Wrapf(err, "failed to perform %s command", commandDel)
	}
	return nil
}
