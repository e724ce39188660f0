package cache

import (
	"geoconsole/config"

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
)

type RedisStorage struct {
	cfg  config.RedisConf
	pool *redis.Pool
}

// NewRedisStorage returns initialized instance of the redis backed Storage.
// In dev mode nothing is stored and every read is a miss.
func NewRedisStorage(cfg config.RedisConf) (*RedisStorage, error) {
	if cfg.DevMode {
		return &RedisStorage{cfg: cfg, pool: nil}, nil
	}

	pool := NewPool(cfg)
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

func (s *RedisStorage) Get(bucket, key string) ([]byte, error) {
	if s.cfg.DevMode {
		return nil, ErrNotFound
	}

	conn := s.pool.Get()
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do(commandGet, s.cfg.Key(bucket, key)))
	if err == redis.ErrNil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to perform %s command, data wasn't retrieved", commandGet)
	}

	return raw, nil
}

// Save stores value under bucket:key, ttl is in seconds.
func (s *RedisStorage) Save(bucket, key string, value []byte, ttl int64) error {
	if s.cfg.DevMode {
		return nil
	}

	conn := s.pool.Get()
	defer conn.Close()

	args := redis.Args{}.Add(s.cfg.Key(bucket, key), value)
	if ttl > 0 {
		args = args.Add(commandExpire, ttl)
	}

	_, err := conn.Do(commandSet, args...)
	if err != nil {
		return errors.Wrapf(err, "failed to perform %s command, data wasn't saved", commandSet)
	}

	return nil
}

func (s *RedisStorage) Delete(bucket, key string) error {
	if s.cfg.DevMode {
		return nil
	}

	conn := s.pool.Get()
	defer conn.Close()

	_, err := conn.Do(commandDel, s.cfg.Key(bucket, key))
	if err != nil {
		return errors.Wrapf(err, "failed to perform %s command", commandDel)
	}
	return nil
}
