package cache

import (
	"time"

	"geoconsole/config"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

// NewPool builds the redis pool shared by the list cache and the session
// storage. Sizing and timeouts come from conf, zero values fall back to the
// console defaults.
func NewPool(conf config.RedisConf) *redis.Pool {
	conf = conf.WithDefaults()

	return &redis.Pool{
		Dial:            dial(conf.URL(), conf.DialTimeout()),
		TestOnBorrow:    ping(time.Duration(conf.PingInterval) * time.Second),
		MaxIdle:         conf.MaxIdleConn,
		MaxActive:       conf.MaxActiveConn,
		IdleTimeout:     time.Duration(conf.IdleTimeout) * time.Second,
		Wait:            conf.Wait,
		MaxConnLifetime: time.Duration(conf.MaxConnLifetime) * time.Second,
	}
}

func dial(url string, timeout time.Duration) func() (redis.Conn, error) {
	return func() (redis.Conn, error) {
		c, err := redis.DialURL(url,
			redis.DialConnectTimeout(timeout),
			redis.DialReadTimeout(timeout),
			redis.DialWriteTimeout(timeout),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to dial redis")
		}
		return c, nil
	}
}

// ping checks a borrowed connection that has been idle longer than pingInterval.
func ping(pingInterval time.Duration) func(c redis.Conn, t time.Time) error {
	return func(c redis.Conn, t time.Time) error {
		if time.Since(t) < pingInterval {
			return nil
		}

		if _, err := c.Do("PING"); err != nil {
			return errors.Wrap(err, "idle connection is broken")
		}
		return nil
	}
}
