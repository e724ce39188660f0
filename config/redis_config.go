package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/lancer-kit/noble"
)

type RedisConf struct {
	// DevMode turns the storage into a no-op, used for local runs without redis.
	DevMode       bool         `json:"dev_mode" yaml:"dev_mode"`
	MaxIdleConn   int          `json:"max_idle" yaml:"max_idle"`
	MaxActiveConn int          `json:"max_active" yaml:"max_active"`
	IdleTimeout   int64        `json:"idle_timeout" yaml:"idle_timeout"`
	PingInterval  int64        `json:"ping_interval" yaml:"ping_interval"`
	Password      noble.Secret `json:"auth" yaml:"auth"`
	Host          string       `json:"host" yaml:"host"`
	// Wait makes a borrow block while MaxActiveConn connections are in use.
	Wait            bool  `json:"wait" yaml:"wait"`
	MaxConnLifetime int64 `json:"max_conn_lifetime" yaml:"max_conn_lifetime"`
	// Timeout bounds dial, read and write of one connection, in seconds.
	Timeout int64 `json:"timeout" yaml:"timeout"`
	// Prefix namespaces every key written by the console.
	Prefix string `json:"prefix" yaml:"prefix"`
}

func (cfg RedisConf) Validate() error {
	if cfg.DevMode {
		return nil
	}

	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.PingInterval, validation.Required),
		validation.Field(&cfg.Host, validation.Required),
		validation.Field(&cfg.MaxIdleConn, validation.Min(0)),
		validation.Field(&cfg.MaxActiveConn, validation.Min(0)),
		validation.Field(&cfg.MaxConnLifetime, validation.Min(0)),
		validation.Field(&cfg.Timeout, validation.Min(0)),
	)
}

const (
	defaultRedisMaxIdle = 8
	defaultRedisTimeout = 5
)

// WithDefaults fills the pool settings left empty in the config file.
func (cfg RedisConf) WithDefaults() RedisConf {
	if cfg.MaxIdleConn <= 0 {
		cfg.MaxIdleConn = defaultRedisMaxIdle
	}
	if cfg.MaxActiveConn > 0 && cfg.MaxIdleConn > cfg.MaxActiveConn {
		cfg.MaxIdleConn = cfg.MaxActiveConn
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRedisTimeout
	}
	return cfg
}

func (cfg RedisConf) DialTimeout() time.Duration {
	return time.Duration(cfg.Timeout) * time.Second
}

func (cfg RedisConf) URL() string {
	pass := ""
	if cfg.Password.Get() != "" {
		pass = ":" + cfg.Password.Get() + "@"
	}

	return fmt.Sprintf("redis://%s%s", pass, cfg.Host)
}

// Key builds a namespaced redis key.
func (cfg RedisConf) Key(parts ...string) string {
	key := cfg.Prefix
	for _, part := range parts {
		if key != "" {
			key += ":"
		}
		key += part
	}
	return key
}
