package config

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	SessionStorageRedis  = "redis"
	SessionStorageBoltDB = "boltdb"

	defaultSessionTTL = 12 * 60 * 60
)

type SessionsCfg struct {
	Type   string       `json:"type" yaml:"type"`
	Redis  RedisConf    `json:"redis" yaml:"redis"`
	BoltDB BoltDBConfig `json:"boltdb" yaml:"boltdb"`
	// TTL in seconds for sessions whose token carries no expiration.
	TTL int64 `json:"ttl" yaml:"ttl"`
}

func (cfg SessionsCfg) Validate() error {
	validators := []*validation.FieldRules{
		validation.Field(&cfg.Type, validation.Required, validation.In(SessionStorageRedis, SessionStorageBoltDB)),
		validation.Field(&cfg.TTL, validation.Min(0)),
	}

	switch cfg.Type {
	case SessionStorageBoltDB:
		validators = append(validators, validation.Field(&cfg.BoltDB, validation.Required))
	case SessionStorageRedis:
		validators = append(validators, validation.Field(&cfg.Redis, validation.Required))
	}
	return validation.ValidateStruct(&cfg, validators...)
}

func (cfg SessionsCfg) DefaultTTL() int64 {
	if cfg.TTL <= 0 {
		return defaultSessionTTL
	}
	return cfg.TTL
}
