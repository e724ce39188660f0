package config

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	StorageTypeRedis  = "redis"
	StorageTypeNutsDB = "nutsdb"

	defaultListTTL = 60
)

// CacheCfg configures the cache of upstream resource lists.
type CacheCfg struct {
	Disable bool   `json:"disable" yaml:"disable"`
	Type    string `json:"type" yaml:"type"`
	// TTL of a cached list in seconds.
	TTL    int64     `json:"ttl" yaml:"ttl"`
	Redis  RedisConf `json:"redis" yaml:"redis"`
	NutsDB NutsDBCfg `json:"nutsdb" yaml:"nutsdb"`
}

func (cfg CacheCfg) Validate() error {
	if cfg.Disable {
		return nil
	}

	validators := []*validation.FieldRules{
		validation.Field(&cfg.Type, validation.Required, validation.In(StorageTypeRedis, StorageTypeNutsDB)),
		validation.Field(&cfg.TTL, validation.Min(0)),
	}

	switch cfg.Type {
	case StorageTypeNutsDB:
		validators = append(validators, validation.Field(&cfg.NutsDB, validation.Required))
	case StorageTypeRedis:
		validators = append(validators, validation.Field(&cfg.Redis, validation.Required))
	}
	return validation.ValidateStruct(&cfg, validators...)
}

func (cfg CacheCfg) ListTTL() int64 {
	if cfg.TTL <= 0 {
		return defaultListTTL
	}
	return cfg.TTL
}
