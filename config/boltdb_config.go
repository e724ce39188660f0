package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type BoltDBConfig struct {
	FilePath string `json:"file_path" yaml:"file_path"`
	// Timeout is the amount of time to wait to obtain a file lock, in seconds.
	Timeout  int64 `json:"timeout" yaml:"timeout"`
	ReadOnly bool  `json:"read_only" yaml:"read_only"`
}

func (cfg BoltDBConfig) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.FilePath, validation.Required),
		validation.Field(&cfg.Timeout, validation.Min(0)),
	)
}

func (cfg BoltDBConfig) LockTimeout() time.Duration {
	return time.Duration(cfg.Timeout) * time.Second
}
