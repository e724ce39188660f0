package config

import (
	"geoconsole/origin"

	validation "github.com/go-ozzo/ozzo-validation"
)

const defaultStreamBuffer = 256

// StreamCfg configures the websocket state stream.
type StreamCfg struct {
	// AllowedOrigins are origin patterns accepted on upgrade, empty allows any.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
	Buffer         int      `json:"buffer" yaml:"buffer"`
}

func (cfg StreamCfg) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.AllowedOrigins, validation.By(func(value interface{}) error {
			for _, pattern := range value.([]string) {
				if _, err := origin.Compile(pattern); err != nil {
					return err
				}
			}
			return nil
		})),
		validation.Field(&cfg.Buffer, validation.Min(0)),
	)
}

func (cfg StreamCfg) BufferSize() int {
	if cfg.Buffer <= 0 {
		return defaultStreamBuffer
	}
	return cfg.Buffer
}
