package config

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const defaultUpstreamTimeout = 15 * time.Second

// Upstream describes the REST backend the console talks to.
type Upstream struct {
	// URL is the API base, e.g. https://api.app.example.com/dev
	URL string `json:"url" yaml:"url"`
	// PublicURL is the base of public download links, defaults to URL.
	PublicURL string        `json:"public_url" yaml:"public_url"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
}

func (cfg Upstream) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.URL, validation.Required, is.URL),
		validation.Field(&cfg.PublicURL, is.URL),
	)
}

func (cfg Upstream) BaseURL() string {
	return strings.TrimRight(cfg.URL, "/")
}

func (cfg Upstream) DownloadBaseURL() string {
	if cfg.PublicURL == "" {
		return cfg.BaseURL()
	}
	return strings.TrimRight(cfg.PublicURL, "/")
}

func (cfg Upstream) RequestTimeout() time.Duration {
	if cfg.Timeout <= 0 {
		return defaultUpstreamTimeout
	}
	return cfg.Timeout
}
