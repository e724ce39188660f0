package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// EditorCfg tunes draft editors.
type EditorCfg struct {
	// MessageDisplay is how long a save status stays visible before it
	// returns to idle.
	MessageDisplay time.Duration `json:"message_display" yaml:"message_display"`
	// SaveTimeout bounds a single reconciliation request.
	SaveTimeout time.Duration `json:"save_timeout" yaml:"save_timeout"`
}

func (EditorCfg) Default() EditorCfg {
	return EditorCfg{
		MessageDisplay: 3 * time.Second,
		SaveTimeout:    30 * time.Second,
	}
}

func (cfg EditorCfg) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.MessageDisplay, validation.Min(time.Duration(0))),
		validation.Field(&cfg.SaveTimeout, validation.Min(time.Duration(0))),
	)
}

// GateCfg tunes the confirmation-gated team deletion.
type GateCfg struct {
	Confirmation string        `json:"confirmation" yaml:"confirmation"`
	SuccessDelay time.Duration `json:"success_delay" yaml:"success_delay"`
	FailureDelay time.Duration `json:"failure_delay" yaml:"failure_delay"`
	RedirectURL  string        `json:"redirect_url" yaml:"redirect_url"`
}

func (GateCfg) Default() GateCfg {
	return GateCfg{
		Confirmation: "delete",
		SuccessDelay: 2 * time.Second,
		FailureDelay: 3 * time.Second,
		RedirectURL:  "/",
	}
}

func (cfg GateCfg) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.Confirmation, validation.Required),
		validation.Field(&cfg.RedirectURL, validation.Required),
	)
}
