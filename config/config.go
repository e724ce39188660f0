package config

import (
	"io/ioutil"

	"geoconsole/log"
	"geoconsole/metrics"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/lancer-kit/uwe/v2/presets/api"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	ServiceName = "geoconsole"
)

// Cfg main structure of the app configuration.
type Cfg struct {
	Log      log.Config `json:"log" yaml:"log"`
	API      api.Config `json:"api" yaml:"api"`
	Upstream Upstream   `json:"upstream" yaml:"upstream"`
	RabbitMQ RabbitMQ   `json:"rabbit_mq" yaml:"rabbit_mq"`

	Cache    CacheCfg    `json:"cache" yaml:"cache"`
	Sessions SessionsCfg `json:"sessions" yaml:"sessions"`
	Editor   EditorCfg   `json:"editor" yaml:"editor"`
	Gate     GateCfg     `json:"gate" yaml:"gate"`
	Stream   StreamCfg   `json:"stream" yaml:"stream"`

	Monitoring metrics.MonitoringConf `json:"monitoring" yaml:"monitoring"`
}

func (cfg Cfg) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.API, validation.Required),
		validation.Field(&cfg.Log, validation.Required),
		validation.Field(&cfg.Upstream, validation.Required),
		validation.Field(&cfg.RabbitMQ),
		validation.Field(&cfg.Cache),
		validation.Field(&cfg.Sessions, validation.Required),
		validation.Field(&cfg.Editor),
		validation.Field(&cfg.Gate),
		validation.Field(&cfg.Stream),
	)
}

// Parse decodes and validates raw yaml, filling defaults for optional sections.
func Parse(rawConfig []byte) (Cfg, error) {
	config := Cfg{
		Editor: EditorCfg{}.Default(),
		Gate:   GateCfg{}.Default(),
	}

	err := yaml.Unmarshal(rawConfig, &config)
	if err != nil {
		return Cfg{}, errors.Wrap(err, "unable to unmarshal config file")
	}

	err = config.Validate()
	if err != nil {
		return Cfg{}, errors.Wrap(err, "invalid configuration")
	}

	return config, nil
}

func ReadConfig(path string) (Cfg, error) {
	rawConfig, err := ioutil.ReadFile(path)
	if err != nil {
		return Cfg{}, errors.Wrapf(err, "unable to read config file %s", path)
	}

	config, err := Parse(rawConfig)
	if err != nil {
		return Cfg{}, err
	}

	if config.Monitoring.Metrics {
		registerAllKeys()
	}

	return config, nil
}
