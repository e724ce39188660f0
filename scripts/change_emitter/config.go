package main

import (
	"io/ioutil"

	"geoconsole/config"
	"geoconsole/log"
	"geoconsole/models"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type EmitterCfg struct {
	Log        log.Config        `json:"log" yaml:"log"`
	RabbitMQ   config.RabbitAuth `json:"rabbit_mq" yaml:"rabbit_mq"`
	Exchange   string            `json:"exchange" yaml:"exchange"`
	RoutingKey string            `json:"routing_key" yaml:"routing_key"`
	Teams      []string          `json:"teams" yaml:"teams"`
	Resources  []models.Resource `json:"resources" yaml:"resources"`
	// TickPeriod is the pause between two notices in milliseconds.
	TickPeriod uint `json:"tick_period" yaml:"tick_period"`
}

func (cfg EmitterCfg) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.RabbitMQ, validation.Required),
		validation.Field(&cfg.Exchange, validation.Required),
		validation.Field(&cfg.Teams, validation.Required),
		validation.Field(&cfg.Resources, validation.By(validResources)),
		validation.Field(&cfg.TickPeriod, validation.Required),
	)
}

func validResources(value interface{}) error {
	resources, _ := value.([]models.Resource)
	for _, resource := range resources {
		if !resource.Valid() {
			return errors.Errorf("unknown resource %q", resource)
		}
	}
	return nil
}

func readConfig(path string) (EmitterCfg, error) {
	cfg := EmitterCfg{Log: log.Config{}.Default()}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "unable to read config file %s", path)
	}
	if err = yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrap(err, "unable to unmarshal config file")
	}
	if len(cfg.Resources) == 0 {
		cfg.Resources = []models.Resource{models.ResourceKeys, models.ResourceDatasets, models.ResourceTeams}
	}
	return cfg, cfg.Validate()
}
