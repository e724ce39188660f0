package config

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/lancer-kit/noble"
)

// RabbitMQ configures the consumer of upstream change notifications.
type RabbitMQ struct {
	Enable bool       `json:"enable" yaml:"enable"`
	Auth   RabbitAuth `json:"auth" yaml:"auth"`
	Subs   []Exchange `json:"subs" yaml:"subs"`
}

func (cfg RabbitMQ) Validate() error {
	if !cfg.Enable {
		return nil
	}

	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.Auth, validation.Required),
		validation.Field(&cfg.Subs, validation.Required),
	)
}

type RabbitAuth struct {
	Host        string       `json:"host" yaml:"host"`
	User        noble.Secret `json:"user" yaml:"user"`
	Password    noble.Secret `json:"password" yaml:"password"`
	ConsumerTag string       `json:"consumer_tag" yaml:"consumer_tag"`
}

func (cfg RabbitAuth) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.Host, validation.Required),
	)
}

func (cfg RabbitAuth) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s", cfg.User.Get(), cfg.Password.Get(), cfg.Host)
}

func (cfg RabbitAuth) GetConsumerTag(queue string) string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s:%s_%s", hostname, queue, cfg.ConsumerTag)
}

type Exchange struct {
	Exchange     string `json:"exchange" yaml:"exchange"`
	ExchangeType string `json:"exchange_type" yaml:"exchange_type"`
	RoutingKey   string `json:"routing_key" yaml:"routing_key"`
	Queue        string `json:"queue" yaml:"queue"`
	// Durable exchanges will survive server restarts
	Durable bool `json:"durable" yaml:"durable"`
	// Will remain declared when there are no remaining bindings.
	AutoDelete bool `json:"auto_delete" yaml:"auto_delete"`
}

func (cfg Exchange) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.Exchange, validation.Required),
		validation.Field(&cfg.ExchangeType, validation.Required),
		validation.Field(&cfg.Queue, validation.Required),
	)
}
