package main

import (
	"time"

	"geoconsole/models"

	"github.com/lancer-kit/uwe/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"syreclabs.com/go/faker"
)

// emitter publishes random change notices, for poking a running console.
type emitter struct {
	cfg EmitterCfg
	log zerolog.Logger

	conn    *amqp.Connection
	channel *amqp.Channel
}

func newEmitter(cfg EmitterCfg, logger zerolog.Logger) *emitter {
	return &emitter{cfg: cfg, log: logger}
}

func (em *emitter) Init() (err error) {
	em.conn, err = amqp.Dial(em.cfg.RabbitMQ.URL())
	if err != nil {
		return errors.Wrap(err, "failed to dial")
	}

	em.channel, err = em.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "failed channel connection")
	}
	return nil
}

func (em *emitter) Run(ctx uwe.Context) error {
	ticker := time.NewTicker(time.Duration(em.cfg.TickPeriod) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return em.Close()
		case <-ticker.C:
			em.publish(em.randomNotice())
		}
	}
}

func (em *emitter) randomNotice() models.ChangeNotice {
	resources := make([]string, 0, len(em.cfg.Resources))
	for _, r := range em.cfg.Resources {
		resources = append(resources, string(r))
	}

	return models.ChangeNotice{
		TeamID:     faker.RandomChoice(em.cfg.Teams),
		Resource:   models.Resource(faker.RandomChoice(resources)),
		Event:      faker.RandomChoice([]string{"created", "updated", "deleted"}),
		ResourceID: faker.Lorem().Characters(12),
	}
}

func (em *emitter) publish(notice models.ChangeNotice) {
	err := em.channel.Publish(
		em.cfg.Exchange,
		em.cfg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			Headers:      notice.Headers(),
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
		})
	if err != nil {
		em.log.Error().Err(err).Msg("failed to publish notice")
		return
	}

	em.log.Debug().
		Str("team", notice.TeamID).
		Str("resource", string(notice.Resource)).
		Str("event", notice.Event).
		Msg("notice published")
}

func (em *emitter) Close() error {
	if err := em.channel.Close(); err != nil {
		return err
	}
	return em.conn.Close()
}
