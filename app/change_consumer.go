package app

import (
	"context"
	"sync"

	"geoconsole/config"
	"geoconsole/models"

	"github.com/lancer-kit/uwe/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// ChangeHandler applies one upstream change notice.
type ChangeHandler func(ctx context.Context, notice models.ChangeNotice)

// ChangeConsumer reads upstream change notices from RabbitMQ.
type ChangeConsumer struct {
	config  config.RabbitMQ
	logger  zerolog.Logger
	devMode bool
	wg      *sync.WaitGroup

	conn    *amqp.Connection
	channel *amqp.Channel

	handle ChangeHandler
}

func NewChangeConsumer(logger zerolog.Logger, configuration config.RabbitMQ, handle ChangeHandler) *ChangeConsumer {
	return &ChangeConsumer{
		logger:  logger,
		devMode: logger.GetLevel() == zerolog.TraceLevel,
		config:  configuration,
		handle:  handle,
		wg:      &sync.WaitGroup{},
	}
}

func (worker *ChangeConsumer) Init() error {
	var err error
	rabbitCfg := worker.config
	worker.conn, err = amqp.Dial(rabbitCfg.Auth.URL())
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	worker.channel, err = worker.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open RabbitMQ channel")
	}

	for _, mqSub := range rabbitCfg.Subs {
		if err = worker.ensureExchange(mqSub); err != nil {
			return err
		}
	}
	return nil
}

func (worker *ChangeConsumer) ensureExchange(mqSub config.Exchange) error {
	err := worker.channel.ExchangeDeclare(
		mqSub.Exchange, mqSub.ExchangeType,
		mqSub.Durable, mqSub.AutoDelete, false, false, nil,
	)
	if err != nil {
		return errors.Wrap(err, "failed to declare exchange - "+mqSub.Exchange)
	}
	return nil
}

func (worker *ChangeConsumer) ensureQueue(mqSub config.Exchange) error {
	_, err := worker.channel.QueueDeclare(
		mqSub.Queue, mqSub.Durable, mqSub.AutoDelete, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "failed to declare a queue")
	}

	routingKey := mqSub.RoutingKey
	if routingKey == "" {
		routingKey = mqSub.Queue
	}

	err = worker.channel.QueueBind(
		mqSub.Queue, routingKey, mqSub.Exchange, false, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to bind queue: %s", mqSub.Queue)
	}

	return nil
}

func (worker *ChangeConsumer) Run(wCtx uwe.Context) error {
	ctx, cancel := context.WithCancel(wCtx)
	deliveries := make(chan amqp.Delivery, len(worker.config.Subs))

	for _, sub := range worker.config.Subs {
		worker.wg.Add(1)
		go func(subscription config.Exchange) {
			defer worker.wg.Done()

			if err := worker.startConsumingRoutine(ctx, subscription, deliveries); err != nil {
				worker.logger.Error().Str("queue", subscription.Queue).
					Str("exchange", subscription.Exchange).
					Err(err).Msg("failed to subscribe")
			}
		}(sub)
	}

	for {
		select {
		case message := <-deliveries:
			worker.process(ctx, message)

		case <-wCtx.Done():
			cancel()
			worker.wg.Wait()

			worker.logger.Info().Msg("Receive exit code, stop all consumers")
			if err := worker.channel.Close(); err != nil {
				worker.logger.Warn().Err(err).Msg("fail when try to close channel")
			}
			if err := worker.conn.Close(); err != nil {
				worker.logger.Warn().Err(err).Msg("fail when try to close connection")
			}

			return nil
		}
	}
}

func (worker *ChangeConsumer) process(ctx context.Context, message amqp.Delivery) {
	logger := worker.logger.With().Fields(map[string]interface{}{
		"routing_key":  message.RoutingKey,
		"consumer_tag": message.ConsumerTag,
		"exchange":     message.Exchange,
	}).Logger()

	if worker.devMode {
		logger.Trace().Fields(map[string]interface{}{
			"delivery_tag": message.DeliveryTag,
			"message_id":   message.MessageId,
			"team_id":      message.Headers[models.RHeaderTeam],
			"resource":     message.Headers[models.RHeaderResource],
			"event_type":   message.Headers[models.RHeaderEvent],
		}).Msg("received a change notice")
	}

	notice, err := models.ParseChangeNotice(message)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid header")
		return
	}

	worker.handle(ctx, notice)
}

func (worker *ChangeConsumer) startConsumingRoutine(ctx context.Context,
	sub config.Exchange, out chan<- amqp.Delivery) error {
	logger := worker.logger.With().
		Str("queue", sub.Queue).
		Str("exchange", sub.Exchange).Logger()

	if err := worker.ensureQueue(sub); err != nil {
		return errors.Wrap(err, "failed to ensure queue")
	}

	consume, err := worker.channel.Consume(
		sub.Queue, worker.config.Auth.GetConsumerTag(sub.Queue),
		true, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "failed to register a consumer")
	}

	logger.Info().Msg("Run consumer loop")
	for {
		select {
		case message, ok := <-consume:
			if !ok {
				return errors.New("delivery channel closed")
			}
			select {
			case out <- message:
			case <-ctx.Done():
				return nil
			}

		case <-ctx.Done():
			logger.Info().Msg("Receive exit code, stop working")
			return nil
		}
	}
}
