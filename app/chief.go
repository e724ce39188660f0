package app

import (
	"geoconsole/config"

	"github.com/lancer-kit/uwe/v2"
	"github.com/rs/zerolog"
)

const (
	WorkerAPIServer      = "api_server"
	WorkerStreamHub      = "stream_hub"
	WorkerReconciler     = "reconciler"
	WorkerChangeConsumer = "change_consumer"
)

func InitChief(logger zerolog.Logger, cfg config.Cfg) (uwe.Chief, *Console) {
	defer func() {
		rec := recover()
		if rec != nil {
			logger.Fatal().Interface("recover", rec).Msg("caught panic")
		}
	}()
	logger = logger.With().Str("app_layer", "workers").Logger()

	chief := uwe.NewChief()
	chief.UseDefaultRecover()
	chief.SetEventHandler(func(event uwe.Event) {
		var level zerolog.Level
		switch event.Level {
		case uwe.LvlFatal, uwe.LvlError:
			level = zerolog.ErrorLevel
		case uwe.LvlInfo:
			level = zerolog.InfoLevel
		default:
			level = zerolog.WarnLevel
		}

		logger.WithLevel(level).Fields(event.Fields).Msg(event.Message)
	})

	console, err := NewConsole(logger, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to init console")
	}

	webServer := GetServer(
		logger.With().Str("worker", WorkerAPIServer).Logger(),
		cfg,
		console,
	)

	chief.AddWorker(WorkerStreamHub, console.hub)
	chief.AddWorker(WorkerReconciler, console.scheduler)
	chief.AddWorker(WorkerAPIServer, webServer)

	if cfg.RabbitMQ.Enable {
		chief.AddWorker(WorkerChangeConsumer, NewChangeConsumer(
			logger.With().Str("worker", WorkerChangeConsumer).Logger(),
			cfg.RabbitMQ,
			console.ApplyChange,
		))
	}

	return chief, console
}
