package main

import (
	"fmt"
	"os"

	"geoconsole/log"

	"github.com/lancer-kit/uwe/v2"
	"github.com/urfave/cli"
)

func main() {
	newApp := cli.NewApp()
	newApp.Usage = "publishes random upstream change notices"
	newApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "./change_emitter.config.yaml",
		},
	}
	newApp.Action = func(c *cli.Context) error {
		cfg, err := readConfig(c.String("config"))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		logger := log.New(cfg.Log)

		chief := uwe.NewChief()
		chief.UseDefaultRecover()
		chief.AddWorker("change_emitter", newEmitter(cfg, logger))
		chief.Run()
		return nil
	}

	if err := newApp.Run(os.Args); err != nil {
		fmt.Println("failed run emitter:", err.Error())
		os.Exit(1)
	}
}
