package actions

import (
	"fmt"

	"geoconsole/app"
	"geoconsole/config"
	"geoconsole/log"

	"github.com/urfave/cli"
)

func serveAction(c *cli.Context) error {
	cfg, err := config.ReadConfig(c.GlobalString(FlagConfig))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	logger := log.New(cfg.Log)

	chief, console := app.InitChief(logger, cfg)
	defer console.Close()

	chief.Run()
	return nil
}

func checkConfigAction(c *cli.Context) error {
	path := c.GlobalString(FlagConfig)
	if _, err := config.ReadConfig(path); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	fmt.Printf("%s: configuration is valid\n", path)
	return nil
}
