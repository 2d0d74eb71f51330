package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/deephdc/demoapp/config"
	"github.com/deephdc/demoapp/log"
	"github.com/deephdc/demoapp/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "demoapp"
	app.Usage = "demo model served over the DEEPaaS v2 API"
	app.Version = version.String()
	app.Metadata = map[string]interface{}{}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   config.DefaultPath,
			Usage:   "path to the configuration file",
			EnvVars: []string{"DEMOAPP_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "log messages above specified level: trace, debug, info, warn, error, fatal or panic",
			EnvVars: []string{"DEMOAPP_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "set the format used by logs: 'text' or 'json'",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "write logs to this file instead of stderr",
		},
	}
	app.Before = before
	app.Commands = []*cli.Command{
		serveCommand,
		metadataCommand,
		predictCommand,
		trainCommand,
		configCommand,
	}
	// serve with the configured values when no command is given
	app.Action = serve
	return app
}

// before loads the configuration, applies the global flags to it and sets
// up logging.
func before(c *cli.Context) error {
	conf := config.Default()
	path := c.String("config")
	if err := conf.UpdateFromFile(path, !c.IsSet("config")); err != nil {
		return err
	}

	if c.IsSet("log-level") {
		conf.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		conf.Log.Format = c.String("log-format")
	}
	if c.IsSet("log-file") {
		conf.Log.File = c.String("log-file")
	}
	if err := log.Setup(conf.Log.Level, conf.Log.Format, conf.Log.File); err != nil {
		return err
	}

	c.App.Metadata["config"] = conf
	return nil
}

func getConfig(c *cli.Context) (*config.Config, error) {
	conf, ok := c.App.Metadata["config"].(*config.Config)
	if !ok {
		return nil, fmt.Errorf("type assertion error when accessing server config")
	}
	return conf, nil
}
