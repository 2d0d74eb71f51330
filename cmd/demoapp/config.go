package main

import (
	"github.com/urfave/cli/v2"
)

var configCommand = &cli.Command{
	Name:  "config",
	Usage: "print the effective configuration as TOML",
	Description: `The configuration file, default values and global flags are merged
and written to standard output, ready to be used as a configuration file.`,
	Action: func(c *cli.Context) error {
		conf, err := getConfig(c)
		if err != nil {
			return err
		}
		if err := conf.Validate(); err != nil {
			return err
		}
		out, err := conf.ToBytes()
		if err != nil {
			return err
		}
		_, err = c.App.Writer.Write(out)
		return err
	},
}
