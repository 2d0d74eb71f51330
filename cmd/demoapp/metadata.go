package main

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/deephdc/demoapp/metadata"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var metadataCommand = &cli.Command{
	Name:  "metadata",
	Usage: "print the model metadata as JSON",
	Action: func(c *cli.Context) error {
		conf, err := getConfig(c)
		if err != nil {
			return err
		}
		meta, err := metadata.Get(conf.Model)
		if err != nil {
			return err
		}
		return printJSON(c, meta)
	},
}

func printJSON(c *cli.Context, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}
