package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/renameio"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/deephdc/demoapp/model"
)

var predictCommand = &cli.Command{
	Name:  "predict",
	Usage: "run a prediction and print its result",
	Flags: append(schemaFlags(model.PredictArgs()), &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "file receiving zip or media responses, standard output if unset",
	}),
	Action: predict,
}

func predict(c *cli.Context) error {
	args, err := schemaArgs(c, model.PredictArgs())
	if err != nil {
		return err
	}
	res, err := model.Predict(c.Context, args)
	if err != nil {
		return err
	}
	if res.Body == nil {
		return printJSON(c, res.Fields)
	}
	defer res.Body.Close()

	output := c.String("output")
	if output == "" {
		if isTerminal(c.App.Writer) {
			return fmt.Errorf("refusing to write %s to a terminal, use --output", res.ContentType)
		}
		_, err := io.Copy(c.App.Writer, res.Body)
		return err
	}
	pf, err := renameio.TempFile("", output)
	if err != nil {
		return err
	}
	defer pf.Cleanup()
	if _, err := io.Copy(pf, res.Body); err != nil {
		return err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return err
	}
	logrus.Infof("Wrote %s response to %s", res.ContentType, output)
	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
