package main

import (
	"os/signal"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sys/unix"

	"github.com/deephdc/demoapp/checkpoint"
	"github.com/deephdc/demoapp/model"
)

var trainCommand = &cli.Command{
	Name:  "train",
	Usage: "run a training in the foreground and print its result",
	Flags: append(schemaFlags(model.TrainArgs()), &cli.StringFlag{
		Name:  "models-dir",
		Usage: "directory receiving the checkpoint, none is written if unset",
	}),
	Action: train,
}

func train(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	args, err := schemaArgs(c, model.TrainArgs())
	if err != nil {
		return err
	}
	epochs, err := args.Int("epoch_num")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, unix.SIGINT, unix.SIGTERM)
	defer stop()

	var history []float64
	result, err := model.Train(ctx, epochs, model.TrainOptions{
		EpochDuration: conf.Train.EpochDuration.Duration,
		OnEpoch: func(_ int, loss float64) {
			history = append(history, loss)
		},
	})
	if err != nil {
		return err
	}

	if dir := c.String("models-dir"); dir != "" {
		path, err := checkpoint.Save(dir, uuid.NewString(), history)
		if err != nil {
			return err
		}
		logrus.Infof("Checkpoint written to %s", path)
	}
	return printJSON(c, result)
}
