package main

import (
	"context"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/deephdc/demoapp/api"
	"github.com/deephdc/demoapp/config"
	"github.com/deephdc/demoapp/metrics"
	"github.com/deephdc/demoapp/store"
	"github.com/deephdc/demoapp/trainer"
)

const shutdownTimeout = 30 * time.Second

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "serve the model over HTTP",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "listen",
			Usage: "address the API listens on",
		},
		&cli.BoolFlag{
			Name:  "enable-metrics",
			Usage: "serve prometheus metrics",
		},
		&cli.StringFlag{
			Name:  "metrics-listen",
			Usage: "address the metrics endpoint listens on",
		},
		&cli.StringFlag{
			Name:  "db-path",
			Usage: "database recording the training runs",
		},
		&cli.StringFlag{
			Name:  "models-dir",
			Usage: "directory receiving the training checkpoints",
		},
	},
	Action: serve,
}

func serve(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("listen") {
		conf.API.Listen = c.String("listen")
	}
	if c.IsSet("enable-metrics") {
		conf.Metrics.Enable = c.Bool("enable-metrics")
	}
	if c.IsSet("metrics-listen") {
		conf.Metrics.Listen = c.String("metrics-listen")
	}
	if c.IsSet("db-path") {
		conf.Train.DBPath = c.String("db-path")
	}
	if c.IsSet("models-dir") {
		conf.Train.ModelsDir = c.String("models-dir")
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	return run(c.Context, conf)
}

func run(ctx context.Context, conf *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, unix.SIGINT, unix.SIGTERM)
	defer stop()

	db, err := store.Open(conf.Train.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.Warnf("Unable to close the training database: %v", err)
		}
	}()

	m := metrics.New()
	t := trainer.New(db, m, trainer.Options{
		EpochDuration: conf.Train.EpochDuration.Duration,
		MaxConcurrent: conf.Train.MaxConcurrent,
		ModelsDir:     conf.Train.ModelsDir,
	})
	if n, err := t.Resume(); err != nil {
		return err
	} else if n > 0 {
		logrus.Warnf("Marked %d interrupted training runs as failed", n)
	}

	s, err := api.New(conf, t, m)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Serve(gctx, conf.API.Listen)
	})
	if conf.Metrics.Enable {
		g.Go(func() error {
			return m.Serve(gctx, conf.Metrics.Listen)
		})
	}
	err = g.Wait()

	logrus.Infof("Shutting down, cancelling running trainings")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := t.Shutdown(shutdownCtx); serr != nil {
		logrus.Warnf("Trainings did not stop in time: %v", serr)
	}
	return err
}
