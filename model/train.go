package model

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/deephdc/demoapp/log"
)

// FinalAccuracy is what every finished training reports.
const FinalAccuracy = 0.9

// TrainOptions tune a Train call.
type TrainOptions struct {
	// EpochDuration is slept once per epoch. Zero means one second.
	EpochDuration time.Duration

	// OnEpoch, when set, receives the loss of every finished epoch.
	OnEpoch func(epoch int, loss float64)
}

// Loss is the made up loss of an epoch: -log(epoch+1).
func Loss(epoch int) float64 {
	return -math.Log(float64(epoch + 1))
}

// Train pretends to train for epochs epochs. It stops early, with the
// context error, when ctx is done.
func Train(ctx context.Context, epochs int, opts TrainOptions) (map[string]interface{}, error) {
	if epochs < 0 {
		return nil, catch(errors.Errorf("epoch_num must not be negative, got %d", epochs))
	}
	unit := opts.EpochDuration
	if unit == 0 {
		unit = time.Second
	}

	log.Infof(ctx, "Training model for %d epochs", epochs)
	timer := time.NewTimer(unit)
	defer timer.Stop()
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, catch(errors.Wrapf(err, "training stopped at epoch %d", epoch))
		}
		if epoch > 0 {
			timer.Reset(unit)
		}
		select {
		case <-ctx.Done():
			return nil, catch(errors.Wrapf(ctx.Err(), "training stopped at epoch %d", epoch))
		case <-timer.C:
		}

		loss := Loss(epoch)
		log.WithFields(ctx, map[string]interface{}{
			"epoch": epoch,
			"loss":  loss,
		}).Info("Epoch finished")
		if opts.OnEpoch != nil {
			opts.OnEpoch(epoch, loss)
		}
	}

	return map[string]interface{}{
		"status":         "done",
		"final accuracy": FinalAccuracy,
	}, nil
}
