// Package log provides a global interface to logging functionality
package log

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

type (
	ID   struct{}
	Name struct{}
)

// TimestampFormat is used by the text formatter.
const TimestampFormat = "2006-01-02 15:04:05.000000000Z07:00"

// Setup configures the standard logger. An empty path keeps stderr.
func Setup(level, format, path string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)

	switch format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: TimestampFormat,
			FullTimestamp:   true,
		})
	case "json":
		logrus.SetFormatter(new(logrus.JSONFormatter))
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, 0o644)
		if err != nil {
			return err
		}
		logrus.SetOutput(f)
	}
	return nil
}

// WithID returns a context carrying the request (or run) id and the
// operation name, both attached to every entry logged with it.
func WithID(ctx context.Context, id, name string) context.Context {
	return context.WithValue(context.WithValue(ctx, ID{}, id), Name{}, name)
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Errorf(format, args...)
}

func WithFields(ctx context.Context, fields map[string]interface{}) *logrus.Entry {
	return entry(ctx).WithFields(fields)
}

func entry(ctx context.Context) *logrus.Entry {
	logger := logrus.StandardLogger()
	if ctx == nil {
		return logrus.NewEntry(logger)
	}

	id, idOk := ctx.Value(ID{}).(string)
	name, nameOk := ctx.Value(Name{}).(string)
	if idOk && nameOk {
		return logger.WithField("id", id).WithField("name", name)
	}

	return logrus.NewEntry(logger)
}
