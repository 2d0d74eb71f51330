// Package config holds the demoapp configuration: built-in defaults, an
// optional TOML file on top of them, and validation.
package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
)

// DefaultPath is where the daemon looks for its configuration file.
const DefaultPath = "/etc/demoapp/demoapp.conf"

// Config is the root of the configuration file.
type Config struct {
	Log     LogConfig     `toml:"log"`
	API     APIConfig     `toml:"api"`
	Metrics MetricsConfig `toml:"metrics"`
	Train   TrainConfig   `toml:"train"`
	Model   ModelConfig   `toml:"model"`
}

// LogConfig controls logrus.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error, fatal, panic.
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`

	// File redirects the log to a file when not empty.
	File string `toml:"file"`
}

// APIConfig controls the HTTP API.
type APIConfig struct {
	Listen string `toml:"listen"`

	// MaxUploadSize bounds the size of a predict request body, e.g. "32MB".
	MaxUploadSize ByteSize `toml:"max_upload_size"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enable bool   `toml:"enable"`
	Listen string `toml:"listen"`
}

// TrainConfig controls training runs.
type TrainConfig struct {
	// EpochDuration is the time unit one dummy epoch sleeps for.
	EpochDuration Duration `toml:"epoch_duration"`

	// MaxConcurrent is the number of training runs allowed at once.
	MaxConcurrent int `toml:"max_concurrent"`

	// DBPath is the bolt database holding training run records.
	DBPath string `toml:"db_path"`

	// ModelsDir receives one checkpoint directory per finished run.
	ModelsDir string `toml:"models_dir"`
}

// ModelConfig overrides the model metadata.
type ModelConfig struct {
	Name        string `toml:"name"`
	Author      string `toml:"author"`
	Description string `toml:"description"`
	License     string `toml:"license"`
	URL         string `toml:"url"`
	Version     string `toml:"version"`
}

// Duration is a time.Duration written as a string ("1s", "250ms") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ByteSize is a size in bytes written in human form ("32MB", "1GiB") in TOML.
type ByteSize int64

func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := units.RAMInBytes(string(text))
	if err != nil {
		return err
	}
	*b = ByteSize(v)
	return nil
}

func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(units.BytesSize(float64(b))), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		API: APIConfig{
			Listen:        "127.0.0.1:5000",
			MaxUploadSize: 32 * units.MiB,
		},
		Metrics: MetricsConfig{
			Enable: false,
			Listen: "127.0.0.1:9090",
		},
		Train: TrainConfig{
			EpochDuration: Duration{time.Second},
			MaxConcurrent: 1,
			DBPath:        "/var/lib/demoapp/trainings.db",
			ModelsDir:     "/var/lib/demoapp/models",
		},
		Model: ModelConfig{
			Name:        "demo_app",
			Author:      "Author name",
			Description: "Model description",
			License:     "Model's license",
			URL:         "URL for the model (e.g. GitHub repository)",
			Version:     "Model version",
		},
	}
}

// UpdateFromFile overlays the TOML file at path on c. A missing file is
// not an error when allowMissing is set.
func (c *Config) UpdateFromFile(path string, allowMissing bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return nil
		}
		return err
	}
	meta, err := toml.Decode(string(data), c)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	return nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.API.Listen); err != nil {
		return fmt.Errorf("api.listen: %w", err)
	}
	if c.Metrics.Enable {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen: %w", err)
		}
	}
	if c.API.MaxUploadSize <= 0 {
		return fmt.Errorf("api.max_upload_size must be positive")
	}
	if c.Train.EpochDuration.Duration < 0 {
		return fmt.Errorf("train.epoch_duration must not be negative")
	}
	if c.Train.MaxConcurrent < 1 {
		return fmt.Errorf("train.max_concurrent must be at least 1")
	}
	if c.Train.DBPath == "" {
		return fmt.Errorf("train.db_path must be set")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name must be set")
	}
	return nil
}

// ToBytes encodes the configuration as TOML.
func (c *Config) ToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
