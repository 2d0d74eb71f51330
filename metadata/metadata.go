// Package metadata describes the packaged model.
package metadata

import (
	"errors"

	"github.com/deephdc/demoapp/config"
	"github.com/deephdc/demoapp/model"
)

// Metadata is the descriptive record of the model. It never changes while
// the process runs.
type Metadata struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Author      string                 `json:"author"`
	Description string                 `json:"description"`
	License     string                 `json:"license"`
	URL         string                 `json:"url"`
	Version     string                 `json:"version"`
	HelpTrain   map[string]interface{} `json:"help-train"`
	HelpPredict map[string]interface{} `json:"help-predict"`
}

// Get returns the metadata of the model configured in c.
func Get(c config.ModelConfig) (*Metadata, error) {
	if c.Name == "" {
		return nil, errors.New("model metadata is missing a name")
	}
	return &Metadata{
		ID:          c.Name,
		Name:        c.Name,
		Author:      c.Author,
		Description: c.Description,
		License:     c.License,
		URL:         c.URL,
		Version:     c.Version,
		HelpTrain:   model.TrainArgs().Help(),
		HelpPredict: model.PredictArgs().Help(),
	}, nil
}
