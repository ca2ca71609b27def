// Package config reads the YAML training configuration.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultTarget    = "price"
	defaultModel     = "RandomForest"
	defaultModelName = "house_price_model"
	defaultScoring   = "neg_root_mean_squared_error"
	defaultCV        = 5
)

// Config is the training configuration document.
type Config struct {
	CV       int      `yaml:"cv"`
	Model    Model    `yaml:"model"`
	Tracking Tracking `yaml:"tracking"`
}

// Model holds model selection, feature subset, and hyperparameters.
type Model struct {
	Name           string              `yaml:"name"`
	BestModel      string              `yaml:"best_model"`
	TargetVariable string              `yaml:"target_variable"`
	FeatureSets    map[string][]string `yaml:"feature_sets"`
	Parameters     map[string]any      `yaml:"parameters"`
	Scoring        string              `yaml:"scoring"`
}

// Tracking points at the experiment-tracking sink.
type Tracking struct {
	// URI is the path of the tracking SQLite database. Empty disables
	// tracking.
	URI string `yaml:"uri"`
}

// Read loads and validates a config file, applying defaults for
// omitted fields.
func Read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.CV == 0 {
		c.CV = defaultCV
	}
	if c.Model.Name == "" {
		c.Model.Name = defaultModelName
	}
	if c.Model.BestModel == "" {
		c.Model.BestModel = defaultModel
	}
	if c.Model.TargetVariable == "" {
		c.Model.TargetVariable = defaultTarget
	}
	if c.Model.Scoring == "" {
		c.Model.Scoring = defaultScoring
	}
	if c.Model.Parameters == nil {
		c.Model.Parameters = map[string]any{}
	}
}

// Features returns the configured feature subset ("rfe" set), or nil
// when the config doesn't narrow the feature list.
func (c *Config) Features() []string {
	if c.Model.FeatureSets == nil {
		return nil
	}
	return c.Model.FeatureSets["rfe"]
}
