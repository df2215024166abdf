// Package config loads the pipeline parameters from params.yaml, applies
// TRANSPORT_* environment overrides and validates the result.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "TRANSPORT"

// Model kinds accepted by model.type.
const (
	ModelRandomForest     = "random_forest"
	ModelDecisionTree     = "decision_tree"
	ModelLinearRegression = "linear_regression"
)

type Dataset struct {
	URL     string `yaml:"url"`
	RawPath string `yaml:"raw_path"`
}

type Paths struct {
	Processed string `yaml:"processed"`
	Train     string `yaml:"train"`
	Test      string `yaml:"test"`
	Schema    string `yaml:"schema"`
	Model     string `yaml:"model"`
	Metrics   string `yaml:"metrics"`
	Plot      string `yaml:"plot"`
	State     string `yaml:"state"`
}

type Features struct {
	Target      string   `yaml:"target"`
	DropColumns []string `yaml:"drop_columns"`
}

type Preprocessing struct {
	TestSize    float64 `yaml:"test_size"`
	RandomState int64   `yaml:"random_state"`
}

// Model holds the estimator hyperparameters. MaxDepth 0 grows trees until
// the leaves are pure or min_samples_* stops them.
type Model struct {
	Type            string `yaml:"type"`
	NEstimators     int    `yaml:"n_estimators"`
	RandomState     int64  `yaml:"random_state"`
	MaxDepth        int    `yaml:"max_depth"`
	MinSamplesSplit int    `yaml:"min_samples_split"`
	MinSamplesLeaf  int    `yaml:"min_samples_leaf"`
	KeepSnapshots   bool   `yaml:"keep_snapshots"`
}

type Serving struct {
	Addr         string  `yaml:"addr"`
	Band         float64 `yaml:"band"`
	StrictFields bool    `yaml:"strict_fields"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Config mirrors params.yaml.
type Config struct {
	Dataset       Dataset       `yaml:"dataset"`
	Paths         Paths         `yaml:"paths"`
	Features      Features      `yaml:"features"`
	Preprocessing Preprocessing `yaml:"preprocessing"`
	Model         Model         `yaml:"model"`
	Serving       Serving       `yaml:"serving"`
	Logging       Logging       `yaml:"logging"`

	// BaseDir is the directory relative paths were resolved against.
	BaseDir string `yaml:"-"`
}

// Default returns the parameters used when params.yaml is absent or silent.
func Default() *Config {
	return &Config{
		Dataset: Dataset{
			URL:     "https://archive.ics.uci.edu/ml/machine-learning-databases/00275/day.csv",
			RawPath: "data/raw/day.csv",
		},
		Paths: Paths{
			Processed: "data/processed/processed.csv",
			Train:     "data/processed/train.csv",
			Test:      "data/processed/test.csv",
			Schema:    "data/processed/schema.json",
			Model:     "models/model.gob",
			Metrics:   "metrics.json",
			Plot:      "plots/pred_vs_actual.png",
			State:     ".pipeline/state.json",
		},
		Features: Features{
			Target:      "cnt",
			DropColumns: []string{"instant", "dteday", "casual", "registered"},
		},
		Preprocessing: Preprocessing{TestSize: 0.2, RandomState: 42},
		Model: Model{
			Type:            ModelRandomForest,
			NEstimators:     100,
			RandomState:     42,
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
		},
		Serving: Serving{Addr: ":8080", Band: 50},
		Logging: Logging{Level: "info"},
	}
}

// envOverrides lists the settings that can be replaced from the environment,
// e.g. TRANSPORT_LOG_LEVEL=debug. Unset variables leave the field nil.
type envOverrides struct {
	LogLevel     *string  `envconfig:"LOG_LEVEL"`
	ServingAddr  *string  `envconfig:"SERVING_ADDR"`
	ServingBand  *float64 `envconfig:"SERVING_BAND"`
	ModelPath    *string  `envconfig:"MODEL_PATH"`
	DatasetURL   *string  `envconfig:"DATASET_URL"`
	StrictFields *bool    `envconfig:"STRICT_FIELDS"`
}

// Load reads path (defaults for anything it leaves out), applies environment
// overrides, resolves relative paths against the file's directory and
// validates. An empty path means "params.yaml in the working directory if it
// exists, defaults otherwise".
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = "params.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrapf(err, "read %s", path)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	base := "."
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		base = abs
	}
	cfg.Resolve(base)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays TRANSPORT_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return errors.Wrap(err, "read environment overrides")
	}
	if env.LogLevel != nil {
		c.Logging.Level = *env.LogLevel
	}
	if env.ServingAddr != nil {
		c.Serving.Addr = *env.ServingAddr
	}
	if env.ServingBand != nil {
		c.Serving.Band = *env.ServingBand
	}
	if env.ModelPath != nil {
		c.Paths.Model = *env.ModelPath
	}
	if env.DatasetURL != nil {
		c.Dataset.URL = *env.DatasetURL
	}
	if env.StrictFields != nil {
		c.Serving.StrictFields = *env.StrictFields
	}
	return nil
}

// Resolve makes every relative artifact path absolute under base.
func (c *Config) Resolve(base string) {
	c.BaseDir = base
	for _, p := range []*string{
		&c.Dataset.RawPath,
		&c.Paths.Processed, &c.Paths.Train, &c.Paths.Test, &c.Paths.Schema,
		&c.Paths.Model, &c.Paths.Metrics, &c.Paths.Plot, &c.Paths.State,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate rejects parameter combinations the stages cannot run with.
func (c *Config) Validate() error {
	if c.Preprocessing.TestSize <= 0 || c.Preprocessing.TestSize >= 1 {
		return errors.NewValidationError("preprocessing.test_size", "must be in (0, 1)", c.Preprocessing.TestSize)
	}
	target := strings.TrimSpace(c.Features.Target)
	if target == "" {
		return errors.NewValidationError("features.target", "must not be empty", c.Features.Target)
	}
	for _, col := range c.Features.DropColumns {
		if col == target {
			return errors.NewValidationError("features.drop_columns", "must not contain the target", col)
		}
	}
	switch c.Model.Type {
	case ModelRandomForest:
		if c.Model.NEstimators < 1 {
			return errors.NewValidationError("model.n_estimators", "must be at least 1", c.Model.NEstimators)
		}
	case ModelDecisionTree, ModelLinearRegression:
	default:
		return errors.NewValidationError("model.type", "unknown model type", c.Model.Type)
	}
	if c.Model.MaxDepth < 0 {
		return errors.NewValidationError("model.max_depth", "must not be negative", c.Model.MaxDepth)
	}
	if c.Model.MinSamplesSplit < 2 {
		return errors.NewValidationError("model.min_samples_split", "must be at least 2", c.Model.MinSamplesSplit)
	}
	if c.Model.MinSamplesLeaf < 1 {
		return errors.NewValidationError("model.min_samples_leaf", "must be at least 1", c.Model.MinSamplesLeaf)
	}
	if c.Serving.Band < 0 {
		return errors.NewValidationError("serving.band", "must not be negative", c.Serving.Band)
	}
	if c.Dataset.RawPath == "" {
		return errors.NewValidationError("dataset.raw_path", "must not be empty", c.Dataset.RawPath)
	}
	return nil
}

// SnapshotDir is where content-addressed model copies go when
// model.keep_snapshots is set.
func (c *Config) SnapshotDir() string {
	return filepath.Join(filepath.Dir(c.Paths.Model), "snapshots")
}

// Hyperparameters returns the model parameters as a flat map, the form
// recorded next to the fitted model and hashed by the orchestrator.
func (m Model) Hyperparameters() map[string]interface{} {
	params := map[string]interface{}{"type": m.Type}
	switch m.Type {
	case ModelRandomForest:
		params["n_estimators"] = m.NEstimators
		fallthrough
	case ModelDecisionTree:
		params["random_state"] = m.RandomState
		params["max_depth"] = m.MaxDepth
		params["min_samples_split"] = m.MinSamplesSplit
		params["min_samples_leaf"] = m.MinSamplesLeaf
	}
	return params
}
