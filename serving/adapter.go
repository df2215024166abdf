// Package serving turns partial, human-entered field sets into predictions.
// The Adapter rebuilds the full feature vector in the trained schema order,
// zero-filling anything the caller left out, and refuses to run a model
// against a layout it was not trained on.
package serving

import (
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/config"
	"github.com/aayushagarwaltech-bot/Transportation/dataset"
	"github.com/aayushagarwaltech-bot/Transportation/pipeline"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
	"github.com/aayushagarwaltech-bot/Transportation/schema"
)

// DefaultBand is the fixed +/- offset shown around a prediction.
const DefaultBand = 50.0

// BandNote is returned with every prediction.
const BandNote = "lower and upper are the prediction plus or minus a fixed offset; " +
	"they are a display convenience, not a statistical confidence interval"

// Prediction is a single served estimate.
type Prediction struct {
	Value  float64   `json:"prediction"`
	Lower  float64   `json:"lower"`
	Upper  float64   `json:"upper"`
	Band   float64   `json:"band"`
	Vector []float64 `json:"vector"`
	Schema []string  `json:"schema"`
}

// Adapter holds a loaded schema and model. It has no mutable state after
// construction and may be shared between goroutines.
type Adapter struct {
	schema *schema.Schema
	bundle *pipeline.ModelBundle
	band   float64
	strict bool
	logger log.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBand sets the display band. Negative values are treated as zero.
func WithBand(band float64) Option {
	return func(a *Adapter) { a.band = math.Max(0, band) }
}

// WithStrictFields rejects fields that are not part of the schema instead of
// ignoring them.
func WithStrictFields(strict bool) Option {
	return func(a *Adapter) { a.strict = strict }
}

// WithLogger replaces the adapter's logger.
func WithLogger(l log.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter pairs a schema with a model bundle. It fails with a
// SchemaMismatchError when the bundle was trained on another layout.
func NewAdapter(s *schema.Schema, b *pipeline.ModelBundle, opts ...Option) (*Adapter, error) {
	if s == nil || b == nil {
		return nil, errors.NewValueError("NewAdapter", "schema and model are required")
	}
	if b.Estimator == nil || !b.Estimator.IsFitted() {
		return nil, errors.NewNotFittedError(b.Kind, "NewAdapter")
	}
	if err := b.CheckSchema(s); err != nil {
		return nil, err
	}
	if n := b.Estimator.NFeatures(); n != s.Len() {
		return nil, errors.NewSchemaMismatchError(n, s.Len(), s.Features,
			"model input width differs from the schema")
	}
	a := &Adapter{
		schema: s,
		bundle: b,
		band:   DefaultBand,
		logger: log.GetLoggerWithName("serving").With(log.PhaseKey, log.PhaseInference),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// LoadAdapter reads the schema and model named by cfg. Without a schema file
// the layout is recovered from the Test table header.
func LoadAdapter(cfg *config.Config, opts ...Option) (*Adapter, error) {
	s, err := loadSchema(cfg)
	if err != nil {
		return nil, err
	}
	b, err := pipeline.LoadBundle(cfg.Paths.Model)
	if err != nil {
		return nil, err
	}
	base := []Option{WithBand(cfg.Serving.Band), WithStrictFields(cfg.Serving.StrictFields)}
	return NewAdapter(s, b, append(base, opts...)...)
}

func loadSchema(cfg *config.Config) (*schema.Schema, error) {
	s, err := schema.Load(cfg.Paths.Schema)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	test, err := dataset.ReadCSV(cfg.Paths.Test)
	if err != nil {
		return nil, err
	}
	return schema.FromHeader(test.Columns, cfg.Features.Target)
}

// Schema returns the layout the adapter serves.
func (a *Adapter) Schema() *schema.Schema { return a.schema }

// Band returns the display band.
func (a *Adapter) Band() float64 { return a.band }

// Vector builds the model input for fields: zero for every feature, then the
// supplied values, read out in schema order.
func (a *Adapter) Vector(fields map[string]any) ([]float64, error) {
	values, unknown, err := normalizeFields(a.schema, fields, a.strict)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		a.logger.Warn("ignoring fields outside the schema", "fields", unknown)
	}
	return a.schema.Assemble(values), nil
}

// Predict runs the model on the vector built from fields.
func (a *Adapter) Predict(fields map[string]any) (Prediction, error) {
	vec, err := a.Vector(fields)
	if err != nil {
		return Prediction{}, err
	}
	X := mat.NewDense(1, len(vec), append([]float64(nil), vec...))
	out, err := a.bundle.Predict(X)
	if err != nil {
		var de *errors.DimensionError
		if errors.As(err, &de) {
			return Prediction{}, errors.NewSchemaMismatchError(a.bundle.Estimator.NFeatures(), len(vec),
				a.schema.Features, "model rejected the feature vector")
		}
		return Prediction{}, errors.Wrap(err, "serving: predict")
	}
	value := out.At(0, 0)
	if err := errors.CheckScalar("Predict", value); err != nil {
		return Prediction{}, errors.NewModelError("Predict", "model returned a non-finite value", err)
	}

	a.logger.Debug("served prediction", log.PredictionKey, value)
	return Prediction{
		Value:  value,
		Lower:  math.Max(0, value-a.band),
		Upper:  value + a.band,
		Band:   a.band,
		Vector: vec,
		Schema: append([]string(nil), a.schema.Features...),
	}, nil
}
