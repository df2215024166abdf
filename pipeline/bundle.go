package pipeline

import (
	"encoding/gob"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/config"
	"github.com/aayushagarwaltech-bot/Transportation/core/model"
	"github.com/aayushagarwaltech-bot/Transportation/linear"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/schema"
	"github.com/aayushagarwaltech-bot/Transportation/sklearn/ensemble"
	"github.com/aayushagarwaltech-bot/Transportation/sklearn/tree"
)

func init() {
	gob.Register(&ensemble.RandomForestRegressor{})
	gob.Register(&tree.DecisionTreeRegressor{})
	gob.Register(&linear.LinearRegression{})
}

// ModelBundle is the model artifact: the fitted estimator together with the
// layout it was trained on and the hyperparameters used.
type ModelBundle struct {
	Kind        string
	Fingerprint string
	Features    []string
	Target      string
	Params      map[string]interface{}
	TrainedAt   time.Time
	NSamples    int
	Estimator   model.Regressor
}

// NewEstimator builds an unfitted regressor for the configured model type.
func NewEstimator(m config.Model) (model.Regressor, error) {
	switch m.Type {
	case config.ModelRandomForest:
		return ensemble.NewRandomForestRegressor(
			ensemble.WithNEstimators(m.NEstimators),
			ensemble.WithRandomState(m.RandomState),
			ensemble.WithMaxDepth(m.MaxDepth),
			ensemble.WithMinSamplesSplit(m.MinSamplesSplit),
			ensemble.WithMinSamplesLeaf(m.MinSamplesLeaf),
		), nil
	case config.ModelDecisionTree:
		return tree.NewDecisionTreeRegressor(
			tree.WithRandomState(m.RandomState),
			tree.WithMaxDepth(m.MaxDepth),
			tree.WithMinSamplesSplit(m.MinSamplesSplit),
			tree.WithMinSamplesLeaf(m.MinSamplesLeaf),
		), nil
	case config.ModelLinearRegression:
		return linear.NewLinearRegression(), nil
	default:
		return nil, errors.NewValidationError("model.type", "unknown model type", m.Type)
	}
}

// CheckSchema returns a SchemaMismatchError when the bundle was trained on a
// different layout than s.
func (b *ModelBundle) CheckSchema(s *schema.Schema) error {
	if b.Fingerprint == s.Fingerprint {
		return nil
	}
	return errors.NewSchemaMismatchError(len(b.Features), s.Len(), s.Features,
		"model was trained on a different feature layout; retrain or restore the matching schema")
}

// Predict runs the estimator on X.
func (b *ModelBundle) Predict(X mat.Matrix) (mat.Matrix, error) {
	if b.Estimator == nil {
		return nil, errors.NewNotFittedError(b.Kind, "Predict")
	}
	return b.Estimator.Predict(X)
}

// SaveBundle writes the bundle to path. With a non-empty snapshotDir a
// content-addressed copy is kept there as well and its path returned.
func SaveBundle(b *ModelBundle, path, snapshotDir string) (string, error) {
	if err := model.SaveModel(b, path); err != nil {
		return "", err
	}
	if snapshotDir == "" {
		return "", nil
	}
	return model.Snapshot(b, snapshotDir)
}

// LoadBundle reads a bundle written by SaveBundle.
func LoadBundle(path string) (*ModelBundle, error) {
	var b ModelBundle
	if err := model.LoadModel(&b, path); err != nil {
		return nil, err
	}
	if b.Estimator == nil || !b.Estimator.IsFitted() {
		return nil, errors.NewModelError("LoadBundle", "model file holds no fitted estimator", nil)
	}
	return &b, nil
}
