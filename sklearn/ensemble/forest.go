// Package ensemble implements bagged tree ensembles.
package ensemble

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/core/model"
	"github.com/aayushagarwaltech-bot/Transportation/core/parallel"
	"github.com/aayushagarwaltech-bot/Transportation/metrics"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
	"github.com/aayushagarwaltech-bot/Transportation/sklearn/tree"
)

// RandomForestRegressor averages regression trees, each grown on a bootstrap
// sample of the training rows.
//
// Tree i draws its bootstrap sample and feature subsets from a source seeded
// with RandomState+i, so a fit is reproducible no matter how the trees are
// scheduled across goroutines.
type RandomForestRegressor struct {
	State *model.StateManager

	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 means all features, as for regression forests
	Bootstrap       bool
	RandomState     int64
	NJobs           int // goroutines used by Fit; 0 means one per CPU

	Trees []*tree.DecisionTreeRegressor
}

// Option configures a RandomForestRegressor.
type Option func(*RandomForestRegressor)

func WithNEstimators(n int) Option {
	return func(f *RandomForestRegressor) { f.NEstimators = n }
}

func WithMaxDepth(depth int) Option {
	return func(f *RandomForestRegressor) { f.MaxDepth = depth }
}

func WithMinSamplesSplit(n int) Option {
	return func(f *RandomForestRegressor) { f.MinSamplesSplit = n }
}

func WithMinSamplesLeaf(n int) Option {
	return func(f *RandomForestRegressor) { f.MinSamplesLeaf = n }
}

func WithMaxFeatures(n int) Option {
	return func(f *RandomForestRegressor) { f.MaxFeatures = n }
}

// WithBootstrap toggles bootstrap sampling. Without it every tree sees all
// rows and only feature sub-sampling differs between trees.
func WithBootstrap(b bool) Option {
	return func(f *RandomForestRegressor) { f.Bootstrap = b }
}

func WithRandomState(seed int64) Option {
	return func(f *RandomForestRegressor) { f.RandomState = seed }
}

func WithNJobs(n int) Option {
	return func(f *RandomForestRegressor) { f.NJobs = n }
}

// NewRandomForestRegressor creates an unfitted forest with 100 trees.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	f := &RandomForestRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit grows NEstimators trees on X (n_samples x n_features) and y
// (n_samples x 1).
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	if f.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", f.NEstimators)
	}
	data, target, err := tree.ValidateFitInput("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()

	logger := log.GetLoggerWithName("ensemble").With(log.ModelNameKey, "RandomForestRegressor")
	logger.Debug("fitting forest",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.RandomSeedKey, f.RandomState,
		log.HyperParamsKey, f.GetParams(),
	)

	trees := make([]*tree.DecisionTreeRegressor, f.NEstimators)
	err = parallel.ForEach(f.NEstimators, f.NJobs, func(i int) error {
		// Panics inside a worker goroutine are not seen by the deferred
		// Recover above.
		return errors.SafeExecute("RandomForestRegressor.Fit", func() error {
			return f.fitTree(i, trees, data, target, nSamples, nFeatures)
		})
	})
	if err != nil {
		return err
	}

	f.Trees = trees
	if f.State == nil {
		f.State = model.NewStateManager()
	}
	f.State.SetFitted(nFeatures, nSamples)
	logger.Debug("forest fitted", log.SamplesKey, nSamples)
	return nil
}

func (f *RandomForestRegressor) fitTree(i int, trees []*tree.DecisionTreeRegressor, data, target []float64, nSamples, nFeatures int) error {
	rng := rand.New(rand.NewSource(f.RandomState + int64(i)))
	samples := make([]int, nSamples)
	for j := range samples {
		if f.Bootstrap {
			samples[j] = rng.Intn(nSamples)
		} else {
			samples[j] = j
		}
	}
	t := tree.NewDecisionTreeRegressor(
		tree.WithMaxDepth(f.MaxDepth),
		tree.WithMinSamplesSplit(f.MinSamplesSplit),
		tree.WithMinSamplesLeaf(f.MinSamplesLeaf),
		tree.WithMaxFeatures(f.MaxFeatures),
		tree.WithRandomState(f.RandomState+int64(i)),
	)
	if err := t.FitSamples(data, nFeatures, target, samples, rng); err != nil {
		return errors.Wrapf(err, "tree %d", i)
	}
	trees[i] = t
	return nil
}

// Predict returns the mean of the trees' predictions for every row of X.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if f.State == nil {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	if err := f.State.RequireFitted("RandomForestRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := f.State.RequireFeatures("RandomForestRegressor.Predict", cols); err != nil {
		return nil, err
	}

	out := make([]float64, rows)
	const parallelThreshold = 256
	parallel.ParallelizeWithThreshold(rows, parallelThreshold, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			var sum float64
			for _, t := range f.Trees {
				sum += t.PredictRow(row)
			}
			out[i] = sum / float64(len(f.Trees))
		}
	})
	return mat.NewDense(rows, 1, out), nil
}

// Score returns the coefficient of determination on (X, y).
func (f *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	return metrics.PredictorScore(f, X, y)
}

// GetParams returns the hyperparameters.
func (f *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      f.NEstimators,
		"max_depth":         f.MaxDepth,
		"min_samples_split": f.MinSamplesSplit,
		"min_samples_leaf":  f.MinSamplesLeaf,
		"max_features":      f.MaxFeatures,
		"bootstrap":         f.Bootstrap,
		"random_state":      f.RandomState,
	}
}

// IsFitted reports whether Fit has completed.
func (f *RandomForestRegressor) IsFitted() bool {
	return f.State != nil && f.State.IsFitted()
}

// NFeatures is the feature count seen during Fit.
func (f *RandomForestRegressor) NFeatures() int {
	if f.State == nil {
		return 0
	}
	n, _ := f.State.GetDimensions()
	return n
}
