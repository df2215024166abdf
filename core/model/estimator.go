package model

import "gonum.org/v1/gonum/mat"

// Fitter is implemented by models that learn from a feature matrix X
// (n_samples x n_features) and a target column y (n_samples x 1).
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor is implemented by fitted models. The result is a column vector
// with one prediction per row of X.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer computes the coefficient of determination of the predictions on X.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// ParameterGetter exposes the hyperparameters a model was built with.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// Regressor is the contract the pipeline needs from a regression model.
type Regressor interface {
	Fitter
	Predictor
	Scorer
	ParameterGetter
	IsFitted() bool
	NFeatures() int
}
