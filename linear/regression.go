// Package linear provides an ordinary least squares regressor, the
// alternative to the forest selected with model.type: linear_regression.
package linear

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aayushagarwaltech-bot/Transportation/core/model"
	"github.com/aayushagarwaltech-bot/Transportation/core/parallel"
	"github.com/aayushagarwaltech-bot/Transportation/metrics"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

// rcond is the relative singular value cutoff used to decide the rank of X.
const rcond = 1e-12

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	State     *model.StateManager
	Weights   []float64 // 重み（係数）
	Intercept float64   // 切片
	Rank      int       // effective rank of the centred X
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{State: model.NewStateManager()}
}

// Fit centres X and y, solves the least squares problem through an SVD and
// recovers the intercept from the column means. Collinear columns are handled
// by truncating to the effective rank, which gives the minimum-norm solution.
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", X); err != nil {
		return err
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", y); err != nil {
		return err
	}

	xMean := make([]float64, c)
	for j := 0; j < c; j++ {
		xMean[j] = stat.Mean(mat.Col(nil, j, X), nil)
	}
	yCol := mat.Col(nil, 0, y)
	yMean := stat.Mean(yCol, nil)

	centred := mat.NewDense(r, c, nil)
	yCentred := mat.NewDense(r, 1, nil)

	// 並列処理の閾値（この値以下の行数では逐次処理を使用）
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				centred.Set(i, j, X.At(i, j)-xMean[j])
			}
			yCentred.Set(i, 0, yCol[i]-yMean)
		}
	})

	var svd mat.SVD
	if ok := svd.Factorize(centred, mat.SVDThin); !ok {
		return errors.NewModelError("LinearRegression.Fit", "SVD factorization failed", errors.ErrSingularMatrix)
	}
	rank := svd.Rank(rcond)
	if rank == 0 {
		// Every feature is constant: predict the mean.
		lr.Weights = make([]float64, c)
	} else {
		var w mat.Dense
		svd.SolveTo(&w, yCentred, rank)
		lr.Weights = mat.Col(nil, 0, &w)
	}

	lr.Intercept = yMean
	for j := 0; j < c; j++ {
		lr.Intercept -= xMean[j] * lr.Weights[j]
	}
	lr.Rank = rank
	if lr.State == nil {
		lr.State = model.NewStateManager()
	}
	lr.State.SetFitted(c, r)
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}
	r, c := X.Dims()
	if err := lr.State.RequireFeatures("LinearRegression.Predict", c); err != nil {
		return nil, err
	}

	// 予測: y = X * weights + intercept
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := lr.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.Weights[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	return metrics.PredictorScore(lr, X, y)
}

// GetParams returns the hyperparameters. OLS has none besides the intercept.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{"fit_intercept": true}
}

// IsFitted reports whether Fit has completed.
func (lr *LinearRegression) IsFitted() bool {
	return lr.State != nil && lr.State.IsFitted()
}

// NFeatures is the feature count seen during Fit.
func (lr *LinearRegression) NFeatures() int {
	if lr.State == nil {
		return 0
	}
	n, _ := lr.State.GetDimensions()
	return n
}
