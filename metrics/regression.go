// Package metrics implements the regression scores reported by the Evaluate
// stage.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aayushagarwaltech-bot/Transportation/core/model"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

func checkPair(op string, yTrue, yPred mat.Vector) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE is sqrt(MSE), in the unit of the target.
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score returns 1 - SS_res/SS_tot where SS_tot is taken around the mean
// of yTrue. When yTrue is constant the score is undefined: it is reported as
// 1.0 for a perfect prediction and 0.0 otherwise, and an
// UndefinedMetricWarning is raised.
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	truth := values(yTrue)
	pred := values(yPred)
	mean := stat.Mean(truth, nil)

	var ssTot, ssRes float64
	for i := 0; i < n; i++ {
		ssTot += (truth[i] - mean) * (truth[i] - mean)
		ssRes += (truth[i] - pred[i]) * (truth[i] - pred[i])
	}

	if ssTot == 0 {
		score := 0.0
		if ssRes == 0 {
			score = 1.0
		}
		errors.Warn(errors.NewUndefinedMetricWarning("r2", "a constant target (zero total sum of squares)", score))
		return score, nil
	}
	return 1 - ssRes/ssTot, nil
}

// MaxError is the largest absolute residual.
func MaxError(yTrue, yPred mat.Vector) (float64, error) {
	if _, err := checkPair("MaxError", yTrue, yPred); err != nil {
		return 0, err
	}
	residuals := values(yTrue)
	floats.Sub(residuals, values(yPred))
	for i, r := range residuals {
		residuals[i] = math.Abs(r)
	}
	return floats.Max(residuals), nil
}

// ColumnVector returns column 0 of an n x 1 matrix as a vector.
func ColumnVector(op string, m mat.Matrix) (*mat.VecDense, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}

func values(v mat.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// PredictorScore is R² of p's predictions on X against the n x 1 target y.
// Models implement Score with it.
func PredictorScore(p model.Predictor, X, y mat.Matrix) (float64, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	truth, err := ColumnVector("Score", y)
	if err != nil {
		return 0, err
	}
	got, err := ColumnVector("Score", pred)
	if err != nil {
		return 0, err
	}
	return R2Score(truth, got)
}
