package linear

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/core/model"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

// createBenchmarkData はベンチマーク用のデータを生成する
func createBenchmarkData(rows, cols int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64()*2.0-1.0)
		}
	}

	// y = 1 + Σ (j+1)*0.5*x_j + 小さなノイズ
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			sum += X.At(i, j) * float64(j+1) * 0.5
		}
		sum += (rng.Float64() - 0.5) * 0.1
		y.Set(i, 0, sum)
	}
	return X, y
}

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	// y = 2x1 + 3x2 + 1
	X := mat.NewDense(5, 2, []float64{
		1, 1,
		2, 1,
		3, 2,
		4, 3,
		5, 5,
	})
	y := mat.NewDense(5, 1, nil)
	for i := 0; i < 5; i++ {
		y.Set(i, 0, 2*X.At(i, 0)+3*X.At(i, 1)+1)
	}

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	want := []float64{2, 3}
	for j, w := range want {
		if math.Abs(lr.Weights[j]-w) > 1e-9 {
			t.Errorf("weight %d = %v, want %v", j, lr.Weights[j], w)
		}
	}
	if math.Abs(lr.Intercept-1) > 1e-9 {
		t.Errorf("intercept = %v, want 1", lr.Intercept)
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(score-1) > 1e-9 {
		t.Errorf("Score() = %v, want 1", score)
	}
}

func TestLinearRegressionCollinearColumns(t *testing.T) {
	// The second column duplicates the first; the minimum-norm solution
	// splits the coefficient evenly.
	X := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if lr.Rank != 1 {
		t.Errorf("Rank = %d, want 1", lr.Rank)
	}
	if math.Abs(lr.Weights[0]-1) > 1e-9 || math.Abs(lr.Weights[1]-1) > 1e-9 {
		t.Errorf("weights = %v, want [1 1]", lr.Weights)
	}
	pred, _ := lr.Predict(mat.NewDense(1, 2, []float64{5, 5}))
	if math.Abs(pred.At(0, 0)-10) > 1e-9 {
		t.Errorf("prediction = %v, want 10", pred.At(0, 0))
	}
}

func TestLinearRegressionErrors(t *testing.T) {
	lr := NewLinearRegression()

	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}

	err = lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 2, nil))
	var ve *errors.ValueError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValueError, got %v", err)
	}

	X, y := createBenchmarkData(20, 3)
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	_, err = lr.Predict(mat.NewDense(1, 2, nil))
	var dim *errors.DimensionError
	if !errors.As(err, &dim) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}

func TestLinearRegressionPersistence(t *testing.T) {
	X, y := createBenchmarkData(50, 4)
	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "ols.gob")
	if err := model.SaveModel(lr, path); err != nil {
		t.Fatal(err)
	}
	var loaded LinearRegression
	if err := model.LoadModel(&loaded, path); err != nil {
		t.Fatal(err)
	}
	a, _ := lr.Predict(X)
	b, err := loaded.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(a, b, 1e-12) {
		t.Error("predictions changed after reload")
	}
}

func BenchmarkLinearRegressionFit(b *testing.B) {
	X, y := createBenchmarkData(1000, 11)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lr := NewLinearRegression()
		if err := lr.Fit(X, y); err != nil {
			b.Fatal(err)
		}
	}
}
