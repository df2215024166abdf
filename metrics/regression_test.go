package metrics

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			yPred:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			want:      0.0,
			tolerance: 1e-10,
		},
		{
			name:      "simple case",
			yTrue:     mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred:     mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:      0.25,
			tolerance: 1e-10,
		},
		{
			name:      "larger errors",
			yTrue:     mat.NewVecDense(3, []float64{10.0, 20.0, 30.0}),
			yPred:     mat.NewVecDense(3, []float64{12.0, 18.0, 33.0}),
			want:      17.0 / 3.0,
			tolerance: 1e-10,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			yPred:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("MSE() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("MSE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRMSEAndMAE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{3, -0.5, 2, 7})
	yPred := mat.NewVecDense(4, []float64{2.5, 0.0, 2, 8})

	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if want := math.Sqrt(0.375); math.Abs(rmse-want) > 1e-12 {
		t.Errorf("RMSE() = %v, want %v", rmse, want)
	}

	mae, err := MAE(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mae-0.5) > 1e-12 {
		t.Errorf("MAE() = %v, want 0.5", mae)
	}

	maxErr, err := MaxError(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if maxErr != 1 {
		t.Errorf("MaxError() = %v, want 1", maxErr)
	}

	if _, err := MAE(mat.NewVecDense(1, nil), mat.NewVecDense(2, nil)); err == nil {
		t.Error("expected dimension error")
	}
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantWarn  bool
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			yPred:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			want:      1.0,
			tolerance: 1e-10,
		},
		{
			name:      "worse than mean baseline",
			yTrue:     mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred:     mat.NewVecDense(4, []float64{4.0, 3.0, 2.0, 1.0}),
			want:      -3.0,
			tolerance: 1e-10,
		},
		{
			name:     "constant target, imperfect prediction",
			yTrue:    mat.NewVecDense(5, []float64{3.0, 3.0, 3.0, 3.0, 3.0}),
			yPred:    mat.NewVecDense(5, []float64{2.0, 3.0, 4.0, 3.0, 3.0}),
			want:     0.0,
			wantWarn: true,
		},
		{
			name:     "constant target, perfect prediction",
			yTrue:    mat.NewVecDense(3, []float64{7, 7, 7}),
			yPred:    mat.NewVecDense(3, []float64{7, 7, 7}),
			want:     1.0,
			wantWarn: true,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			yPred:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var warnings []error
			errors.SetZerologWarnFunc(func(w error) { warnings = append(warnings, w) })
			defer errors.SetZerologWarnFunc(nil)

			got, err := R2Score(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("R2Score() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("R2Score() = %v, want %v", got, tt.want)
			}
			if tt.wantWarn != (len(warnings) == 1) {
				t.Errorf("warnings = %v, wantWarn %v", warnings, tt.wantWarn)
			}
		})
	}
}

// Predictions [110, 190] against actual [100, 200]: every residual is 10 and
// the actual values sit 50 away from their mean.
func TestEvaluateLiteralScenario(t *testing.T) {
	actual := mat.NewDense(2, 1, []float64{100, 200})
	pred := mat.NewDense(2, 1, []float64{110, 190})

	r, err := Evaluate(actual, pred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.RMSE-10.0) > 1e-12 {
		t.Errorf("RMSE = %v, want 10.0", r.RMSE)
	}
	if math.Abs(r.R2-0.96) > 1e-12 {
		t.Errorf("R2 = %v, want 0.96", r.R2)
	}
	if math.Abs(r.MAE-10.0) > 1e-12 {
		t.Errorf("MAE = %v, want 10.0", r.MAE)
	}
	if math.Abs(r.MaxError-10.0) > 1e-12 {
		t.Errorf("MaxError = %v, want 10.0", r.MaxError)
	}
}

func TestEvaluateRejectsNonColumn(t *testing.T) {
	if _, err := Evaluate(mat.NewDense(2, 2, nil), mat.NewDense(2, 1, nil)); err == nil {
		t.Error("expected error for a 2x2 target")
	}
}

func TestReportSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	in := Report{RMSE: 10, R2: 0.96}
	if err := in.Save(path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"rmse": 10`) || !strings.Contains(string(raw), `"r2": 0.96`) {
		t.Errorf("unexpected metrics file:\n%s", raw)
	}
	if strings.Contains(string(raw), "mae") || strings.Contains(string(raw), "max_error") {
		t.Errorf("zero absolute-error figures should be omitted:\n%s", raw)
	}

	out, err := LoadReport(path)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("LoadReport() = %+v, want %+v", out, in)
	}

	full := Report{RMSE: 10, R2: 0.96, MAE: 10, MaxError: 10}
	if err := full.Save(path); err != nil {
		t.Fatal(err)
	}
	if out, _ = LoadReport(path); out != full {
		t.Errorf("LoadReport() = %+v, want %+v", out, full)
	}

	// Save overwrites.
	if err := (Report{RMSE: 1, R2: 0.5}).Save(path); err != nil {
		t.Fatal(err)
	}
	out, _ = LoadReport(path)
	if out.RMSE != 1 {
		t.Errorf("metrics not overwritten: %+v", out)
	}
}

func BenchmarkMSE(b *testing.B) {
	size := 10000
	yTrue := mat.NewVecDense(size, nil)
	yPred := mat.NewVecDense(size, nil)
	for i := 0; i < size; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.1*float64(i%10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
