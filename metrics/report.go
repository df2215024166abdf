package metrics

import (
	"encoding/json"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
)

// Report is the metrics artifact written by Evaluate. rmse and r2 are always
// present; the absolute-error figures are omitted when zero.
type Report struct {
	RMSE     float64 `json:"rmse"`
	R2       float64 `json:"r2"`
	MAE      float64 `json:"mae,omitempty"`
	MaxError float64 `json:"max_error,omitempty"`
}

// Evaluate scores predictions against the actual target values. Both
// arguments are n x 1 matrices.
func Evaluate(yTrue, yPred mat.Matrix) (Report, error) {
	truth, err := ColumnVector("Evaluate", yTrue)
	if err != nil {
		return Report{}, err
	}
	pred, err := ColumnVector("Evaluate", yPred)
	if err != nil {
		return Report{}, err
	}

	rmse, err := RMSE(truth, pred)
	if err != nil {
		return Report{}, err
	}
	r2, err := R2Score(truth, pred)
	if err != nil {
		return Report{}, err
	}
	mae, err := MAE(truth, pred)
	if err != nil {
		return Report{}, err
	}
	maxErr, err := MaxError(truth, pred)
	if err != nil {
		return Report{}, err
	}
	return Report{RMSE: rmse, R2: r2, MAE: mae, MaxError: maxErr}, nil
}

// Save overwrites path with the report as indented JSON.
func (r Report) Save(path string) error {
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.WithStack(enc.Encode(r))
	})
}

// LoadReport reads a report written by Save.
func LoadReport(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, errors.Wrapf(err, "read metrics %s", path)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, errors.Wrapf(err, "parse metrics %s", path)
	}
	return r, nil
}
