package errors

import (
	"fmt"
	"math"
)

// NonFiniteError reports NaN or ±Inf values found in a matrix or vector.
type NonFiniteError struct {
	Operation string
	Row       int
	Col       int
	Value     float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("transport: non-finite value %v in %s at row %d, column %d", e.Value, e.Operation, e.Row, e.Col)
}

// CheckScalar checks a single scalar value for NaN or Inf.
func CheckScalar(operation string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return WithStack(&NonFiniteError{Operation: operation, Row: -1, Col: -1, Value: value})
	}
	return nil
}

// CheckMatrix returns an error locating the first NaN or Inf in the matrix.
func CheckMatrix(operation string, matrix interface{ Dims() (int, int); At(int, int) float64 }) error {
	rows, cols := matrix.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return WithStack(&NonFiniteError{Operation: operation, Row: i, Col: j, Value: v})
			}
		}
	}
	return nil
}
