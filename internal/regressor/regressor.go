// Package regressor loads the trained price model and exposes it behind a
// single vector-in, scalar-out interface. A loaded Regressor is read-only and
// safe for concurrent use.
package regressor

import (
	"errors"
	"fmt"
)

// ErrShape is returned when a feature vector does not match the model input.
var ErrShape = errors.New("feature vector shape mismatch")

// Regressor predicts one value from one feature vector.
type Regressor interface {
	Predict(features []float64) (float64, error)
}

// Closer is implemented by regressors holding native resources.
type Closer interface {
	Close() error
}

func checkShape(features []float64, want int) error {
	if len(features) != want {
		return fmt.Errorf("%w: got %d features, want %d", ErrShape, len(features), want)
	}
	return nil
}

// Static always returns the same value. It is used for dry runs and tests.
type Static struct {
	Value float64
	Width int
}

func (s Static) Predict(features []float64) (float64, error) {
	if s.Width > 0 {
		if err := checkShape(features, s.Width); err != nil {
			return 0, err
		}
	}
	return s.Value, nil
}
