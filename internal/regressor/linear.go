package regressor

import (
	"encoding/json"
	"fmt"
	"io"
)

// LinearArtifact is the on-disk form of a linear model exported from training:
//
//	{"features": ["bedrooms", ...], "coefficients": [...], "intercept": 12.5}
type LinearArtifact struct {
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// LinearModel is an immutable linear regressor.
type LinearModel struct {
	features     []string
	coefficients []float64
	intercept    float64
}

// NewLinearModel validates the artifact against the expected feature order.
// A nil expected slice skips the name check.
func NewLinearModel(a LinearArtifact, expected []string) (*LinearModel, error) {
	if len(a.Coefficients) == 0 {
		return nil, fmt.Errorf("linear model has no coefficients")
	}
	if len(a.Features) != 0 && len(a.Features) != len(a.Coefficients) {
		return nil, fmt.Errorf("%w: %d feature names for %d coefficients", ErrShape, len(a.Features), len(a.Coefficients))
	}
	if expected != nil {
		if len(a.Coefficients) != len(expected) {
			return nil, fmt.Errorf("%w: artifact has %d coefficients, pipeline produces %d features", ErrShape, len(a.Coefficients), len(expected))
		}
		for i, name := range a.Features {
			if name != expected[i] {
				return nil, fmt.Errorf("%w: feature %d is %q, want %q", ErrShape, i, name, expected[i])
			}
		}
	}
	m := &LinearModel{
		features:     append([]string(nil), a.Features...),
		coefficients: append([]float64(nil), a.Coefficients...),
		intercept:    a.Intercept,
	}
	return m, nil
}

// DecodeLinear reads a LinearArtifact from r.
func DecodeLinear(r io.Reader, expected []string) (*LinearModel, error) {
	var a LinearArtifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode linear model: %w", err)
	}
	return NewLinearModel(a, expected)
}

func (m *LinearModel) Predict(features []float64) (float64, error) {
	if err := checkShape(features, len(m.coefficients)); err != nil {
		return 0, err
	}
	sum := m.intercept
	for i, c := range m.coefficients {
		sum += c * features[i]
	}
	return sum, nil
}

// Width is the number of inputs the model takes.
func (m *LinearModel) Width() int {
	return len(m.coefficients)
}
