// Package pricing runs feature vectors through the loaded price model and
// converts the estimate to the display currency.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"houseprice/internal/features"
	"houseprice/internal/regressor"
)

const (
	// DefaultRate converts the model's native currency unit to rupees.
	DefaultRate   = 88.0
	DefaultSymbol = "₹"
)

// PredictionError wraps a failed model invocation.
type PredictionError struct {
	Cause error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Cause)
}

func (e *PredictionError) Unwrap() error {
	return e.Cause
}

var errNonFinite = errors.New("model returned a non-finite estimate")

// Currency is the display conversion applied to raw estimates.
type Currency struct {
	Rate   float64
	Symbol string
}

// Result is a complete prediction. It is never returned partially filled.
type Result struct {
	Estimate  float64 `json:"estimate"`
	Scaled    float64 `json:"scaled"`
	Formatted string  `json:"formatted"`
}

// Service owns a reference to the shared model. The model is never reloaded
// or mutated by the service.
type Service struct {
	model    regressor.Regressor
	currency Currency
}

// NewService binds a loaded model to a currency; zero fields take the defaults.
func NewService(model regressor.Regressor, currency Currency) *Service {
	if currency.Rate == 0 {
		currency.Rate = DefaultRate
	}
	if currency.Symbol == "" {
		currency.Symbol = DefaultSymbol
	}
	return &Service{model: model, currency: currency}
}

// Predict runs the model and formats the scaled estimate.
func (s *Service) Predict(vec features.Vector) (Result, error) {
	raw, err := s.model.Predict(vec.Slice())
	if err != nil {
		return Result{}, &PredictionError{Cause: err}
	}
	// Rounding applies to the float64 product, not the exact decimal one.
	product := raw * s.currency.Rate
	if math.IsNaN(product) || math.IsInf(product, 0) {
		return Result{}, &PredictionError{Cause: errNonFinite}
	}
	scaled := decimal.NewFromFloat(product)
	return Result{
		Estimate:  raw,
		Scaled:    product,
		Formatted: Format(scaled, s.currency.Symbol),
	}, nil
}

// Format rounds half to even and renders the amount with thousands
// separators, e.g. 44000000 -> ₹44,000,000.
func Format(amount decimal.Decimal, symbol string) string {
	rounded := amount.RoundBank(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + symbol + humanize.BigComma(rounded.BigInt())
}
