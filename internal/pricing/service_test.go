package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"houseprice/internal/features"
	"houseprice/internal/regressor"
)

type recordingModel struct {
	value float64
	err   error
	got   []float64
}

func (m *recordingModel) Predict(f []float64) (float64, error) {
	m.got = f
	return m.value, m.err
}

var delhiVector = features.Vector{3, 2, 1, 1500, 4000, 7, 2005, 0, 0, 0, 3, 1275, 28.6139, 77.2090, 1500, 4000}

func TestPredict_DelhiScenario(t *testing.T) {
	model := &recordingModel{value: 500000}
	svc := NewService(model, Currency{})

	res, err := svc.Predict(delhiVector)
	require.NoError(t, err)

	assert.Equal(t, 500000.0, res.Estimate)
	assert.Equal(t, 44000000.0, res.Scaled)
	assert.Equal(t, "₹44,000,000", res.Formatted)
	assert.Equal(t, delhiVector[:], model.got)
}

func TestPredict_ModelError(t *testing.T) {
	svc := NewService(regressor.Static{Value: 1, Width: 15}, Currency{})

	res, err := svc.Predict(delhiVector)
	var perr *PredictionError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, regressor.ErrShape)
	assert.Equal(t, Result{}, res)
}

func TestPredict_NonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := NewService(&recordingModel{value: v}, Currency{}).Predict(delhiVector)
		var perr *PredictionError
		assert.True(t, errors.As(err, &perr))
	}
}

func TestPredict_CustomCurrency(t *testing.T) {
	svc := NewService(&recordingModel{value: 1234.5}, Currency{Rate: 1, Symbol: "$"})
	res, err := svc.Predict(delhiVector)
	require.NoError(t, err)
	assert.Equal(t, "$1,234", res.Formatted)
}

func TestPredict_RoundsFloatProduct(t *testing.T) {
	// 2.675*100 is 267.49999999999997 in float64.
	svc := NewService(&recordingModel{value: 2.675}, Currency{Rate: 100, Symbol: "$"})
	res, err := svc.Predict(delhiVector)
	require.NoError(t, err)
	assert.Equal(t, 2.675*100, res.Scaled)
	assert.Equal(t, "$267", res.Formatted)
}

func TestPredict_OverflowingScale(t *testing.T) {
	_, err := NewService(&recordingModel{value: math.MaxFloat64}, Currency{}).Predict(delhiVector)
	var perr *PredictionError
	assert.True(t, errors.As(err, &perr))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "₹0"},
		{"999", "₹999"},
		{"1000", "₹1,000"},
		{"44000000", "₹44,000,000"},
		{"1234567.49", "₹1,234,567"},
		{"2.5", "₹2"},
		{"3.5", "₹4"},
		{"-1234", "-₹1,234"},
		{"123456789012345678901", "₹123,456,789,012,345,678,901"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(decimal.RequireFromString(tt.amount), "₹"))
		})
	}
}
