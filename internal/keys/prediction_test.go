package keys

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"houseprice/internal/models"
)

func TestPrediction(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	e := models.PredictionEvent{
		ID:        "3F2504E0-4F89-11D3-9A0C-0305E82C3301",
		CreatedAt: time.Date(2026, 1, 1, 2, 0, 0, 0, ist),
	}
	assert.Equal(t, "predictions/2025/12/31/3f2504e0-4f89-11d3-9a0c-0305e82c3301.json", Prediction(e))
}

func TestModel(t *testing.T) {
	assert.Equal(t, "models/house-price/v1.json", Model("House Price", "v1", "linear"))
	assert.Equal(t, "models/house-price/v2.onnx", Model("house price", "V2", "onnx"))
}
