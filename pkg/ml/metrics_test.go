package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_PerfectPrediction(t *testing.T) {
	y := []float64{100, 200, 300}
	m := Evaluate(y, y)

	assert.Zero(t, m.RMSE)
	assert.Zero(t, m.MAE)
	assert.Equal(t, 1.0, m.R2)
}

func TestMetrics_KnownValues(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}
	yPred := []float64{2, 2, 3, 4}

	assert.InDelta(t, 0.25, MSE(yTrue, yPred), 1e-12)
	assert.InDelta(t, 0.5, RMSE(yTrue, yPred), 1e-12)
	assert.InDelta(t, 0.25, MAE(yTrue, yPred), 1e-12)
	// ssTot = 5, ssRes = 1
	assert.InDelta(t, 0.8, R2(yTrue, yPred), 1e-12)
}

func TestMetrics_EmptyInput(t *testing.T) {
	m := Evaluate(nil, nil)
	assert.Zero(t, m.RMSE)
	assert.Zero(t, m.MAE)
	assert.Zero(t, m.R2)
}

func TestR2_ConstantTarget(t *testing.T) {
	// zero total variance cannot be explained; report 0, not NaN
	r := R2([]float64{5, 5, 5}, []float64{4, 5, 6})
	assert.Zero(t, r)
	assert.False(t, math.IsNaN(r))
}
