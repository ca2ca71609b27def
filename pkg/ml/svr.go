package ml

import (
	"math"

	"github.com/pkg/errors"
)

// SVR is a linear support-vector regressor with epsilon-insensitive
// loss, fit by full-batch subgradient descent on the primal:
//
//	(1/n)·Σ max(0, |y − f(x)| − ε) + (1/2C)·‖w‖²
type SVR struct {
	C       float64
	Epsilon float64
	LR      float64
	Epochs  int

	Weights   []float64
	Intercept float64
}

// NewSVR constructs a linear SVR; C defaults to 1 and epsilon to 0.1.
func NewSVR(params Params) *SVR {
	return &SVR{
		C:       params.Float("c", 1.0),
		Epsilon: params.Float("epsilon", 0.1),
		LR:      params.Float("learning_rate", 0.01),
		Epochs:  params.Int("max_iter", 500),
	}
}

func (m *SVR) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("svr: empty training set")
	}
	if m.C <= 0 {
		return errors.New("svr: C must be positive")
	}
	n, p := len(X), len(X[0])

	m.Weights = make([]float64, p)
	m.Intercept = 0
	lambda := 1 / m.C

	gw := make([]float64, p)
	for epoch := 0; epoch < m.Epochs; epoch++ {
		for j := range gw {
			gw[j] = lambda * m.Weights[j]
		}
		gb := 0.0

		for i, row := range X {
			pred := m.Intercept
			for j, v := range row {
				pred += m.Weights[j] * v
			}
			err := pred - y[i]
			if math.Abs(err) <= m.Epsilon {
				continue
			}
			sign := 1.0
			if err < 0 {
				sign = -1.0
			}
			for j, v := range row {
				gw[j] += sign * v / float64(n)
			}
			gb += sign / float64(n)
		}

		// step size decays with the epoch for stability
		step := m.LR / (1 + 0.01*float64(epoch))
		for j := range m.Weights {
			m.Weights[j] -= step * gw[j]
		}
		m.Intercept -= step * gb
	}
	return nil
}

func (m *SVR) Predict(X [][]float64) []float64 {
	return linearPredict(X, m.Weights, m.Intercept)
}
