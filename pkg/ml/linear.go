package ml

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression is ordinary least squares, solved in closed form.
type LinearRegression struct {
	Weights   []float64
	Intercept float64
}

// NewLinearRegression constructs an OLS regressor. It takes no
// hyperparameters; the signature matches the dispatch table.
func NewLinearRegression(_ Params) *LinearRegression {
	return &LinearRegression{}
}

// Fit solves the least-squares problem via QR decomposition.
func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("linear: empty training set")
	}
	n, p := len(X), len(X[0])

	// design matrix with a leading intercept column
	a := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return errors.Wrap(err, "linear: least squares solve failed")
	}

	m.Intercept = sol.AtVec(0)
	m.Weights = make([]float64, p)
	for j := 0; j < p; j++ {
		m.Weights[j] = sol.AtVec(j + 1)
	}
	return nil
}

// Predict returns X·w + intercept per row.
func (m *LinearRegression) Predict(X [][]float64) []float64 {
	return linearPredict(X, m.Weights, m.Intercept)
}

// Ridge is L2-regularized least squares solved via the normal
// equations. The intercept is not penalized.
type Ridge struct {
	Alpha     float64
	Weights   []float64
	Intercept float64
}

// NewRidge constructs a ridge regressor with alpha defaulting to 1.
func NewRidge(params Params) *Ridge {
	return &Ridge{Alpha: params.Float("alpha", 1.0)}
}

// Fit solves (XᵀX + αI)w = Xᵀy on centered data, then recovers the
// intercept from the means.
func (m *Ridge) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("ridge: empty training set")
	}
	n, p := len(X), len(X[0])

	xc, xMean := centerColumns(X)
	yc, yMean := centerVector(y)

	a := mat.NewDense(n, p, nil)
	for i, row := range xc {
		a.SetRow(i, row)
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	for j := 0; j < p; j++ {
		ata.Set(j, j, ata.At(j, j)+m.Alpha)
	}

	atb := mat.NewVecDense(p, nil)
	atb.MulVec(a.T(), mat.NewVecDense(n, yc))

	var sol mat.VecDense
	if err := sol.SolveVec(&ata, atb); err != nil {
		return errors.Wrap(err, "ridge: normal equations solve failed")
	}

	m.Weights = make([]float64, p)
	m.Intercept = yMean
	for j := 0; j < p; j++ {
		m.Weights[j] = sol.AtVec(j)
		m.Intercept -= m.Weights[j] * xMean[j]
	}
	return nil
}

// Predict returns X·w + intercept per row.
func (m *Ridge) Predict(X [][]float64) []float64 {
	return linearPredict(X, m.Weights, m.Intercept)
}

// Lasso is L1-regularized least squares fit by coordinate descent.
type Lasso struct {
	Alpha   float64
	MaxIter int
	Tol     float64

	Weights   []float64
	Intercept float64
}

// NewLasso constructs a lasso regressor with alpha defaulting to 1.
func NewLasso(params Params) *Lasso {
	return &Lasso{
		Alpha:   params.Float("alpha", 1.0),
		MaxIter: params.Int("max_iter", 1000),
		Tol:     params.Float("tol", 1e-4),
	}
}

func (m *Lasso) Fit(X [][]float64, y []float64) error {
	w, b, err := coordinateDescent(X, y, m.Alpha, 1.0, m.MaxIter, m.Tol)
	if err != nil {
		return errors.Wrap(err, "lasso")
	}
	m.Weights, m.Intercept = w, b
	return nil
}

func (m *Lasso) Predict(X [][]float64) []float64 {
	return linearPredict(X, m.Weights, m.Intercept)
}

// ElasticNet mixes L1 and L2 penalties, fit by coordinate descent.
type ElasticNet struct {
	Alpha   float64
	L1Ratio float64
	MaxIter int
	Tol     float64

	Weights   []float64
	Intercept float64
}

// NewElasticNet constructs an elastic-net regressor; alpha defaults
// to 1 and l1_ratio to 0.5.
func NewElasticNet(params Params) *ElasticNet {
	return &ElasticNet{
		Alpha:   params.Float("alpha", 1.0),
		L1Ratio: params.Float("l1_ratio", 0.5),
		MaxIter: params.Int("max_iter", 1000),
		Tol:     params.Float("tol", 1e-4),
	}
}

func (m *ElasticNet) Fit(X [][]float64, y []float64) error {
	w, b, err := coordinateDescent(X, y, m.Alpha, m.L1Ratio, m.MaxIter, m.Tol)
	if err != nil {
		return errors.Wrap(err, "elasticnet")
	}
	m.Weights, m.Intercept = w, b
	return nil
}

func (m *ElasticNet) Predict(X [][]float64) []float64 {
	return linearPredict(X, m.Weights, m.Intercept)
}

// coordinateDescent minimizes
//
//	(1/2n)‖y − Xw − b‖² + α·l1·‖w‖₁ + (α/2)·(1−l1)·‖w‖²
//
// by cycling over coordinates with soft thresholding until the
// largest weight update drops below tol.
func coordinateDescent(X [][]float64, y []float64, alpha, l1Ratio float64, maxIter int, tol float64) (weights []float64, intercept float64, err error) {
	if len(X) == 0 {
		return nil, 0, errors.New("empty training set")
	}
	n, p := len(X), len(X[0])

	xc, xMean := centerColumns(X)
	yc, yMean := centerVector(y)

	l1 := alpha * l1Ratio
	l2 := alpha * (1 - l1Ratio)

	// per-coordinate second moments
	z := make([]float64, p)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			z[j] += xc[i][j] * xc[i][j]
		}
		z[j] /= float64(n)
	}

	w := make([]float64, p)
	resid := append([]float64(nil), yc...)

	for iter := 0; iter < maxIter; iter++ {
		maxDelta := 0.0
		for j := 0; j < p; j++ {
			if z[j] == 0 {
				continue
			}
			rho := 0.0
			for i := 0; i < n; i++ {
				rho += xc[i][j] * (resid[i] + w[j]*xc[i][j])
			}
			rho /= float64(n)

			old := w[j]
			w[j] = softThreshold(rho, l1) / (z[j] + l2)
			if delta := w[j] - old; delta != 0 {
				for i := 0; i < n; i++ {
					resid[i] -= delta * xc[i][j]
				}
				if d := math.Abs(delta); d > maxDelta {
					maxDelta = d
				}
			}
		}
		if maxDelta < tol {
			break
		}
	}

	intercept = yMean
	for j := 0; j < p; j++ {
		intercept -= w[j] * xMean[j]
	}
	return w, intercept, nil
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}

func linearPredict(X [][]float64, w []float64, b float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		s := b
		for j, v := range row {
			if j < len(w) {
				s += w[j] * v
			}
		}
		out[i] = s
	}
	return out
}

func centerColumns(X [][]float64) (centered [][]float64, means []float64) {
	n, p := len(X), len(X[0])
	means = make([]float64, p)
	for _, row := range X {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	centered = make([][]float64, n)
	for i, row := range X {
		c := make([]float64, p)
		for j, v := range row {
			c[j] = v - means[j]
		}
		centered[i] = c
	}
	return centered, means
}

func centerVector(y []float64) (centered []float64, mean float64) {
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	centered = make([]float64, len(y))
	for i, v := range y {
		centered[i] = v - mean
	}
	return centered, mean
}
