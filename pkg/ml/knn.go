package ml

import (
	"encoding/gob"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// KNN is a k-nearest-neighbors regressor: the prediction is the mean
// target of the k closest training rows by Euclidean distance. It is
// an extended family, registered from this file; dropping the file
// narrows the dispatch table without touching resolution.
type KNN struct {
	K int

	X [][]float64
	Y []float64
}

// NewKNN constructs a KNN regressor with k defaulting to 5.
func NewKNN(params Params) *KNN {
	return &KNN{K: params.Int("n_neighbors", 5)}
}

func (m *KNN) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("knn: empty training set")
	}
	if len(X) != len(y) {
		return errors.New("knn: X and y length mismatch")
	}
	m.X = X
	m.Y = y
	return nil
}

func (m *KNN) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	k := m.K
	if k <= 0 {
		k = 5
	}
	if k > len(m.X) {
		k = len(m.X)
	}

	type neighbor struct {
		dist float64
		y    float64
	}
	for i, row := range X {
		neighbors := make([]neighbor, len(m.X))
		for t, train := range m.X {
			d := 0.0
			for j := range train {
				diff := row[j] - train[j]
				d += diff * diff
			}
			neighbors[t] = neighbor{dist: math.Sqrt(d), y: m.Y[t]}
		}
		sort.Slice(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })
		sum := 0.0
		for _, nb := range neighbors[:k] {
			sum += nb.y
		}
		out[i] = sum / float64(k)
	}
	return out
}

func init() {
	for _, alias := range []string{"knn", "kneighbors"} {
		registerExtra(alias, func(p Params) Regressor { return NewKNN(p) })
	}
	gob.Register(&KNN{})
}
