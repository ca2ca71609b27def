package ml

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// treeNode is one node of a fitted regression tree. Fields are
// exported for gob encoding of persisted pipelines.
type treeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x[Feature] <= Threshold goes left
	Value     float64 // leaf prediction (mean of samples)
	Left      *treeNode
	Right     *treeNode
}

// RegressionTree is a CART-style regression tree splitting on
// variance reduction.
type RegressionTree struct {
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	MaxFeatures     int  // 0 means all features
	RandomSplits    bool // extra-trees mode: one random threshold per feature
	Seed            int64

	Root        *treeNode
	NFeatures   int
	Importances []float64 // normalized impurity decrease per feature
}

// NewRegressionTree returns a tree with defaults matching the
// ensemble constructors.
func NewRegressionTree(params Params) *RegressionTree {
	return &RegressionTree{
		MaxDepth:        params.Int("max_depth", 0),
		MinSamplesSplit: params.Int("min_samples_split", 2),
		MaxFeatures:     params.Int("max_features", 0),
		Seed:            int64(params.Int("random_state", defaultSeed)),
	}
}

// Fit grows the tree on all rows of X.
func (t *RegressionTree) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("tree: empty training set")
	}
	if len(X) != len(y) {
		return errors.New("tree: X and y length mismatch")
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.FitIndexed(X, y, idx)
}

// FitIndexed grows the tree on the given row indices, so ensembles
// can bootstrap without copying the data.
func (t *RegressionTree) FitIndexed(X [][]float64, y []float64, idx []int) error {
	if len(idx) == 0 {
		return errors.New("tree: empty index set")
	}
	t.NFeatures = len(X[0])
	t.Importances = make([]float64, t.NFeatures)
	rng := rand.New(rand.NewSource(t.Seed))
	t.Root = t.grow(X, y, idx, 0, rng)

	total := 0.0
	for _, v := range t.Importances {
		total += v
	}
	if total > 0 {
		for i := range t.Importances {
			t.Importances[i] /= total
		}
	}
	return nil
}

// Predict returns one prediction per row of X.
func (t *RegressionTree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = t.predictRow(row)
	}
	return out
}

func (t *RegressionTree) predictRow(row []float64) float64 {
	n := t.Root
	for n != nil && !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	if n == nil {
		return 0
	}
	return n.Value
}

// FeatureImportances returns the normalized impurity decrease per
// input feature.
func (t *RegressionTree) FeatureImportances() []float64 {
	return t.Importances
}

func (t *RegressionTree) grow(X [][]float64, y []float64, idx []int, depth int, rng *rand.Rand) *treeNode {
	mean, sse := meanSSE(y, idx)

	if len(idx) < t.MinSamplesSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) || sse == 0 {
		return &treeNode{Leaf: true, Value: mean}
	}

	feature, threshold, gain, ok := t.bestSplit(X, y, idx, sse, rng)
	if !ok {
		return &treeNode{Leaf: true, Value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{Leaf: true, Value: mean}
	}

	t.Importances[feature] += gain

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.grow(X, y, left, depth+1, rng),
		Right:     t.grow(X, y, right, depth+1, rng),
	}
}

// bestSplit scans candidate features for the split with the largest
// SSE reduction. In RandomSplits mode a single random threshold per
// feature is evaluated instead of every midpoint.
func (t *RegressionTree) bestSplit(X [][]float64, y []float64, idx []int, parentSSE float64, rng *rand.Rand) (feature int, threshold, gain float64, ok bool) {
	candidates := t.candidateFeatures(rng)
	bestGain := 0.0

	for _, j := range candidates {
		if t.RandomSplits {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, i := range idx {
				v := X[i][j]
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			if lo >= hi {
				continue
			}
			thr := lo + rng.Float64()*(hi-lo)
			if g, valid := splitGain(X, y, idx, j, thr, parentSSE); valid && g > bestGain {
				feature, threshold, bestGain, ok = j, thr, g, true
			}
			continue
		}

		for _, thr := range midpoints(X, idx, j) {
			if g, valid := splitGain(X, y, idx, j, thr, parentSSE); valid && g > bestGain {
				feature, threshold, bestGain, ok = j, thr, g, true
			}
		}
	}
	return feature, threshold, bestGain, ok
}

func (t *RegressionTree) candidateFeatures(rng *rand.Rand) []int {
	all := make([]int, t.NFeatures)
	for i := range all {
		all[i] = i
	}
	if t.MaxFeatures <= 0 || t.MaxFeatures >= t.NFeatures {
		return all
	}
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:t.MaxFeatures]
}

// midpoints returns candidate thresholds between consecutive distinct
// values of feature j across the rows in idx.
func midpoints(X [][]float64, idx []int, j int) []float64 {
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = X[i][j]
	}
	sort.Float64s(vals)
	var out []float64
	for k := 1; k < len(vals); k++ {
		if vals[k] > vals[k-1] {
			out = append(out, (vals[k]+vals[k-1])/2)
		}
	}
	return out
}

func splitGain(X [][]float64, y []float64, idx []int, j int, thr, parentSSE float64) (float64, bool) {
	var nl, nr int
	var sl, sr float64
	for _, i := range idx {
		if X[i][j] <= thr {
			nl++
			sl += y[i]
		} else {
			nr++
			sr += y[i]
		}
	}
	if nl == 0 || nr == 0 {
		return 0, false
	}
	ml, mr := sl/float64(nl), sr/float64(nr)
	var sseL, sseR float64
	for _, i := range idx {
		if X[i][j] <= thr {
			d := y[i] - ml
			sseL += d * d
		} else {
			d := y[i] - mr
			sseR += d * d
		}
	}
	return parentSSE - sseL - sseR, true
}

func meanSSE(y []float64, idx []int) (mean, sse float64) {
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return mean, sse
}
