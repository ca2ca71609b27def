package ml

import (
	"math/rand"
	"sync"

	"github.com/pkg/errors"
)

// RandomForest averages bootstrap-sampled regression trees. With
// RandomSplits set and Bootstrap cleared it behaves as extra-trees.
type RandomForest struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int // 0 means all features
	Bootstrap       bool
	RandomSplits    bool
	Seed            int64

	Trees []*RegressionTree
}

// NewRandomForest returns a forest with defaults, overridden by params.
func NewRandomForest(params Params) *RandomForest {
	return &RandomForest{
		NEstimators:     params.Int("n_estimators", 100),
		MaxDepth:        params.Int("max_depth", 0),
		MinSamplesSplit: params.Int("min_samples_split", 2),
		MaxFeatures:     params.Int("max_features", 0),
		Bootstrap:       params.Bool("bootstrap", true),
		Seed:            int64(params.Int("random_state", defaultSeed)),
	}
}

// NewExtraTrees returns an extremely-randomized forest: random split
// thresholds, no bootstrap sampling.
func NewExtraTrees(params Params) *RandomForest {
	rf := NewRandomForest(params)
	rf.RandomSplits = true
	rf.Bootstrap = params.Bool("bootstrap", false)
	return rf
}

// Fit grows all trees in parallel. Each tree derives its own seed
// from the forest seed, so the result is deterministic regardless of
// goroutine scheduling.
func (rf *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("forest: empty training set")
	}
	if len(X) != len(y) {
		return errors.New("forest: X and y length mismatch")
	}

	n := len(X)
	rf.Trees = make([]*RegressionTree, rf.NEstimators)

	var wg sync.WaitGroup
	errCh := make(chan error, rf.NEstimators)

	for i := 0; i < rf.NEstimators; i++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			seed := rf.Seed + int64(k)
			rng := rand.New(rand.NewSource(seed))

			idx := make([]int, n)
			for j := range idx {
				if rf.Bootstrap {
					idx[j] = rng.Intn(n)
				} else {
					idx[j] = j
				}
			}

			tree := &RegressionTree{
				MaxDepth:        rf.MaxDepth,
				MinSamplesSplit: rf.MinSamplesSplit,
				MaxFeatures:     rf.MaxFeatures,
				RandomSplits:    rf.RandomSplits,
				Seed:            seed,
			}
			if err := tree.FitIndexed(X, y, idx); err != nil {
				errCh <- err
				return
			}
			rf.Trees[k] = tree
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// Predict returns the mean prediction across all trees.
func (rf *RandomForest) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(rf.Trees) == 0 {
		return out
	}
	for _, tree := range rf.Trees {
		for i, p := range tree.Predict(X) {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(rf.Trees))
	}
	return out
}

// FeatureImportances returns the mean normalized impurity decrease
// across trees.
func (rf *RandomForest) FeatureImportances() []float64 {
	if len(rf.Trees) == 0 || rf.Trees[0] == nil {
		return nil
	}
	out := make([]float64, rf.Trees[0].NFeatures)
	for _, tree := range rf.Trees {
		for i, v := range tree.Importances {
			out[i] += v
		}
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}
