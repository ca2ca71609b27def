package ml

import "github.com/pkg/errors"

// GradientBoosting fits shallow regression trees sequentially on the
// residuals of the running prediction, shrunk by the learning rate.
type GradientBoosting struct {
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64

	Base  float64 // initial prediction (mean of y)
	Trees []*RegressionTree
}

// NewGradientBoosting returns a booster with defaults, overridden by params.
func NewGradientBoosting(params Params) *GradientBoosting {
	return &GradientBoosting{
		NEstimators:     params.Int("n_estimators", 100),
		LearningRate:    params.Float("learning_rate", 0.1),
		MaxDepth:        params.Int("max_depth", 3),
		MinSamplesSplit: params.Int("min_samples_split", 2),
		Seed:            int64(params.Int("random_state", defaultSeed)),
	}
}

// Fit builds the additive ensemble. Unlike the forest this is
// inherently sequential: every tree sees the residuals left by the
// trees before it.
func (gb *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("boost: empty training set")
	}
	if len(X) != len(y) {
		return errors.New("boost: X and y length mismatch")
	}

	n := len(y)
	gb.Base = 0
	for _, v := range y {
		gb.Base += v
	}
	gb.Base /= float64(n)

	current := make([]float64, n)
	residual := make([]float64, n)
	for i := range current {
		current[i] = gb.Base
	}

	// bounded depth keeps each stage a weak learner
	maxDepth := gb.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}

	gb.Trees = make([]*RegressionTree, 0, gb.NEstimators)
	for k := 0; k < gb.NEstimators; k++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}
		tree := &RegressionTree{
			MaxDepth:        maxDepth,
			MinSamplesSplit: gb.MinSamplesSplit,
			Seed:            gb.Seed + int64(k),
		}
		if err := tree.Fit(X, residual); err != nil {
			return err
		}
		gb.Trees = append(gb.Trees, tree)
		for i, p := range tree.Predict(X) {
			current[i] += gb.LearningRate * p
		}
	}
	return nil
}

// Predict returns base + lr * sum of tree predictions per row.
func (gb *GradientBoosting) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = gb.Base
	}
	for _, tree := range gb.Trees {
		for i, p := range tree.Predict(X) {
			out[i] += gb.LearningRate * p
		}
	}
	return out
}

// FeatureImportances sums normalized tree importances across stages.
func (gb *GradientBoosting) FeatureImportances() []float64 {
	if len(gb.Trees) == 0 {
		return nil
	}
	out := make([]float64, gb.Trees[0].NFeatures)
	for _, tree := range gb.Trees {
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
