package ml

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/realtyml/hpctl/pkg/dataset"
)

// Scoring names the objective maximized during grid search.
type Scoring string

const (
	ScoringNegRMSE Scoring = "neg_root_mean_squared_error"
	ScoringNegMAE  Scoring = "neg_mean_absolute_error"
	ScoringR2      Scoring = "r2"
)

// Score computes the scoring value; higher is always better.
func (s Scoring) Score(yTrue, yPred []float64) float64 {
	switch s {
	case ScoringNegMAE:
		return -MAE(yTrue, yPred)
	case ScoringR2:
		return R2(yTrue, yPred)
	default:
		return -RMSE(yTrue, yPred)
	}
}

// GridSearch exhaustively evaluates a hyperparameter grid with k-fold
// cross-validation and refits the winning combination on the full
// input. Combinations are scored in parallel across CPU cores; fold
// assignment is seeded, so results are deterministic.
type GridSearch struct {
	Grid    map[string][]any
	CV      int
	Scoring Scoring
	Seed    int64
}

// CandidateScore records the mean CV score of one combination.
type CandidateScore struct {
	Params Params
	Score  float64
}

// Run evaluates every combination and returns the refit winner.
// build constructs a fresh pipeline for a parameter set, so no fitted
// state leaks between folds or combinations.
func (g *GridSearch) Run(ctx context.Context, f *dataset.Frame, y []float64, build func(Params) *Pipeline) (*Pipeline, Params, []CandidateScore, error) {
	combos := expandGrid(g.Grid)
	if len(combos) == 0 {
		combos = []Params{{}}
	}
	k := g.CV
	if k < 2 {
		k = 5
	}
	if k > len(y) {
		k = len(y)
	}
	folds := kFold(len(y), k, g.Seed)

	slog.Info("running grid search", "combinations", len(combos), "cv", k, "scoring", string(g.Scoring))

	results := make([]CandidateScore, len(combos))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for ci, combo := range combos {
		ci, combo := ci, combo
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := g.crossValidate(f, y, folds, combo, build)
			if err != nil {
				return errors.Wrapf(err, "scoring %s", formatParams(combo))
			}
			results[ci] = CandidateScore{Params: combo, Score: score}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, nil, err
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[best].Score {
			best = i
		}
	}
	winner := results[best]
	slog.Info("best parameters", "params", formatParams(winner.Params), "score", winner.Score)

	refit := build(winner.Params)
	if err := refit.Fit(f, y); err != nil {
		return nil, nil, nil, errors.Wrap(err, "refitting best combination")
	}
	return refit, winner.Params, results, nil
}

func (g *GridSearch) crossValidate(f *dataset.Frame, y []float64, folds [][]int, combo Params, build func(Params) *Pipeline) (float64, error) {
	total, used := 0.0, 0
	for vi, val := range folds {
		if len(val) == 0 {
			continue
		}
		var train []int
		for ti, fold := range folds {
			if ti != vi {
				train = append(train, fold...)
			}
		}
		if len(train) == 0 {
			continue
		}

		yTrain := make([]float64, len(train))
		for i, r := range train {
			yTrain[i] = y[r]
		}
		yVal := make([]float64, len(val))
		for i, r := range val {
			yVal[i] = y[r]
		}

		p := build(combo)
		if err := p.Fit(f.Take(train), yTrain); err != nil {
			return 0, err
		}
		pred, err := p.Predict(f.Take(val))
		if err != nil {
			return 0, err
		}
		total += g.Scoring.Score(yVal, pred)
		used++
	}
	if used == 0 {
		return math.Inf(-1), nil
	}
	return total / float64(used), nil
}

// expandGrid produces the cartesian product of the grid values, with
// keys visited in sorted order so combination order is stable.
func expandGrid(grid map[string][]any) []Params {
	keys := make([]string, 0, len(grid))
	for k, vals := range grid {
		if len(vals) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return nil
	}

	combos := []Params{{}}
	for _, k := range keys {
		var next []Params
		for _, base := range combos {
			for _, v := range grid[k] {
				combo := base.Merge(Params{k: v})
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// kFold assigns shuffled row indices round-robin to k folds.
func kFold(n, k int, seed int64) [][]int {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	folds := make([][]int, k)
	for i, r := range perm {
		folds[i%k] = append(folds[i%k], r)
	}
	return folds
}

func formatParams(p Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, p[k]))
	}
	return strings.Join(parts, " ")
}
