package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepData is perfectly separable at x0 = 5: below it y is 10, above
// it y is 20.
func stepData() ([][]float64, []float64) {
	X := [][]float64{{1, 0}, {2, 1}, {3, 0}, {4, 1}, {6, 0}, {7, 1}, {8, 0}, {9, 1}}
	y := []float64{10, 10, 10, 10, 20, 20, 20, 20}
	return X, y
}

func TestRegressionTree_FitPredict(t *testing.T) {
	X, y := stepData()
	tree := NewRegressionTree(Params{})
	require.NoError(t, tree.Fit(X, y))

	pred := tree.Predict([][]float64{{2, 0}, {8, 1}})
	assert.Equal(t, 10.0, pred[0])
	assert.Equal(t, 20.0, pred[1])
}

func TestRegressionTree_ImportancesNormalized(t *testing.T) {
	X, y := stepData()
	tree := NewRegressionTree(Params{})
	require.NoError(t, tree.Fit(X, y))

	imp := tree.FeatureImportances()
	require.Len(t, imp, 2)
	sum := 0.0
	for _, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// all signal is in feature 0
	assert.Greater(t, imp[0], imp[1])
}

func TestRegressionTree_MaxDepth(t *testing.T) {
	X, y := stepData()
	tree := NewRegressionTree(Params{"max_depth": 1})
	require.NoError(t, tree.Fit(X, y))

	// a depth-1 tree is a single split: both children are leaves
	require.NotNil(t, tree.Root)
	assert.False(t, tree.Root.Leaf)
	assert.True(t, tree.Root.Left.Leaf)
	assert.True(t, tree.Root.Right.Leaf)
}

func TestRegressionTree_ConstantTarget(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []float64{5, 5, 5}
	tree := NewRegressionTree(Params{})
	require.NoError(t, tree.Fit(X, y))

	assert.True(t, tree.Root.Leaf)
	assert.Equal(t, []float64{5, 5}, tree.Predict([][]float64{{0}, {9}}))
}

func TestRegressionTree_Errors(t *testing.T) {
	tree := NewRegressionTree(Params{})
	assert.Error(t, tree.Fit(nil, nil))
	assert.Error(t, tree.Fit([][]float64{{1}}, []float64{1, 2}))
}

func TestRandomForest_FitPredict(t *testing.T) {
	X, y := stepData()
	rf := NewRandomForest(Params{"n_estimators": 25, "random_state": 1})
	require.NoError(t, rf.Fit(X, y))
	require.Len(t, rf.Trees, 25)

	pred := rf.Predict([][]float64{{2, 0}, {8, 1}})
	assert.InDelta(t, 10, pred[0], 2.5)
	assert.InDelta(t, 20, pred[1], 2.5)
}

func TestRandomForest_Deterministic(t *testing.T) {
	X, y := stepData()
	probe := [][]float64{{2.5, 0}, {7.5, 1}, {5.1, 0}}

	a := NewRandomForest(Params{"n_estimators": 20, "random_state": 7})
	require.NoError(t, a.Fit(X, y))
	b := NewRandomForest(Params{"n_estimators": 20, "random_state": 7})
	require.NoError(t, b.Fit(X, y))

	assert.Equal(t, a.Predict(probe), b.Predict(probe))
	assert.Equal(t, a.FeatureImportances(), b.FeatureImportances())
}

func TestRandomForest_ImportancesNormalized(t *testing.T) {
	X, y := stepData()
	rf := NewRandomForest(Params{"n_estimators": 10})
	require.NoError(t, rf.Fit(X, y))

	imp := rf.FeatureImportances()
	require.Len(t, imp, 2)
	sum := 0.0
	for _, v := range imp {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRandomForest_PredictBeforeFit(t *testing.T) {
	rf := NewRandomForest(Params{})
	assert.Equal(t, []float64{0, 0}, rf.Predict([][]float64{{1}, {2}}))
	assert.Nil(t, rf.FeatureImportances())
}

func TestExtraTrees_FitPredict(t *testing.T) {
	X, y := stepData()
	et := NewExtraTrees(Params{"n_estimators": 25, "random_state": 3})
	assert.True(t, et.RandomSplits)
	assert.False(t, et.Bootstrap)

	require.NoError(t, et.Fit(X, y))
	pred := et.Predict([][]float64{{1.5, 0}, {8.5, 1}})
	assert.InDelta(t, 10, pred[0], 3)
	assert.InDelta(t, 20, pred[1], 3)
}

func TestGradientBoosting_FitPredict(t *testing.T) {
	X, y := stepData()
	gb := NewGradientBoosting(Params{"n_estimators": 50, "learning_rate": 0.2})
	require.NoError(t, gb.Fit(X, y))

	assert.InDelta(t, 15, gb.Base, 1e-9)
	pred := gb.Predict([][]float64{{2, 0}, {8, 1}})
	assert.InDelta(t, 10, pred[0], 0.5)
	assert.InDelta(t, 20, pred[1], 0.5)
}

func TestGradientBoosting_Importances(t *testing.T) {
	X, y := stepData()
	gb := NewGradientBoosting(Params{"n_estimators": 10})
	require.NoError(t, gb.Fit(X, y))

	imp := gb.FeatureImportances()
	require.Len(t, imp, 2)
	assert.Greater(t, imp[0], imp[1])
}

func TestKNN_FitPredict(t *testing.T) {
	X, y := stepData()
	knn := NewKNN(Params{"n_neighbors": 3})
	require.NoError(t, knn.Fit(X, y))

	pred := knn.Predict([][]float64{{1.5, 0}, {8.5, 0}})
	assert.Equal(t, 10.0, pred[0])
	assert.Equal(t, 20.0, pred[1])
}

func TestKNN_KLargerThanTrainingSet(t *testing.T) {
	knn := NewKNN(Params{"n_neighbors": 50})
	require.NoError(t, knn.Fit([][]float64{{1}, {2}}, []float64{4, 6}))
	assert.Equal(t, []float64{5}, knn.Predict([][]float64{{1.5}}))
}

func TestMidpoints(t *testing.T) {
	X := [][]float64{{3}, {1}, {2}, {2}}
	idx := []int{0, 1, 2, 3}
	assert.Equal(t, []float64{1.5, 2.5}, midpoints(X, idx, 0))
}

func TestMeanSSE(t *testing.T) {
	y := []float64{1, 3, 5}
	mean, sse := meanSSE(y, []int{0, 1, 2})
	assert.InDelta(t, 3, mean, 1e-12)
	assert.InDelta(t, 8, sse, 1e-12)

	if math.IsNaN(mean) || math.IsNaN(sse) {
		t.Fatal("unexpected NaN")
	}
}
