package tracking

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func testRun(id string) *Run {
	return &Run{
		ID:      id,
		Name:    "house_price_model",
		Model:   "RandomForest",
		Target:  "price",
		Scoring: "neg_root_mean_squared_error",
		CVScore: -41532.7,
		ConfiguredParams: map[string]string{
			"n_estimators": "200",
		},
		EffectiveParams: map[string]string{
			"n_estimators": "300",
			"max_depth":    "10",
		},
		Metrics: map[string]float64{
			"rmse": 40211.5,
			"mae":  28831.2,
			"r2":   0.87,
		},
		Artifacts: []Artifact{
			{Name: "model_pipeline.gob", Content: []byte("binary payload")},
			{Name: "metrics.json", Content: []byte(`{"rmse":40211.5}`)},
		},
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_Reentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	a, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// schema creation must be idempotent
	b, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, b.Close())
}

func TestLogRun_GetRun(t *testing.T) {
	tr := testTracker(t)
	ctx := context.Background()
	id := NewRunID()

	require.NoError(t, tr.LogRun(ctx, testRun(id)))

	got, err := tr.GetRun(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "house_price_model", got.Name)
	assert.Equal(t, "RandomForest", got.Model)
	assert.Equal(t, -41532.7, got.CVScore)
	assert.Equal(t, map[string]string{"n_estimators": "200"}, got.ConfiguredParams)
	assert.Equal(t, "300", got.EffectiveParams["n_estimators"])
	assert.Equal(t, 0.87, got.Metrics["r2"])
	assert.False(t, got.CreatedAt.IsZero())

	// artifact contents stay in the database
	require.Len(t, got.Artifacts, 2)
	assert.Equal(t, "metrics.json", got.Artifacts[0].Name)
	assert.Equal(t, len(`{"rmse":40211.5}`), got.Artifacts[0].Size)
	assert.Nil(t, got.Artifacts[0].Content)
}

func TestLogRun_FillsDefaults(t *testing.T) {
	tr := testTracker(t)
	ctx := context.Background()

	r := &Run{Name: "m", Model: "rf", Target: "price", Scoring: "r2"}
	require.NoError(t, tr.LogRun(ctx, r))

	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestLogRun_NilRun(t *testing.T) {
	tr := testTracker(t)
	assert.Error(t, tr.LogRun(context.Background(), nil))
}

func TestListRuns_NewestFirst(t *testing.T) {
	tr := testTracker(t)
	ctx := context.Background()

	older := testRun("run-a")
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := testRun("run-b")
	newer.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, tr.LogRun(ctx, older))
	require.NoError(t, tr.LogRun(ctx, newer))

	runs, err := tr.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-a", runs[1].ID)
}

func TestListRuns_Limit(t *testing.T) {
	tr := testTracker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r := testRun(NewRunID())
		r.CreatedAt = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, tr.LogRun(ctx, r))
	}

	runs, err := tr.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestGetRun_NotFound(t *testing.T) {
	tr := testTracker(t)
	_, err := tr.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestNewRunID_Unique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}
