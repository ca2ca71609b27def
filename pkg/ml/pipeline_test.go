package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtyml/hpctl/pkg/dataset"
)

func fittedPipeline(t *testing.T) (*Pipeline, *dataset.Frame) {
	t.Helper()
	f := dataset.New()
	f.AddNumeric("sqft", []float64{1000, 1500, 2000, 2500, 3000, 3500})
	f.AddNumeric("bedrooms", []float64{2, 2, 3, 3, 4, 4})
	f.AddCategorical("location", []string{"Urban", "Rural", "Urban", "Rural", "Urban", "Rural"})
	y := []float64{150000, 200000, 260000, 310000, 380000, 430000}

	pre := NewColumnTransformer([]string{"sqft", "bedrooms"}, []string{"location"})
	model := NewRandomForest(Params{"n_estimators": 10, "random_state": 1})
	p := NewPipeline(pre, model)
	require.NoError(t, p.Fit(f, y))
	return p, f
}

func TestPipeline_FitPredict(t *testing.T) {
	p, f := fittedPipeline(t)

	pred, err := p.Predict(f)
	require.NoError(t, err)
	assert.Len(t, pred, f.Rows())
	for _, v := range pred {
		assert.Greater(t, v, 100000.0)
		assert.Less(t, v, 500000.0)
	}
}

func TestPipeline_FeatureNames(t *testing.T) {
	p, _ := fittedPipeline(t)
	assert.Equal(t, []string{"location_Rural", "location_Urban", "sqft", "bedrooms"}, p.FeatureNames())
}

func TestPipeline_SaveLoadRoundTrip(t *testing.T) {
	p, f := fittedPipeline(t)
	path := filepath.Join(t.TempDir(), "model_pipeline.gob")
	require.NoError(t, p.Save(path))

	loaded, err := LoadPipeline(path)
	require.NoError(t, err)

	want, err := p.Predict(f)
	require.NoError(t, err)
	got, err := loaded.Predict(f)
	require.NoError(t, err)

	// the persisted pipeline must predict bit-identically
	assert.Equal(t, want, got)
	assert.Equal(t, p.FeatureNames(), loaded.FeatureNames())
}

func TestPipeline_SaveLoadKeepsImportances(t *testing.T) {
	p, _ := fittedPipeline(t)
	path := filepath.Join(t.TempDir(), "model_pipeline.gob")
	require.NoError(t, p.Save(path))

	loaded, err := LoadPipeline(path)
	require.NoError(t, err)

	imp, ok := loaded.Model.(FeatureImporter)
	require.True(t, ok)
	assert.Equal(t, p.Model.(FeatureImporter).FeatureImportances(), imp.FeatureImportances())
}

func TestLoadPipeline_Errors(t *testing.T) {
	_, err := LoadPipeline(filepath.Join(t.TempDir(), "nope.gob"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "garbage.gob")
	require.NoError(t, os.WriteFile(bad, []byte("not a gob stream"), 0o644))
	_, err = LoadPipeline(bad)
	assert.Error(t, err)
}
