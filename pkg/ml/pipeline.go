package ml

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"

	"github.com/realtyml/hpctl/pkg/dataset"
)

// Pipeline is the composed fit/predict unit: the column transformer
// feeding the regressor. The regressor only ever sees the output of
// the transformer fit on the same rows.
type Pipeline struct {
	Pre   *ColumnTransformer
	Model Regressor
}

// NewPipeline assembles preprocessing and a regressor.
func NewPipeline(pre *ColumnTransformer, model Regressor) *Pipeline {
	return &Pipeline{Pre: pre, Model: model}
}

// Fit fits the transformer on the frame, then the regressor on the
// transformed matrix.
func (p *Pipeline) Fit(f *dataset.Frame, y []float64) error {
	if err := p.Pre.Fit(f); err != nil {
		return errors.Wrap(err, "fitting preprocessing")
	}
	X, err := p.Pre.Transform(f)
	if err != nil {
		return errors.Wrap(err, "transforming training data")
	}
	return errors.Wrap(p.Model.Fit(X, y), "fitting model")
}

// Predict transforms the frame and returns one prediction per row.
func (p *Pipeline) Predict(f *dataset.Frame) ([]float64, error) {
	X, err := p.Pre.Transform(f)
	if err != nil {
		return nil, errors.Wrap(err, "transforming input")
	}
	return p.Model.Predict(X), nil
}

// FeatureNames returns the output column names of the fitted
// transformer, in emission order.
func (p *Pipeline) FeatureNames() []string {
	return p.Pre.FeatureNames()
}

// Save persists the fitted pipeline as a gob artifact. The artifact
// is immutable once written; serving loads it read-only.
func (p *Pipeline) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "error creating artifact: %s", path)
	}
	defer file.Close()
	if err := gob.NewEncoder(file).Encode(p); err != nil {
		return errors.Wrap(err, "error encoding pipeline")
	}
	return nil
}

// LoadPipeline reads a persisted pipeline artifact.
func LoadPipeline(path string) (*Pipeline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening artifact: %s", path)
	}
	defer file.Close()
	var p Pipeline
	if err := gob.NewDecoder(file).Decode(&p); err != nil {
		return nil, errors.Wrap(err, "error decoding pipeline")
	}
	if p.Pre == nil || p.Model == nil {
		return nil, errors.Errorf("artifact incomplete: %s", path)
	}
	return &p, nil
}
