// Package serve is the inference engine and its HTTP surface. The
// engine loads the persisted pipeline once at construction and is
// immutable afterwards, so concurrent predictions need no locking.
package serve

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/realtyml/hpctl/pkg/dataset"
	"github.com/realtyml/hpctl/pkg/features"
	"github.com/realtyml/hpctl/pkg/ml"
	"github.com/realtyml/hpctl/pkg/train"
)

// ErrPrediction marks any failure during feature preparation or the
// predict call; handlers surface it as a client-side failure.
var ErrPrediction = errors.New("prediction failed")

const confidenceMargin = 0.10

// Engine serves predictions from one loaded pipeline artifact.
// Deploying a new model requires a process restart.
type Engine struct {
	pipe         *ml.Pipeline
	featureNames []string
}

// NewEngine loads the pipeline and feature-name artifacts from the
// models directory. Any load failure is fatal to the caller: there is
// no serving without a valid artifact.
func NewEngine(modelsDir string) (*Engine, error) {
	pipe, err := ml.LoadPipeline(filepath.Join(modelsDir, train.PipelineFile))
	if err != nil {
		return nil, errors.Wrap(err, "loading model pipeline")
	}

	namesPath := filepath.Join(modelsDir, train.FeatureNamesFile)
	b, err := os.ReadFile(namesPath)
	if err != nil {
		return nil, errors.Wrapf(err, "loading feature names: %s", namesPath)
	}
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil, errors.Wrapf(err, "decoding feature names: %s", namesPath)
	}

	slog.Info("model loaded", "dir", modelsDir, "features", len(names))
	return &Engine{pipe: pipe, featureNames: names}, nil
}

// PredictOne prices a single house. The response carries the rounded
// point estimate, the ±10% band, feature importances when the model
// family exposes them, and a timestamp.
func (e *Engine) PredictOne(req *PredictionRequest) (*PredictionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	frame := buildFrame([]PredictionRequest{*req})
	preds, err := e.pipe.Predict(frame)
	if err != nil {
		return nil, errors.Wrapf(ErrPrediction, "%v", err)
	}

	price := round2(preds[0])

	// informational only; the prediction above is already made
	ppsf := features.PricePerSqft(price, req.Sqft)
	slog.Debug("prediction made", "price", price, "price_per_sqft", ppsf)

	return &PredictionResponse{
		PredictedPrice:     price,
		ConfidenceInterval: []float64{round2(price * (1 - confidenceMargin)), round2(price * (1 + confidenceMargin))},
		FeaturesImportance: e.importances(),
		PredictionTime:     time.Now().Format(time.RFC3339),
	}, nil
}

// PredictBatch prices all requests in one pipeline invocation and
// returns rounded point estimates only, positionally aligned with the
// input. An empty batch returns an empty slice.
func (e *Engine) PredictBatch(reqs []PredictionRequest) ([]float64, error) {
	out := make([]float64, 0, len(reqs))
	if len(reqs) == 0 {
		return out, nil
	}
	for i := range reqs {
		if err := reqs[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "request %d", i)
		}
	}

	frame := buildFrame(reqs)
	preds, err := e.pipe.Predict(frame)
	if err != nil {
		return nil, errors.Wrapf(ErrPrediction, "%v", err)
	}
	for _, p := range preds {
		out = append(out, round2(p))
	}
	return out, nil
}

// FeatureNames returns the persisted transformer output names.
func (e *Engine) FeatureNames() []string {
	return e.featureNames
}

// importances zips the model's importance scores against the
// persisted feature names. Families without importances yield an
// empty, non-nil map.
func (e *Engine) importances() map[string]float64 {
	out := map[string]float64{}
	fi, ok := e.pipe.Model.(ml.FeatureImporter)
	if !ok {
		return out
	}
	scores := fi.FeatureImportances()
	for i, name := range e.featureNames {
		if i >= len(scores) {
			break
		}
		out[name] = scores[i]
	}
	return out
}

// buildFrame reconstructs the derived features for the requests using
// the same formulas as training-time engineering. Missing total_rooms
// is filled as bedrooms + bathrooms; price_per_sqft is zero before
// prediction, matching the training-time placeholder column.
func buildFrame(reqs []PredictionRequest) *dataset.Frame {
	n := len(reqs)
	year := features.CurrentYear()

	sqft := make([]float64, n)
	bedrooms := make([]float64, n)
	bathrooms := make([]float64, n)
	yearBuilt := make([]float64, n)
	location := make([]string, n)
	condition := make([]string, n)
	totalRooms := make([]float64, n)
	houseAge := make([]float64, n)
	bedBath := make([]float64, n)
	ppsf := make([]float64, n)

	for i, r := range reqs {
		sqft[i] = r.Sqft
		bedrooms[i] = float64(r.Bedrooms)
		bathrooms[i] = r.Bathrooms
		yearBuilt[i] = float64(r.YearBuilt)
		location[i] = r.Location
		condition[i] = r.Condition

		houseAge[i] = features.HouseAge(year, yearBuilt[i])
		bedBath[i] = features.BedBathRatio(bedrooms[i], bathrooms[i])
		if r.TotalRooms != nil {
			totalRooms[i] = *r.TotalRooms
		} else {
			totalRooms[i] = features.TotalRooms(bedrooms[i], bathrooms[i])
		}
		ppsf[i] = 0
	}

	f := dataset.New()
	f.AddNumeric("sqft", sqft)
	f.AddNumeric("bedrooms", bedrooms)
	f.AddNumeric("bathrooms", bathrooms)
	f.AddCategorical("location", location)
	f.AddNumeric("year_built", yearBuilt)
	f.AddCategorical("condition", condition)
	f.AddNumeric(features.ColTotalRooms, totalRooms)
	f.AddNumeric(features.ColHouseAge, houseAge)
	f.AddNumeric(features.ColBedBathRatio, bedBath)
	f.AddNumeric(features.ColPricePerSqft, ppsf)
	return f
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
