// Package train is the training orchestrator: it turns a config and a
// featured dataset into a persisted pipeline artifact, metrics, and a
// tracked run.
package train

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/realtyml/hpctl/pkg/config"
	"github.com/realtyml/hpctl/pkg/dataset"
	"github.com/realtyml/hpctl/pkg/ml"
	"github.com/realtyml/hpctl/pkg/tracking"
)

// Artifact file names within the models directory.
const (
	PipelineFile     = "model_pipeline.gob"
	FeatureNamesFile = "feature_names.json"
	MetricsFile      = "metrics.json"
)

const dirMode = 0o755

// Result summarizes one completed training run.
type Result struct {
	RunID        string
	Metrics      ml.Metrics
	BestParams   ml.Params
	CVScore      float64
	FeatureNames []string
	ModelsDir    string
}

// Run executes the full training flow: load, select, search, refit,
// evaluate, persist, track. Local artifacts are written before the
// tracker is touched, so a tracker outage never loses a trained model.
func Run(ctx context.Context, cfg *config.Config, dataPath, modelsDir string) (*Result, error) {
	slog.Info("loading featured data", "path", dataPath)
	frame, err := dataset.ReadCSV(dataPath)
	if err != nil {
		return nil, err
	}

	target := dataset.StandardizeName(cfg.Model.TargetVariable)
	targetCol, ok := frame.Col(target)
	if !ok {
		return nil, errors.Errorf("target column %q not found", target)
	}
	if targetCol.Kind != dataset.Numeric {
		return nil, errors.Errorf("target column %q is not numeric", target)
	}
	y := targetCol.Nums

	X := selectFeatures(frame, cfg.Features(), target)
	numeric, categorical := X.SplitKinds()
	slog.Info("selected features", "numeric", len(numeric), "categorical", len(categorical))

	base := ml.Params(cfg.Model.Parameters)
	seed := base.Int("random_state", 42)

	build := func(params ml.Params) *ml.Pipeline {
		pre := ml.NewColumnTransformer(numeric, categorical)
		model := ml.Resolve(cfg.Model.BestModel, base.Merge(params))
		return ml.NewPipeline(pre, model)
	}

	gs := &ml.GridSearch{
		Grid:    defaultGrid(base),
		CV:      cfg.CV,
		Scoring: ml.Scoring(cfg.Model.Scoring),
		Seed:    int64(seed),
	}
	pipe, bestParams, candidates, err := gs.Run(ctx, X, y, build)
	if err != nil {
		return nil, errors.Wrap(err, "grid search failed")
	}
	cvScore := candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score > cvScore {
			cvScore = c.Score
		}
	}

	// evaluated on the fit set, not a held-out split; these metrics
	// overstate generalization
	pred, err := pipe.Predict(X)
	if err != nil {
		return nil, errors.Wrap(err, "evaluating refit pipeline")
	}
	metrics := ml.Evaluate(y, pred)
	slog.Info("in-sample metrics", "rmse", metrics.RMSE, "mae", metrics.MAE, "r2", metrics.R2)

	if err := persist(pipe, metrics, modelsDir); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:        tracking.NewRunID(),
		Metrics:      metrics,
		BestParams:   bestParams,
		CVScore:      cvScore,
		FeatureNames: pipe.FeatureNames(),
		ModelsDir:    modelsDir,
	}

	// tracker runs last: a tracking failure aborts the run, but the
	// local artifacts above are already on disk
	if cfg.Tracking.URI != "" {
		if err := track(ctx, cfg, res, gs); err != nil {
			return nil, errors.Wrap(err, "tracking failed (local artifacts already persisted)")
		}
		slog.Info("run tracked", "id", res.RunID, "uri", cfg.Tracking.URI)
	}
	return res, nil
}

// selectFeatures narrows the frame to the configured feature subset.
// Configured features missing from the data are logged and dropped;
// an empty subset means every column except the target.
func selectFeatures(frame *dataset.Frame, configured []string, target string) *dataset.Frame {
	if len(configured) == 0 {
		return frame.Drop(target)
	}
	kept := make([]string, 0, len(configured))
	for _, raw := range configured {
		name := dataset.StandardizeName(raw)
		if name == target {
			continue
		}
		if !frame.Has(name) {
			slog.Warn("configured feature missing from dataset, ignored", "feature", name)
			continue
		}
		kept = append(kept, name)
	}
	return frame.Select(kept)
}

// defaultGrid builds the search grid around the configured estimator
// count and tree depth.
func defaultGrid(base ml.Params) map[string][]any {
	nEst := base.Int("n_estimators", 200)
	depth := base["max_depth"] // may be nil, meaning unlimited

	grid := map[string][]any{
		"n_estimators": {nEst},
		"max_depth":    {depth},
	}
	if nEst != 300 {
		grid["n_estimators"] = append(grid["n_estimators"], 300)
	}
	for _, d := range []int{10, 20} {
		if base.Int("max_depth", -1) != d {
			grid["max_depth"] = append(grid["max_depth"], d)
		}
	}
	return grid
}

func persist(pipe *ml.Pipeline, metrics ml.Metrics, modelsDir string) error {
	if err := os.MkdirAll(modelsDir, dirMode); err != nil {
		return errors.Wrapf(err, "error creating models dir: %s", modelsDir)
	}
	if err := pipe.Save(filepath.Join(modelsDir, PipelineFile)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(modelsDir, FeatureNamesFile), pipe.FeatureNames()); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(modelsDir, MetricsFile), metrics); err != nil {
		return err
	}
	slog.Info("artifacts persisted", "dir", modelsDir)
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "error marshalling: %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, b, 0o644), "error writing: %s", path)
}

func track(ctx context.Context, cfg *config.Config, res *Result, gs *ml.GridSearch) error {
	t, err := tracking.Open(cfg.Tracking.URI)
	if err != nil {
		return err
	}
	defer t.Close()

	run := &tracking.Run{
		ID:               res.RunID,
		Name:             cfg.Model.Name,
		Model:            cfg.Model.BestModel,
		Target:           cfg.Model.TargetVariable,
		Scoring:          string(gs.Scoring),
		CVScore:          res.CVScore,
		ConfiguredParams: stringify(cfg.Model.Parameters),
		EffectiveParams:  stringify(res.BestParams),
		Metrics: map[string]float64{
			"rmse": res.Metrics.RMSE,
			"mae":  res.Metrics.MAE,
			"r2":   res.Metrics.R2,
		},
	}

	for _, name := range []string{PipelineFile, FeatureNamesFile, MetricsFile} {
		content, err := os.ReadFile(filepath.Join(res.ModelsDir, name))
		if err != nil {
			return errors.Wrapf(err, "error reading artifact for tracking: %s", name)
		}
		run.Artifacts = append(run.Artifacts, tracking.Artifact{Name: name, Content: content, Size: len(content)})
	}

	return t.LogRun(ctx, run)
}

func stringify(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v == nil {
			out[k] = "null"
			continue
		}
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
