// Package ml implements the training pipeline: preprocessing,
// regressors, grid search with cross-validation, and metrics.
package ml

import (
	"encoding/gob"
	"log/slog"
	"strings"
)

// Regressor is the contract every model family implements.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

// FeatureImporter is implemented by model families that expose
// per-feature importance scores. Callers type-assert instead of
// guessing; families without importances simply don't implement it.
type FeatureImporter interface {
	FeatureImportances() []float64
}

// Params holds hyperparameter overrides as decoded from YAML.
type Params map[string]any

// Int returns the named parameter as an int, or def when absent,
// null, or not numeric. YAML decodes numbers as int or float64.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// Float returns the named parameter as a float64, or def.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// Bool returns the named parameter as a bool, or def.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Merge returns a copy of p with overrides applied on top.
func (p Params) Merge(overrides Params) Params {
	out := make(Params, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// ModelKind enumerates the built-in model families. The set is closed:
// resolution happens through an explicit dispatch table, never by
// runtime type lookup.
type ModelKind int

const (
	KindRandomForest ModelKind = iota
	KindGradientBoosting
	KindExtraTrees
	KindLinear
	KindRidge
	KindLasso
	KindElasticNet
	KindSVR
)

func (k ModelKind) String() string {
	switch k {
	case KindRandomForest:
		return "RandomForest"
	case KindGradientBoosting:
		return "GradientBoosting"
	case KindExtraTrees:
		return "ExtraTrees"
	case KindLinear:
		return "Linear"
	case KindRidge:
		return "Ridge"
	case KindLasso:
		return "Lasso"
	case KindElasticNet:
		return "ElasticNet"
	case KindSVR:
		return "SVR"
	default:
		return "Unknown"
	}
}

// baseAliases is the fixed alias table for the built-in families.
var baseAliases = map[string]ModelKind{
	"randomforest":     KindRandomForest,
	"random_forest":    KindRandomForest,
	"rf":               KindRandomForest,
	"gradientboosting": KindGradientBoosting,
	"gbr":              KindGradientBoosting,
	"extratrees":       KindExtraTrees,
	"extra_trees":      KindExtraTrees,
	"linear":           KindLinear,
	"linearregression": KindLinear,
	"ridge":            KindRidge,
	"lasso":            KindLasso,
	"elasticnet":       KindElasticNet,
	"svr":              KindSVR,
}

// extraCtors holds extended regressors that register themselves from
// their own file at init time. Removing a file narrows the table;
// nothing probes or fails at resolution time.
var extraCtors = map[string]func(Params) Regressor{}

func registerExtra(alias string, ctor func(Params) Regressor) {
	extraCtors[alias] = ctor
}

// ExtraAliases returns the registered extended aliases, for logging
// the effective dispatch table at startup.
func ExtraAliases() []string {
	out := make([]string, 0, len(extraCtors))
	for a := range extraCtors {
		out = append(out, a)
	}
	return out
}

// Resolve maps a case-insensitive model alias to a constructed
// regressor. An unrecognized alias falls back to a seeded parallel
// random forest with a warning; it never fails.
func Resolve(name string, params Params) Regressor {
	alias := strings.ToLower(strings.TrimSpace(name))

	if kind, ok := baseAliases[alias]; ok {
		return New(kind, params)
	}
	if ctor, ok := extraCtors[alias]; ok {
		return ctor(params)
	}

	slog.Warn("unsupported model name, falling back to RandomForest", "name", name)
	fallback := params.Merge(Params{"random_state": defaultSeed})
	return NewRandomForest(fallback)
}

// New constructs a regressor for a built-in kind.
func New(kind ModelKind, params Params) Regressor {
	switch kind {
	case KindGradientBoosting:
		return NewGradientBoosting(params)
	case KindExtraTrees:
		return NewExtraTrees(params)
	case KindLinear:
		return NewLinearRegression(params)
	case KindRidge:
		return NewRidge(params)
	case KindLasso:
		return NewLasso(params)
	case KindElasticNet:
		return NewElasticNet(params)
	case KindSVR:
		return NewSVR(params)
	default:
		return NewRandomForest(params)
	}
}

const defaultSeed = 42

func init() {
	// concrete types carried behind the Regressor interface inside
	// persisted pipelines
	gob.Register(&RandomForest{})
	gob.Register(&GradientBoosting{})
	gob.Register(&LinearRegression{})
	gob.Register(&Ridge{})
	gob.Register(&Lasso{})
	gob.Register(&ElasticNet{})
	gob.Register(&SVR{})
}
