package ml

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/realtyml/hpctl/pkg/dataset"
)

// OneHotEncoder encodes categorical columns as binary indicator
// vectors. Category values unseen during fit encode as all-zero,
// never as an error.
type OneHotEncoder struct {
	Columns    []string            // input column names, branch order preserved
	Categories map[string][]string // learned categories per column, sorted
}

// Fit learns the category set of each column from the frame.
func (e *OneHotEncoder) Fit(f *dataset.Frame) error {
	e.Categories = make(map[string][]string, len(e.Columns))
	for _, name := range e.Columns {
		c, ok := f.Col(name)
		if !ok || c.Kind != dataset.Categorical {
			return errors.Errorf("onehot: categorical column not found: %s", name)
		}
		seen := map[string]bool{}
		for _, v := range c.Strs {
			if v != "" {
				seen[v] = true
			}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		e.Categories[name] = cats
	}
	return nil
}

// Width returns the number of output columns.
func (e *OneHotEncoder) Width() int {
	w := 0
	for _, name := range e.Columns {
		w += len(e.Categories[name])
	}
	return w
}

// FeatureNames returns output column names as column_category, in
// the order Transform emits them.
func (e *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for _, name := range e.Columns {
		for _, cat := range e.Categories[name] {
			names = append(names, name+"_"+cat)
		}
	}
	return names
}

// Transform writes indicator values for row i of the frame into dst.
func (e *OneHotEncoder) transformRow(f *dataset.Frame, i int, dst []float64) error {
	pos := 0
	for _, name := range e.Columns {
		c, ok := f.Col(name)
		if !ok || c.Kind != dataset.Categorical {
			return errors.Errorf("onehot: categorical column not found: %s", name)
		}
		cats := e.Categories[name]
		for k, cat := range cats {
			if c.Strs[i] == cat {
				dst[pos+k] = 1
			} else {
				dst[pos+k] = 0
			}
		}
		pos += len(cats)
	}
	return nil
}

// StandardScaler scales numeric columns to zero mean and unit
// variance using statistics learned at fit time. A zero-variance
// column scales by 1 to avoid dividing by zero.
type StandardScaler struct {
	Columns []string
	Mean    []float64
	Std     []float64
}

// Fit learns per-column mean and standard deviation, ignoring NaN.
func (s *StandardScaler) Fit(f *dataset.Frame) error {
	s.Mean = make([]float64, len(s.Columns))
	s.Std = make([]float64, len(s.Columns))
	for j, name := range s.Columns {
		c, ok := f.Col(name)
		if !ok || c.Kind != dataset.Numeric {
			return errors.Errorf("scaler: numeric column not found: %s", name)
		}
		n := 0
		for _, v := range c.Nums {
			if !math.IsNaN(v) {
				s.Mean[j] += v
				n++
			}
		}
		if n == 0 {
			s.Std[j] = 1
			continue
		}
		s.Mean[j] /= float64(n)
		variance := 0.0
		for _, v := range c.Nums {
			if !math.IsNaN(v) {
				d := v - s.Mean[j]
				variance += d * d
			}
		}
		s.Std[j] = math.Sqrt(variance / float64(n))
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

func (s *StandardScaler) transformRow(f *dataset.Frame, i int, dst []float64) error {
	for j, name := range s.Columns {
		c, ok := f.Col(name)
		if !ok || c.Kind != dataset.Numeric {
			return errors.Errorf("scaler: numeric column not found: %s", name)
		}
		dst[j] = (c.Nums[i] - s.Mean[j]) / s.Std[j]
	}
	return nil
}

// ColumnTransformer composes the categorical and numeric branches
// into one structural transform. Output columns are the one-hot
// block followed by the scaled numeric block; any frame column not
// named in either branch is dropped.
type ColumnTransformer struct {
	Encoder *OneHotEncoder
	Scaler  *StandardScaler
}

// NewColumnTransformer builds the transformer for the given column
// lists; order within each list is preserved in the output.
func NewColumnTransformer(numeric, categorical []string) *ColumnTransformer {
	return &ColumnTransformer{
		Encoder: &OneHotEncoder{Columns: categorical},
		Scaler:  &StandardScaler{Columns: numeric},
	}
}

// Fit learns both branches from the frame.
func (t *ColumnTransformer) Fit(f *dataset.Frame) error {
	if err := t.Encoder.Fit(f); err != nil {
		return err
	}
	return t.Scaler.Fit(f)
}

// Transform produces the fixed-width numeric matrix for the frame.
func (t *ColumnTransformer) Transform(f *dataset.Frame) ([][]float64, error) {
	catWidth := t.Encoder.Width()
	width := catWidth + len(t.Scaler.Columns)

	out := make([][]float64, f.Rows())
	for i := range out {
		row := make([]float64, width)
		if err := t.Encoder.transformRow(f, i, row[:catWidth]); err != nil {
			return nil, err
		}
		if err := t.Scaler.transformRow(f, i, row[catWidth:]); err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// FeatureNames returns output column names: one-hot names first,
// then numeric column names, matching Transform's column order.
func (t *ColumnTransformer) FeatureNames() []string {
	names := t.Encoder.FeatureNames()
	return append(names, t.Scaler.Columns...)
}
