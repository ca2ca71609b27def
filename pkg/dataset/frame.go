package dataset

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies how a column's values are stored.
type Kind int

const (
	// Numeric columns hold float64 values, NaN marks a missing cell.
	Numeric Kind = iota
	// Categorical columns hold strings, "" marks a missing cell.
	Categorical
)

// Column is a single named column of a Frame.
type Column struct {
	Name string
	Kind Kind
	Nums []float64
	Strs []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Nums)
	}
	return len(c.Strs)
}

// Frame is an ordered collection of named columns, all of equal length.
type Frame struct {
	cols []*Column
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{}
}

// AddNumeric appends a numeric column. An existing column with the
// same name is replaced in place, preserving column order.
func (f *Frame) AddNumeric(name string, vals []float64) {
	f.add(&Column{Name: name, Kind: Numeric, Nums: vals})
}

// AddCategorical appends a categorical column, replacing any existing
// column with the same name.
func (f *Frame) AddCategorical(name string, vals []string) {
	f.add(&Column{Name: name, Kind: Categorical, Strs: vals})
}

func (f *Frame) add(c *Column) {
	for i, existing := range f.cols {
		if existing.Name == c.Name {
			f.cols[i] = c
			return
		}
	}
	f.cols = append(f.cols, c)
}

// Col returns the named column, or false when absent.
func (f *Frame) Col(name string) (*Column, bool) {
	for _, c := range f.cols {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Has indicates whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.Col(name)
	return ok
}

// Names returns column names in frame order.
func (f *Frame) Names() []string {
	names := make([]string, 0, len(f.cols))
	for _, c := range f.cols {
		names = append(names, c.Name)
	}
	return names
}

// Rows returns the number of rows in the frame.
func (f *Frame) Rows() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// Select returns a new frame holding only the named columns, in the
// given order. Names absent from the frame are skipped; the caller is
// expected to check Has first when absence matters.
func (f *Frame) Select(names []string) *Frame {
	out := New()
	for _, n := range names {
		if c, ok := f.Col(n); ok {
			out.cols = append(out.cols, c)
		}
	}
	return out
}

// Drop returns a new frame without the named column.
func (f *Frame) Drop(name string) *Frame {
	out := New()
	for _, c := range f.cols {
		if c.Name != name {
			out.cols = append(out.cols, c)
		}
	}
	return out
}

// SplitKinds partitions column names into numeric and categorical,
// preserving frame order within each group.
func (f *Frame) SplitKinds() (numeric, categorical []string) {
	for _, c := range f.cols {
		if c.Kind == Numeric {
			numeric = append(numeric, c.Name)
		} else {
			categorical = append(categorical, c.Name)
		}
	}
	return
}

// Take returns a new frame holding copies of the given rows, in the
// given order.
func (f *Frame) Take(rows []int) *Frame {
	out := New()
	for _, c := range f.cols {
		if c.Kind == Numeric {
			vals := make([]float64, len(rows))
			for k, i := range rows {
				vals[k] = c.Nums[i]
			}
			out.AddNumeric(c.Name, vals)
		} else {
			vals := make([]string, len(rows))
			for k, i := range rows {
				vals[k] = c.Strs[i]
			}
			out.AddCategorical(c.Name, vals)
		}
	}
	return out
}

// keep filters rows in place, retaining row i when mask[i] is true.
func (f *Frame) keep(mask []bool) {
	for _, c := range f.cols {
		if c.Kind == Numeric {
			kept := c.Nums[:0]
			for i, v := range c.Nums {
				if mask[i] {
					kept = append(kept, v)
				}
			}
			c.Nums = kept
		} else {
			kept := c.Strs[:0]
			for i, v := range c.Strs {
				if mask[i] {
					kept = append(kept, v)
				}
			}
			c.Strs = kept
		}
	}
}

// StandardizeName normalizes a column name the same way for CSV
// headers and config feature lists: trim, lowercase, spaces to
// underscores.
func StandardizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// ReadCSV loads a CSV file into a frame. Column types are inferred:
// a column is numeric when every non-empty cell parses as a float.
// Empty cells become NaN (numeric) or "" (categorical).
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening dataset: %s", path)
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading dataset: %s", path)
	}
	if len(records) < 1 {
		return nil, errors.Errorf("dataset has no header row: %s", path)
	}

	header := records[0]
	rows := records[1:]
	f := New()

	for j, raw := range header {
		name := StandardizeName(raw)
		numeric := true
		for _, rec := range rows {
			cell := strings.TrimSpace(rec[j])
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
				break
			}
		}
		if numeric {
			vals := make([]float64, len(rows))
			for i, rec := range rows {
				cell := strings.TrimSpace(rec[j])
				if cell == "" {
					vals[i] = math.NaN()
					continue
				}
				vals[i], _ = strconv.ParseFloat(cell, 64)
			}
			f.AddNumeric(name, vals)
		} else {
			vals := make([]string, len(rows))
			for i, rec := range rows {
				vals[i] = strings.TrimSpace(rec[j])
			}
			f.AddCategorical(name, vals)
		}
	}
	return f, nil
}

// WriteCSV persists the frame as a CSV file with a header row.
func (f *Frame) WriteCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "error creating file: %s", path)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(f.Names()); err != nil {
		return errors.Wrap(err, "error writing header")
	}

	rec := make([]string, len(f.cols))
	for i := 0; i < f.Rows(); i++ {
		for j, c := range f.cols {
			if c.Kind == Numeric {
				if math.IsNaN(c.Nums[i]) {
					rec[j] = ""
				} else {
					rec[j] = strconv.FormatFloat(c.Nums[i], 'f', -1, 64)
				}
			} else {
				rec[j] = c.Strs[i]
			}
		}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, "error writing row")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "error flushing csv")
}
