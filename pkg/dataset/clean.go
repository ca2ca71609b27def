package dataset

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
)

const iqrWhisker = 1.5

// columns where a negative value can only be an entry error
var nonNegativeColumns = []string{"price", "sqft", "bedrooms", "bathrooms", "year_built"}

// Clean applies the standard cleaning steps in order: impute missing
// values, drop price outliers (IQR), drop rows with negative values in
// known non-negative columns, and drop duplicate rows.
func Clean(f *Frame) {
	ImputeMissing(f)
	RemovePriceOutliers(f, "price")
	DropNegatives(f, nonNegativeColumns)
	DropDuplicates(f)
}

// ImputeMissing fills missing cells column by column: numeric columns
// with the column median, categorical columns with the mode.
func ImputeMissing(f *Frame) {
	for _, name := range f.Names() {
		c, _ := f.Col(name)
		if c.Kind == Numeric {
			med, any := medianPresent(c.Nums)
			if !any {
				continue
			}
			for i, v := range c.Nums {
				if math.IsNaN(v) {
					c.Nums[i] = med
				}
			}
		} else {
			mode := modePresent(c.Strs)
			for i, v := range c.Strs {
				if v == "" {
					c.Strs[i] = mode
				}
			}
		}
	}
}

// RemovePriceOutliers drops rows whose target value falls outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR]. Missing or non-numeric target means
// the step is skipped.
func RemovePriceOutliers(f *Frame, target string) {
	c, ok := f.Col(target)
	if !ok || c.Kind != Numeric {
		slog.Debug("skipping outlier removal, target missing or non-numeric", "target", target)
		return
	}
	q1 := percentile(c.Nums, 25)
	q3 := percentile(c.Nums, 75)
	iqr := q3 - q1
	lower, upper := q1-iqrWhisker*iqr, q3+iqrWhisker*iqr

	mask := make([]bool, len(c.Nums))
	dropped := 0
	for i, v := range c.Nums {
		mask[i] = v >= lower && v <= upper
		if !mask[i] {
			dropped++
		}
	}
	if dropped > 0 {
		slog.Info("dropped price outliers", "rows", dropped, "lower", lower, "upper", upper)
		f.keep(mask)
	}
}

// DropNegatives removes rows holding a negative value in any of the
// given numeric columns. Columns absent from the frame are ignored.
func DropNegatives(f *Frame, cols []string) {
	mask := make([]bool, f.Rows())
	for i := range mask {
		mask[i] = true
	}
	dropped := 0
	for _, name := range cols {
		c, ok := f.Col(name)
		if !ok || c.Kind != Numeric {
			continue
		}
		for i, v := range c.Nums {
			if mask[i] && v < 0 {
				mask[i] = false
				dropped++
			}
		}
	}
	if dropped > 0 {
		slog.Info("dropped rows with negative values", "rows", dropped)
		f.keep(mask)
	}
}

// DropDuplicates removes rows that are exact duplicates of an earlier row.
func DropDuplicates(f *Frame) {
	seen := make(map[string]bool, f.Rows())
	mask := make([]bool, f.Rows())
	dropped := 0
	var b strings.Builder
	for i := 0; i < f.Rows(); i++ {
		b.Reset()
		for _, name := range f.Names() {
			c, _ := f.Col(name)
			if c.Kind == Numeric {
				fmt.Fprintf(&b, "%v|", c.Nums[i])
			} else {
				b.WriteString(c.Strs[i])
				b.WriteByte('|')
			}
		}
		key := b.String()
		mask[i] = !seen[key]
		if seen[key] {
			dropped++
		}
		seen[key] = true
	}
	if dropped > 0 {
		slog.Info("dropped duplicate rows", "rows", dropped)
		f.keep(mask)
	}
}

// medianPresent returns the median of the non-NaN values and whether
// any were present.
func medianPresent(vals []float64) (float64, bool) {
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return 0, false
	}
	return percentile(present, 50), true
}

func modePresent(vals []string) string {
	counts := map[string]int{}
	for _, v := range vals {
		if v != "" {
			counts[v]++
		}
	}
	mode, best := "", 0
	for v, n := range counts {
		if n > best || (n == best && v < mode) {
			mode, best = v, n
		}
	}
	return mode
}

// percentile computes the p-th percentile using linear interpolation,
// ignoring NaN values.
func percentile(vals []float64, p float64) float64 {
	sorted := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
