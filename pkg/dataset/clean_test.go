package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImputeMissing_NumericMedian(t *testing.T) {
	f := New()
	f.AddNumeric("v", []float64{1, math.NaN(), 3, 5})

	ImputeMissing(f)

	v, _ := f.Col("v")
	assert.Equal(t, []float64{1, 3, 3, 5}, v.Nums)
}

func TestImputeMissing_CategoricalMode(t *testing.T) {
	f := New()
	f.AddCategorical("c", []string{"Good", "", "Good", "Fair"})

	ImputeMissing(f)

	c, _ := f.Col("c")
	assert.Equal(t, []string{"Good", "Good", "Good", "Fair"}, c.Strs)
}

func TestRemovePriceOutliers(t *testing.T) {
	prices := []float64{100, 110, 105, 95, 102, 98, 104, 5000}
	f := New()
	f.AddNumeric("price", prices)
	f.AddCategorical("loc", []string{"a", "b", "c", "d", "e", "f", "g", "h"})

	RemovePriceOutliers(f, "price")

	p, _ := f.Col("price")
	assert.Len(t, p.Nums, 7)
	assert.NotContains(t, p.Nums, 5000.0)
	l, _ := f.Col("loc")
	assert.NotContains(t, l.Strs, "h")
}

func TestRemovePriceOutliers_MissingTarget(t *testing.T) {
	f := New()
	f.AddNumeric("v", []float64{1, 2, 3})

	RemovePriceOutliers(f, "price")
	assert.Equal(t, 3, f.Rows())
}

func TestDropNegatives(t *testing.T) {
	f := New()
	f.AddNumeric("price", []float64{100, -5, 200})
	f.AddNumeric("sqft", []float64{1000, 1500, 2000})

	DropNegatives(f, []string{"price", "sqft", "absent"})

	p, _ := f.Col("price")
	assert.Equal(t, []float64{100, 200}, p.Nums)
}

func TestDropDuplicates(t *testing.T) {
	f := New()
	f.AddNumeric("v", []float64{1, 2, 1, 3})
	f.AddCategorical("s", []string{"a", "b", "a", "a"})

	DropDuplicates(f)

	v, _ := f.Col("v")
	assert.Equal(t, []float64{1, 2, 3}, v.Nums)
}

func TestClean_IdempotentOnCleanData(t *testing.T) {
	f := New()
	f.AddNumeric("price", []float64{100, 110, 105, 95})
	f.AddNumeric("sqft", []float64{1000, 1100, 1050, 950})
	f.AddCategorical("location", []string{"Urban", "Rural", "Suburb", "Urban"})

	Clean(f)
	require.Equal(t, 4, f.Rows())

	Clean(f)
	assert.Equal(t, 4, f.Rows())
}
