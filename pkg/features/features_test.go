package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtyml/hpctl/pkg/dataset"
)

func TestHouseAge(t *testing.T) {
	assert.Equal(t, 26.0, HouseAge(2026, 2000))
	assert.Equal(t, 0.0, HouseAge(2026, 2026))
}

func TestBedBathRatio(t *testing.T) {
	assert.Equal(t, 1.5, BedBathRatio(3, 2))
	assert.True(t, math.IsNaN(BedBathRatio(3, 0)))
}

func TestTotalRooms(t *testing.T) {
	assert.Equal(t, 5.0, TotalRooms(3, 2))
}

func TestPricePerSqft(t *testing.T) {
	assert.Equal(t, 200.0, PricePerSqft(300000, 1500))
	assert.True(t, math.IsNaN(PricePerSqft(300000, 0)))
}

func TestEngineer_AddsDerivedColumns(t *testing.T) {
	f := dataset.New()
	f.AddNumeric("price", []float64{300000, 450000})
	f.AddNumeric("sqft", []float64{1500, 2250})
	f.AddNumeric("bedrooms", []float64{3, 4})
	f.AddNumeric("bathrooms", []float64{2, 2})
	f.AddNumeric("year_built", []float64{2000, 1990})

	Engineer(f)

	ppsf, ok := f.Col(ColPricePerSqft)
	require.True(t, ok)
	assert.Equal(t, []float64{200, 200}, ppsf.Nums)

	ratio, ok := f.Col(ColBedBathRatio)
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 2}, ratio.Nums)

	rooms, ok := f.Col(ColTotalRooms)
	require.True(t, ok)
	assert.Equal(t, []float64{5, 6}, rooms.Nums)

	age, ok := f.Col(ColHouseAge)
	require.True(t, ok)
	year := float64(CurrentYear())
	assert.Equal(t, []float64{year - 2000, year - 1990}, age.Nums)
}

func TestEngineer_PartialColumns(t *testing.T) {
	f := dataset.New()
	f.AddNumeric("sqft", []float64{1500})

	Engineer(f)

	assert.False(t, f.Has(ColPricePerSqft))
	assert.False(t, f.Has(ColBedBathRatio))
	assert.False(t, f.Has(ColHouseAge))
}

// the inference path must produce the exact same values as the
// engineering path for the shared formulas
func TestEngineer_FormulasMatchDirectCalls(t *testing.T) {
	f := dataset.New()
	f.AddNumeric("bedrooms", []float64{3})
	f.AddNumeric("bathrooms", []float64{2})
	f.AddNumeric("year_built", []float64{2000})

	Engineer(f)

	ratio, _ := f.Col(ColBedBathRatio)
	assert.Equal(t, BedBathRatio(3, 2), ratio.Nums[0])
	rooms, _ := f.Col(ColTotalRooms)
	assert.Equal(t, TotalRooms(3, 2), rooms.Nums[0])
	age, _ := f.Col(ColHouseAge)
	assert.Equal(t, HouseAge(CurrentYear(), 2000), age.Nums[0])
}
