package features

import (
	"log/slog"
	"math"

	"github.com/realtyml/hpctl/pkg/dataset"
)

// Engineer adds the deterministic derived columns to a cleaned frame.
// Each derivation is applied only when its source columns are present,
// so the step is safe on partial datasets.
func Engineer(f *dataset.Frame) {
	n := f.Rows()

	price, hasPrice := numeric(f, "price")
	sqft, hasSqft := numeric(f, "sqft")
	if hasPrice && hasSqft {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = PricePerSqft(price[i], sqft[i])
		}
		f.AddNumeric(ColPricePerSqft, vals)
	}

	bedrooms, hasBed := numeric(f, "bedrooms")
	bathrooms, hasBath := numeric(f, "bathrooms")
	if hasBed && hasBath {
		ratios := make([]float64, n)
		rooms := make([]float64, n)
		for i := range ratios {
			ratios[i] = BedBathRatio(bedrooms[i], bathrooms[i])
			rooms[i] = TotalRooms(bedrooms[i], bathrooms[i])
		}
		f.AddNumeric(ColBedBathRatio, ratios)
		f.AddNumeric(ColTotalRooms, rooms)
	}

	if yearBuilt, ok := numeric(f, "year_built"); ok {
		year := CurrentYear()
		ages := make([]float64, n)
		for i := range ages {
			if math.IsNaN(yearBuilt[i]) {
				ages[i] = math.NaN()
				continue
			}
			ages[i] = HouseAge(year, yearBuilt[i])
		}
		f.AddNumeric(ColHouseAge, ages)
	} else {
		slog.Debug("year_built not present, skipping house_age")
	}
}

func numeric(f *dataset.Frame, name string) ([]float64, bool) {
	c, ok := f.Col(name)
	if !ok || c.Kind != dataset.Numeric {
		return nil, false
	}
	return c.Nums, true
}
