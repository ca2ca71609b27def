// Package features owns the derived-feature formulas. Training-time
// engineering and inference-time reconstruction both go through this
// package so the two can never drift apart.
package features

import (
	"math"
	"time"
)

// Derived column names.
const (
	ColHouseAge     = "house_age"
	ColBedBathRatio = "bed_bath_ratio"
	ColTotalRooms   = "total_rooms"
	ColPricePerSqft = "price_per_sqft"
)

// CurrentYear is the reference year for HouseAge.
func CurrentYear() int {
	return time.Now().Year()
}

// HouseAge returns currentYear - yearBuilt.
func HouseAge(currentYear int, yearBuilt float64) float64 {
	return float64(currentYear) - yearBuilt
}

// BedBathRatio returns bedrooms / bathrooms, NaN when bathrooms is zero.
func BedBathRatio(bedrooms, bathrooms float64) float64 {
	if bathrooms == 0 {
		return math.NaN()
	}
	return bedrooms / bathrooms
}

// TotalRooms returns bedrooms + bathrooms.
func TotalRooms(bedrooms, bathrooms float64) float64 {
	return bedrooms + bathrooms
}

// PricePerSqft returns price / sqft, NaN when sqft is zero. At
// training time price is the true price; at inference time the
// predicted price is used and the value is informational only.
func PricePerSqft(price, sqft float64) float64 {
	if sqft == 0 {
		return math.NaN()
	}
	return price / sqft
}
