package serve

import (
	"log/slog"

	"github.com/pkg/errors"
)

const (
	yearBuiltMin = 1800
	yearBuiltMax = 2025
)

// ErrInvalidInput marks a request schema violation; handlers surface
// it as a client-side failure.
var ErrInvalidInput = errors.New("invalid input")

// advisory category sets: the encoder tolerates unseen values, so an
// unknown location or condition is logged, never rejected
var (
	knownLocations  = []string{"Downtown", "Mountain", "Rural", "Suburb", "Urban", "Waterfront"}
	knownConditions = []string{"Excellent", "Good", "Fair", "Poor"}
)

// PredictionRequest is one house to price.
type PredictionRequest struct {
	Sqft       float64  `json:"sqft"`
	Bedrooms   int      `json:"bedrooms"`
	Bathrooms  float64  `json:"bathrooms"`
	Location   string   `json:"location"`
	YearBuilt  int      `json:"year_built"`
	Condition  string   `json:"condition"`
	TotalRooms *float64 `json:"total_rooms,omitempty"`
}

// Validate enforces the request schema. Categorical values are
// checked advisorily only.
func (r *PredictionRequest) Validate() error {
	if r.Sqft <= 0 {
		return errors.Wrap(ErrInvalidInput, "sqft must be positive")
	}
	if r.Bedrooms < 1 {
		return errors.Wrap(ErrInvalidInput, "bedrooms must be at least 1")
	}
	if r.Bathrooms <= 0 {
		return errors.Wrap(ErrInvalidInput, "bathrooms must be positive")
	}
	if r.YearBuilt < yearBuiltMin || r.YearBuilt > yearBuiltMax {
		return errors.Wrapf(ErrInvalidInput, "year_built must be between %d and %d", yearBuiltMin, yearBuiltMax)
	}
	if r.Location == "" {
		return errors.Wrap(ErrInvalidInput, "location is required")
	}
	if r.Condition == "" {
		return errors.Wrap(ErrInvalidInput, "condition is required")
	}
	if !contains(knownLocations, r.Location) {
		slog.Debug("unknown location, encoder will zero-encode it", "location", r.Location)
	}
	if !contains(knownConditions, r.Condition) {
		slog.Debug("unknown condition, encoder will zero-encode it", "condition", r.Condition)
	}
	return nil
}

// PredictionResponse is the single-prediction result. The confidence
// interval is a fixed ±10% heuristic band around the point estimate,
// not a statistical interval.
type PredictionResponse struct {
	PredictedPrice     float64            `json:"predicted_price"`
	ConfidenceInterval []float64          `json:"confidence_interval"`
	FeaturesImportance map[string]float64 `json:"features_importance"`
	PredictionTime     string             `json:"prediction_time"`
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
