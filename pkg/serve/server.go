package serve

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// MaxBatchSize is the caller-facing ceiling on batch requests.
const MaxBatchSize = 100

type errorResponse struct {
	Detail string `json:"detail"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// NewRouter wires the inference engine into the HTTP API. The engine
// is passed in fully loaded; a process that failed to load never gets
// this far, so /health implies a usable model.
func NewRouter(e *Engine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", ModelLoaded: true})
	})
	r.Post("/predict", predictHandler(e))
	r.Post("/batch-predict", batchPredictHandler(e))
	return r
}

func predictHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PredictionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := e.PredictOne(&req)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		slog.Info("prediction completed", "price", resp.PredictedPrice)
		writeJSON(w, http.StatusOK, resp)
	}
}

func batchPredictHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reqs []PredictionRequest
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(reqs) > MaxBatchSize {
			writeError(w, http.StatusBadRequest, "batch size too large, maximum 100 items allowed")
			return
		}

		prices, err := e.PredictBatch(reqs)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		slog.Info("batch prediction completed", "items", len(prices))
		writeJSON(w, http.StatusOK, prices)
	}
}

// writeEngineError maps engine failures onto status codes: validation
// and prediction errors are the caller's problem (400); anything else
// is reported opaquely (500) with the detail logged, not leaked.
func writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrPrediction) {
		slog.Error("prediction error", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		slog.Warn("validation error", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("unexpected error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
