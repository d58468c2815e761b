package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/user/product-image-scraper/internal/delivery/http/request"
	"github.com/user/product-image-scraper/internal/delivery/http/response"
	"github.com/user/product-image-scraper/internal/entity"
	"github.com/user/product-image-scraper/internal/usecase"
	"go.uber.org/zap"
)

// maxBodyBytes bounds the size of a submitted run.
const maxBodyBytes = 4 << 20

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	runManager usecase.RunManager
	checks     map[string]HealthCheck
	logger     *zap.Logger
}

// NewHandler creates the API handler. checks are run by the health endpoint,
// keyed by dependency name.
func NewHandler(runManager usecase.RunManager, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		runManager: runManager,
		checks:     checks,
		logger:     logger,
	}
}

func (h *Handler) HandleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitRunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.MaxPerProduct < 0 {
		h.writeJSONError(w, "max_per_product cannot be negative", http.StatusBadRequest)
		return
	}

	rows := make([]entity.ProductRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, entity.ProductRow{Reference: row.Reference, SourceURL: row.URL})
	}

	runID, err := h.runManager.Submit(r.Context(), rows, req.MaxPerProduct)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRun) {
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to submit run", zap.Int("rows", len(rows)), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitRunResponse{
		Status:  "accepted",
		Message: "Run queued for processing",
		RunID:   runID,
	})
}

func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		h.writeJSONError(w, "Run id is required", http.StatusBadRequest)
		return
	}

	state, err := h.runManager.GetStatus(r.Context(), runID)
	if err != nil {
		if errors.Is(err, usecase.ErrRunNotFound) {
			h.writeJSONError(w, "Run not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get run status", zap.String("run_id", runID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.RunStatusResponse{
		RunID:         state.RunID,
		CurrentStatus: string(state.CurrentStatus),
		FailureReason: state.FailureReason,
		Report:        state.Report,
	})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Error("health check failed", zap.String("dependency", name), zap.Error(err))
			status[name] = "unhealthy"
			status["status"] = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "healthy"
	}
	h.writeJSON(w, code, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
