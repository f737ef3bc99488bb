package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-contact-pipeline/internal/model"
	"go-contact-pipeline/internal/store"
)

// Runner executes one pipeline run. Satisfied by pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, sourceEndpoint string, extractTimeout time.Duration) model.RunOutcome
}

// RunStore is the narrow store contract required by the API: run history
// persistence and the error log.
type RunStore interface {
	SaveRun(ctx context.Context, sourceEndpoint string, outcome model.RunOutcome) error
	ListRuns(ctx context.Context) ([]store.RunSummary, error)
	GetRun(ctx context.Context, runID string) (store.RunSummary, error)
	GetRunErrors(ctx context.Context, runID string) ([]model.ErrorRecord, error)
}

// Handler adapts HTTP requests to pipeline runs. It performs no business
// logic beyond request validation and status mapping.
type Handler struct {
	runner Runner
	store  RunStore
}

func New(runner Runner, st RunStore) *Handler {
	return &Handler{runner: runner, store: st}
}

// RunPipeline runs the ETL pipeline synchronously against a source endpoint
// @Summary Run the pipeline
// @Description Extract records from the source endpoint, map them to contacts, and load them into the store. Per-record load failures are not retried within the run; resubmit the request to retry them.
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body model.RunRequest true "Source endpoint and optional timeout override"
// @Success 200 {object} model.RunOutcome "All records loaded"
// @Success 207 {object} model.RunOutcome "Partial failure"
// @Failure 400 {object} map[string]interface{} "Malformed request"
// @Failure 502 {object} model.RunOutcome "Extraction aborted"
// @Router /pipeline/run [post]
func (h *Handler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req model.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if req.SourceEndpoint == "" {
		writeError(w, http.StatusBadRequest, "sourceEndpoint is required")
		return
	}
	u, err := url.Parse(req.SourceEndpoint)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "sourceEndpoint must be an absolute http(s) URI")
		return
	}
	if req.TimeoutMs < 0 {
		writeError(w, http.StatusBadRequest, "timeoutMs must not be negative")
		return
	}

	outcome := h.runner.Run(r.Context(), req.SourceEndpoint, time.Duration(req.TimeoutMs)*time.Millisecond)

	// Detached context: run history must survive a client that disconnects
	// once the run is done.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.store.SaveRun(saveCtx, req.SourceEndpoint, outcome); err != nil {
		log.Printf("⚠️ Failed to persist run %s: %v", outcome.RequestID, err)
	}

	writeJSON(w, statusFor(outcome), outcome)
}

// statusFor maps an outcome to its HTTP status: 200 when nothing failed,
// 502 when extraction aborted the run, 207 for any partial failure.
func statusFor(outcome model.RunOutcome) int {
	switch {
	case outcome.State == model.StateAborted:
		return http.StatusBadGateway
	case outcome.FailedCount == 0:
		return http.StatusOK
	default:
		return http.StatusMultiStatus
	}
}

// ListRuns lists past pipeline runs
// @Summary List runs
// @Description Get all persisted pipeline runs, newest first
// @Tags pipeline
// @Produce json
// @Success 200 {array} store.RunSummary "Run history"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pipeline/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch runs")
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun fetches one past run
// @Summary Get run
// @Description Retrieve one persisted pipeline run by ID
// @Tags pipeline
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} store.RunSummary "Run details"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /pipeline/runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := pathParam(r.URL.Path, "/pipeline/runs/", "")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	run, err := h.store.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetRunErrors fetches the error log for one run
// @Summary Get run errors
// @Description Retrieve the error log entries recorded for one run
// @Tags pipeline
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Error log entries"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pipeline/runs/{id}/errors [get]
func (h *Handler) GetRunErrors(w http.ResponseWriter, r *http.Request) {
	runID := pathParam(r.URL.Path, "/pipeline/runs/", "/errors")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	errs, err := h.store.GetRunErrors(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch errors")
		return
	}
	if errs == nil {
		errs = []model.ErrorRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":  runID,
		"errors": errs,
		"count":  len(errs),
	})
}

// Health reports service liveness
// @Summary Health check
// @Tags pipeline
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is up"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// pathParam extracts the segment between prefix and suffix from a path.
func pathParam(path, prefix, suffix string) string {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	return path[len(prefix) : len(path)-len(suffix)]
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}
