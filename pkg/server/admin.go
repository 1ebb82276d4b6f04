package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/callisto/pkg/chat"
	"mercator-hq/callisto/pkg/chat/retention"
	"mercator-hq/callisto/pkg/chat/runlog"
)

// cleanupRequest is the optional body of POST /admin/cleanup.
type cleanupRequest struct {
	// RetentionHours overrides the configured default for this run only.
	RetentionHours *int `json:"retention_hours"`
}

// statsPayload is the wire shape of a run's stats.
type statsPayload struct {
	RetentionHours       int      `json:"retention_hours"`
	Cutoff               string   `json:"cutoff"`
	MessagesDeleted      int64    `json:"messages_deleted"`
	ConversationsDeleted int64    `json:"conversations_deleted"`
	Errors               []string `json:"errors"`
	DurationMS           int64    `json:"duration_ms"`
}

// cleanupResponse is the body of POST /admin/cleanup.
type cleanupResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Stats   *statsPayload `json:"stats,omitempty"`
}

func newStatsPayload(stats *chat.CleanupStats) *statsPayload {
	return &statsPayload{
		RetentionHours:       stats.RetentionHours,
		Cutoff:               stats.Cutoff.UTC().Format(time.RFC3339),
		MessagesDeleted:      stats.MessagesDeleted,
		ConversationsDeleted: stats.ConversationsDeleted,
		Errors:               stats.Errors,
		DurationMS:           stats.Duration.Milliseconds(),
	}
}

// handleCleanup serves POST /admin/cleanup. The optional JSON body may
// carry a retention_hours override for this run only; the configured
// default is otherwise used. Authentication has already happened in the
// middleware.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	retentionHours := s.cleaner.DefaultRetentionHours()

	if r.Body != nil && r.ContentLength != 0 {
		var req cleanupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, cleanupResponse{
				Success: false,
				Message: "invalid request body: " + err.Error(),
			})
			return
		}
		if req.RetentionHours != nil {
			retentionHours = *req.RetentionHours
		}
	}

	stats, err := s.cleaner.Run(r.Context(), retention.TriggerManual, retentionHours, time.Now().UTC())
	if err != nil {
		var invalidErr *retention.InvalidRetentionError
		switch {
		case errors.As(err, &invalidErr):
			writeJSON(w, http.StatusBadRequest, cleanupResponse{
				Success: false,
				Message: err.Error(),
			})
		case errors.Is(err, retention.ErrCleanupInProgress):
			writeJSON(w, http.StatusConflict, cleanupResponse{
				Success: false,
				Message: "cleanup already in progress",
			})
		default:
			slog.ErrorContext(r.Context(), "cleanup trigger failed",
				"error", err,
				"request_id", GetRequestID(r.Context()),
			)
			writeJSON(w, http.StatusInternalServerError, cleanupResponse{
				Success: false,
				Message: "cleanup failed",
			})
		}
		return
	}

	resp := cleanupResponse{
		Success: !stats.Failed(),
		Message: "cleanup completed",
		Stats:   newStatsPayload(stats),
	}
	if stats.Failed() {
		resp.Message = "cleanup completed with errors"
	}

	writeJSON(w, http.StatusOK, resp)
}

// runsResponse is the body of GET /admin/runs.
type runsResponse struct {
	Runs []*runlog.RunRecord `json:"runs"`
}

// handleRuns serves GET /admin/runs, listing recorded cleanup runs
// newest first. The limit query parameter bounds the result (default 20).
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.runs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "run history is disabled",
		})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	records, err := s.runs.List(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list cleanup runs",
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list runs",
		})
		return
	}
	if records == nil {
		records = []*runlog.RunRecord{}
	}

	writeJSON(w, http.StatusOK, runsResponse{Runs: records})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
