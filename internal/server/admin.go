package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"interview-copilot/internal/cache"
	"interview-copilot/internal/logging"
)

// uploadLimit bounds the accepted FAQ upload size.
const uploadLimit = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debugf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleUploadFAQ validates an uploaded seed file, persists it, and
// reloads the cache from it (clear-then-bulk-load).
func (s *Server) handleUploadFAQ(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, uploadLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	// Validate the shape before persisting and before touching the
	// live cache.
	entries, err := cache.ParseSeed(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := os.WriteFile(s.seedPath, body, 0644); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist seed file")
		return
	}

	old, loaded, err := s.answers.Reload(r.Context(), entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logging.Infof("FAQ uploaded: %d entries replaced %d", loaded, old)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"old_count": old,
		"new_count": loaded,
	})
}

// handleReloadFAQ re-reads the persisted seed file into the cache.
func (s *Server) handleReloadFAQ(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	entries, err := cache.ReadSeedFile(s.seedPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	old, loaded, err := s.answers.Reload(r.Context(), entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.answers.ResetLatch()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"old_count": old,
		"new_count": loaded,
	})
}

// handleFAQStats reports cache totals and the most-asked question.
func (s *Server) handleFAQStats(w http.ResponseWriter, r *http.Request) {
	stats, ok, err := s.answers.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "empty"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleClearFAQ empties the cache.
func (s *Server) handleClearFAQ(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	n, err := s.answers.Clear(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

// handleSummaries returns the current resume and job summaries.
func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	resume, job, err := s.summaries.Both(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"resume_summary": resume,
		"job_summary":    job,
	})
}

// handleGenerateSummaries drops the cached summaries and recomputes
// both, returning the fresh pair.
func (s *Server) handleGenerateSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	s.summaries.Invalidate()
	resume, job, err := s.summaries.Both(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"resume_summary": resume,
		"job_summary":    job,
	})
}

// handleTranscript returns a room's archived turns.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "archive disabled")
		return
	}

	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = s.cfg.DefaultRoom
	}

	turns, err := s.archive.Turns(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room":  roomID,
		"turns": turns,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.answers.Len(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"cache_entries": n,
	})
}
