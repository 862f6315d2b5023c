package server

import (
	"encoding/json"
	"net/http"
)

// handleRoot returns service information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.errorResponse(w, http.StatusNotFound, "not found: "+r.URL.Path)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": s.config.Name,
		"version": s.config.Version,
		"urls":    s.config.URLs,
		"endpoints": map[string]string{
			"health": "GET /health",
			"config": "GET /config",
		},
	})
}

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": s.config.Name,
	})
}

// handleConfig returns the effective settings
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.settings.Map())
}

func (s *Server) errorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"error":  true,
		"detail": message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
