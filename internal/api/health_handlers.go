package api

import (
	"net/http"
	"sort"

	"github.com/vytor/studyflash/internal/logger"
)

// handleHealth returns a liveness probe - always returns 200 OK.
// This endpoint indicates the server process is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, userFromContext(r.Context()))
}

// handleReady returns a readiness probe. It reports 503 when the database
// or any registered dependency check fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	failed := map[string]string{}
	if s.DB != nil {
		if err := s.DB.PingContext(ctx); err != nil {
			failed["database"] = err.Error()
		}
	}

	names := make([]string, 0, len(s.Checks))
	for name := range s.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.Checks[name](ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		log := logger.FromContext(ctx)
		for name, msg := range failed {
			log.Warn("readiness check failed - %s: %s", name, msg)
		}
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
