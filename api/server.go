// Package api serves the read-only monitoring surface of the session
// daemon: the live session status and the recorded episode history.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/plateworks/moab-session/internal/db"
	"github.com/plateworks/moab-session/internal/session"
)

type Server struct {
	sess  *session.Session
	store *db.Store
}

// NewServer creates an API server over the live session and the step
// store. store may be nil when recording is disabled.
func NewServer(sess *session.Session, store *db.Store) *Server {
	return &Server{sess: sess, store: store}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/episodes", s.listEpisodes)
	mux.HandleFunc("/steps", s.listSteps)
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statusResponse is the live status plus, when recording is enabled,
// the database schema version.
type statusResponse struct {
	session.Status
	SchemaVersion uint `json:"schema_version,omitempty"`
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := statusResponse{Status: s.sess.Snapshot()}
	if s.store != nil {
		if version, _, err := s.store.MigrateVersion(); err == nil {
			resp.SchemaVersion = version
		}
	}
	writeJSON(w, resp)
}

func (s *Server) listEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "Recording disabled", http.StatusNotFound)
		return
	}

	episodes, err := s.store.Episodes()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve episodes: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, episodes)
}

func (s *Server) listSteps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "Recording disabled", http.StatusNotFound)
		return
	}

	runID := r.URL.Query().Get("run")
	if runID == "" {
		runID = s.store.RunID()
	}
	episode, err := strconv.Atoi(r.URL.Query().Get("episode"))
	if err != nil {
		http.Error(w, "Invalid episode parameter", http.StatusBadRequest)
		return
	}

	steps, err := s.store.Steps(runID, episode)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve steps: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, steps)
}
