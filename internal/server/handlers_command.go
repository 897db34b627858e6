package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tsubomi-dev/gitbridge/internal/gitcmd"
)

// CommandRequest is the host request envelope: which session, which
// operation, and the untyped argument bag.
type CommandRequest struct {
	SessionID string         `json:"sessionId"`
	Subject   string         `json:"subject"`
	Args      map[string]any `json:"args"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}
	if req.Subject == "" {
		writeError(w, http.StatusBadRequest, "subject is required")
		return
	}

	// An unknown session is recreated rather than rejected; a fresh session
	// simply has no open repository yet.
	sess := s.sessions.Create(req.SessionID)

	resp := s.dispatcher.Dispatch(r.Context(), sess, gitcmd.Request{
		Subject: req.Subject,
		Args:    req.Args,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
			return
		}
	}
	sess := s.sessions.Create(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": sess.ID,
		"createdAt": sess.CreatedAt,
	})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": sess.ID,
		"history":   sess.History(),
	})
}

func (s *Server) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s.sessions.Remove(id)
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": id})
}
