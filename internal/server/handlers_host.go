package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-git/go-billy/v5/memfs"
)

// handleProvisionFilesystem registers a fresh in-memory sandboxed
// filesystem under a host-chosen identifier. Commands reference it by id
// through the filesystem argument.
func (s *Server) handleProvisionFilesystem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	s.filesystems.Provision(req.ID, memfs.New())
	s.log.Info().Str("filesystem", req.ID).Msg("filesystem provisioned")
	writeJSON(w, http.StatusOK, map[string]any{"id": req.ID})
}

// handleIngestRemote pre-fetches a remote repository into the shared clone
// sources, so later clone commands against its URL resolve offline.
func (s *Server) handleIngestRemote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	if err := s.sessions.IngestRemote(r.Context(), req.Name, req.URL); err != nil {
		s.log.Error().Err(err).Str("url", req.URL).Msg("remote ingest failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.log.Info().Str("url", req.URL).Msg("remote ingested")
	writeJSON(w, http.StatusOK, map[string]any{"url": req.URL, "name": req.Name})
}
