// Package session holds the per-host-session state shared across sequential
// commands: the single open repository handle and the command history.
package session

import (
	"errors"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
)

// ErrHandleOpen is returned by SetRepo when the slot is already occupied.
// Only a clone may transition the slot from empty to open, and never over
// an existing handle.
var ErrHandleOpen = errors.New("a repository handle is already open in this session")

// HistoryEntry records one dispatched command.
type HistoryEntry struct {
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail,omitempty"`
	Code      int       `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the unit of command serialization. It owns the repository
// handle exclusively; commands get at it only through Repo/SetRepo/CloseRepo
// while holding the session lock via the dispatcher.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	repo     *gogit.Repository
	repoPath string
	history  []HistoryEntry
}

// Lock serializes command execution for the session. The native engine is
// not assumed reentrant, so the dispatcher holds this for a full
// parse-then-run cycle.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Repo returns the open repository handle, nil if none is open.
// Callers must hold the session lock.
func (s *Session) Repo() *gogit.Repository { return s.repo }

// RepoPath returns the mount-relative path the open handle was cloned into.
func (s *Session) RepoPath() string { return s.repoPath }

// SetRepo stores a newly opened handle into the slot. It refuses to
// overwrite an open handle; that is a caller-ordering violation, not a
// replace. Callers must hold the session lock.
func (s *Session) SetRepo(repo *gogit.Repository, path string) error {
	if s.repo != nil {
		return ErrHandleOpen
	}
	s.repo = repo
	s.repoPath = path
	return nil
}

// CloseRepo empties the handle slot. go-git handles hold no OS resources,
// so closing is dropping the reference; the session simply forgets it.
func (s *Session) CloseRepo() {
	s.repo = nil
	s.repoPath = ""
}

// Record appends a history entry for a dispatched command.
// Callers must hold the session lock.
func (s *Session) Record(subject, detail string, code int) {
	s.history = append(s.history, HistoryEntry{
		Subject:   subject,
		Detail:    detail,
		Code:      code,
		Timestamp: time.Now(),
	})
}

// History returns a copy of the command history.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}
