package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/oklog/ulid/v2"
)

// Manager tracks sessions and the shared remote repositories clones may
// resolve against without touching the network.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	remotes  map[string]*gogit.Repository
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		remotes:  make(map[string]*gogit.Repository),
	}
}

// Create returns the session registered under id, creating it if absent.
// An empty id gets a generated ULID. Creation is idempotent so a host
// reconnecting after a restart keeps its id.
func (m *Manager) Create(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = ulid.Make().String()
	}
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{ID: id, CreatedAt: time.Now()}
	m.sessions[id] = s
	return s
}

// Get retrieves a session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Lock()
		s.CloseRepo()
		s.Unlock()
		delete(m.sessions, id)
	}
}

// IngestRemote fetches url into an in-memory bare repository and registers
// it under both name and url, so later clones against either resolve
// offline. Re-ingesting a name replaces the previous registration.
func (m *Manager) IngestRemote(ctx context.Context, name, url string) error {
	repo, err := gogit.CloneContext(ctx, memory.NewStorage(), nil, &gogit.CloneOptions{
		URL: url,
	})
	if err != nil {
		return fmt.Errorf("ingest remote %q: %w", url, err)
	}
	m.AddSharedRemote(url, repo)
	if name != "" && name != url {
		m.AddSharedRemote(name, repo)
	}
	return nil
}

// AddSharedRemote registers repo as a clone source under key.
func (m *Manager) AddSharedRemote(key string, repo *gogit.Repository) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remotes[key] = repo
}

// SharedRemote looks up a registered clone source.
func (m *Manager) SharedRemote(key string) (*gogit.Repository, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.remotes[key]
	return r, ok
}
