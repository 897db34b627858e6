// Package hostfs mediates access to host-provisioned sandboxed filesystems.
//
// The host provisions filesystems under string identifiers; commands resolve
// an identifier plus an optional path suffix into a scoped Mount. The
// registry never creates filesystems on demand: an unknown identifier is a
// resolution failure the host must remediate by provisioning.
package hostfs

import (
	"fmt"
	"sync"

	"github.com/go-git/go-billy/v5"
)

// Registry maps host-assigned identifiers to live filesystem capabilities.
type Registry struct {
	mu     sync.RWMutex
	mounts map[string]billy.Filesystem
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mounts: make(map[string]billy.Filesystem)}
}

// Provision registers fs under id, replacing any previous registration.
func (r *Registry) Provision(id string, fs billy.Filesystem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounts[id] = fs
}

// Revoke removes the registration for id.
func (r *Registry) Revoke(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mounts, id)
}

// Resolve returns the live filesystem provisioned under id.
func (r *Registry) Resolve(id string) (billy.Filesystem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fs, ok := r.mounts[id]
	if !ok {
		return nil, fmt.Errorf("filesystem %q is not provisioned", id)
	}
	if fs == nil {
		return nil, fmt.Errorf("filesystem %q is no longer mounted", id)
	}
	return fs, nil
}

// IDs lists the provisioned identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.mounts))
	for id := range r.mounts {
		ids = append(ids, id)
	}
	return ids
}
