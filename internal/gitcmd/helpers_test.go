package gitcmd

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/rs/zerolog"

	"github.com/tsubomi-dev/gitbridge/internal/hostfs"
	"github.com/tsubomi-dev/gitbridge/internal/session"
)

// newFixtureRemote builds an in-memory repository with one commit, usable
// as a shared clone source.
func newFixtureRemote(t *testing.T) *gogit.Repository {
	t.Helper()

	fs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), fs)
	if err != nil {
		t.Fatalf("init fixture: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("fixture worktree: %v", err)
	}
	if err := util.WriteFile(fs, "README.md", []byte("fixture\n"), 0644); err != nil {
		t.Fatalf("write fixture file: %v", err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatalf("stage fixture file: %v", err)
	}
	if _, err := wt.Commit("initial import", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Fixture", Email: "fixture@example.com", When: time.Now()},
	}); err != nil {
		t.Fatalf("commit fixture: %v", err)
	}
	return repo
}

const fixtureURL = "https://example.com/fixture.git"

// newTestEnv wires a dispatcher with one provisioned filesystem ("fs1") and
// a shared remote registered under fixtureURL.
func newTestEnv(t *testing.T) (*Dispatcher, *session.Manager, *hostfs.Registry) {
	t.Helper()

	sessions := session.NewManager()
	sessions.AddSharedRemote(fixtureURL, newFixtureRemote(t))

	filesystems := hostfs.NewRegistry()
	filesystems.Provision("fs1", memfs.New())

	return NewDispatcher(filesystems, sessions, zerolog.Nop()), sessions, filesystems
}
