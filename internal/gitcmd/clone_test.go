package gitcmd

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMissingArguments(t *testing.T) {
	d, sessions, _ := newTestEnv(t)
	sess := sessions.Create("s1")

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args:    map[string]any{"filesystem": "fs1"},
	})
	assert.Equal(t, int(CodeMissingArgument), resp.Error)
	assert.Nil(t, sess.Repo())
}

func TestCloneWrongArgumentType(t *testing.T) {
	d, sessions, _ := newTestEnv(t)
	sess := sessions.Create("s1")

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args:    map[string]any{"url": 12, "filesystem": "fs1"},
	})
	assert.Equal(t, int(CodeInvalidArgumentType), resp.Error)
	assert.Nil(t, sess.Repo())
}

func TestCloneUnprovisionedFilesystem(t *testing.T) {
	d, sessions, _ := newTestEnv(t)
	sess := sessions.Create("s1")

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args:    map[string]any{"url": fixtureURL, "filesystem": "ghost"},
	})
	assert.Equal(t, int(CodeFilesystemResolution), resp.Error)
	assert.Nil(t, sess.Repo())
}

func TestCloneFromSharedRemote(t *testing.T) {
	d, sessions, filesystems := newTestEnv(t)
	sess := sessions.Create("s1")

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args:    map[string]any{"url": fixtureURL, "filesystem": "fs1"},
	})
	require.Equal(t, 0, resp.Error, "clone failed: %s", resp.Message)

	repo := sess.Repo()
	require.NotNil(t, repo, "handle slot should be populated")
	assert.Equal(t, "fixture", sess.RepoPath())

	// Worktree was checked out into the mount.
	fs, err := filesystems.Resolve("fs1")
	require.NoError(t, err)
	_, err = fs.Stat("fixture/README.md")
	assert.NoError(t, err, "checked-out file should exist in the sandbox")

	head, err := repo.Head()
	require.NoError(t, err)
	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, head.Hash().String(), result["head"])
}

func TestCloneExplicitPath(t *testing.T) {
	d, sessions, _ := newTestEnv(t)
	sess := sessions.Create("s1")

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args: map[string]any{
			"url": fixtureURL, "filesystem": "fs1", "path": "work/checkout",
		},
	})
	require.Equal(t, 0, resp.Error, "clone failed: %s", resp.Message)
	assert.Equal(t, "work/checkout", sess.RepoPath())
}

func TestCloneRefusesOpenHandle(t *testing.T) {
	d, sessions, _ := newTestEnv(t)
	sess := sessions.Create("s1")

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args:    map[string]any{"url": fixtureURL, "filesystem": "fs1", "path": "a"},
	})
	require.Equal(t, 0, resp.Error)
	first := sess.Repo()

	resp = d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args:    map[string]any{"url": fixtureURL, "filesystem": "fs1", "path": "b"},
	})
	assert.Equal(t, int(CodeHandleAlreadyOpen), resp.Error)
	assert.Same(t, first, sess.Repo(), "slot must stay untouched")
}

func TestClonePathCollision(t *testing.T) {
	d, sessions, filesystems := newTestEnv(t)
	sess := sessions.Create("s1")

	fs, err := filesystems.Resolve("fs1")
	require.NoError(t, err)
	require.NoError(t, util.WriteFile(fs, "fixture/stale.txt", []byte("x"), 0644))

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args:    map[string]any{"url": fixtureURL, "filesystem": "fs1"},
	})
	assert.Equal(t, int(CodeMountFailure), resp.Error)
	assert.Nil(t, sess.Repo())

	// Pre-existing content is not touched by the failed mount.
	_, err = fs.Stat("fixture/stale.txt")
	assert.NoError(t, err)
}

func TestCloneFailureRollsBackMount(t *testing.T) {
	d, sessions, filesystems := newTestEnv(t)
	sess := sessions.Create("s1")

	// Unresolvable URL with no shared remote: the engine clone fails after
	// the mount was prepared.
	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args: map[string]any{
			"url": "https://invalid.invalid/missing.git", "filesystem": "fs1",
		},
	})
	assert.Equal(t, int(CodeEngineClone), resp.Error)
	assert.Nil(t, sess.Repo())

	fs, err := filesystems.Resolve("fs1")
	require.NoError(t, err)
	_, err = fs.Stat("missing")
	assert.Error(t, err, "failed clone must not leave a partial tree behind")
}

func TestRepoNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		name string
	}{
		{"https://example.com/org/repo.git", "repo"},
		{"https://example.com/org/repo", "repo"},
		{"https://example.com/org/repo/", "repo"},
		{"git@example.com:org/tools.git", "tools"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.name, repoNameFromURL(tt.url))
		})
	}
}
