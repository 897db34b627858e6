package gitcmd

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsubomi-dev/gitbridge/internal/session"
)

func commitArgs(msg string) map[string]any {
	return map[string]any{"message": msg, "author": "Dev", "email": "dev@example.com"}
}

// cloneFixture runs a clone so the session has an open handle.
func cloneFixture(t *testing.T, d *Dispatcher, sess *session.Session) {
	t.Helper()
	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectClone,
		Args:    map[string]any{"url": fixtureURL, "filesystem": "fs1"},
	})
	require.Equal(t, 0, resp.Error, "clone failed: %s", resp.Message)
}

func TestCommitWithoutOpenRepository(t *testing.T) {
	d, sessions, _ := newTestEnv(t)
	sess := sessions.Create("s1")

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectCommit,
		Args:    commitArgs("fix"),
	})
	assert.Equal(t, int(CodeNoOpenRepository), resp.Error)
}

func TestCommitMissingIdentity(t *testing.T) {
	d, sessions, _ := newTestEnv(t)
	sess := sessions.Create("s1")
	cloneFixture(t, d, sess)

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectCommit,
		Args:    map[string]any{"message": "fix"},
	})
	assert.Equal(t, int(CodeMissingArgument), resp.Error)
	assert.Contains(t, resp.Message, "author")
	assert.Contains(t, resp.Message, "email")
}

func TestCommitRoundTrip(t *testing.T) {
	d, sessions, _ := newTestEnv(t)
	sess := sessions.Create("s1")
	cloneFixture(t, d, sess)

	repo := sess.Repo()
	cloneHead, err := repo.Head()
	require.NoError(t, err)

	// Stage a change in the checked-out worktree.
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, util.WriteFile(wt.Filesystem, "notes.txt", []byte("hello\n"), 0644))
	_, err = wt.Add("notes.txt")
	require.NoError(t, err)

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectCommit,
		Args:    commitArgs("add notes"),
	})
	require.Equal(t, 0, resp.Error, "commit failed: %s", resp.Message)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, cloneHead.Hash().String(), result["parent"])

	newHead, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, newHead.Hash().String(), result["commit"])

	commit, err := repo.CommitObject(newHead.Hash())
	require.NoError(t, err)
	assert.Equal(t, "add notes", commit.Message)
	assert.Equal(t, "Dev", commit.Author.Name)
	require.Len(t, commit.ParentHashes, 1)
	assert.Equal(t, cloneHead.Hash(), commit.ParentHashes[0])
}

func TestCommitEmptyIndexLeavesBranchUntouched(t *testing.T) {
	d, sessions, _ := newTestEnv(t)
	sess := sessions.Create("s1")
	cloneFixture(t, d, sess)

	repo := sess.Repo()
	before, err := repo.Head()
	require.NoError(t, err)

	resp := d.Dispatch(context.Background(), sess, Request{
		Subject: SubjectCommit,
		Args:    commitArgs("nothing staged"),
	})
	assert.Equal(t, int(CodeEngineCommit), resp.Error)

	after, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, before.Hash(), after.Hash(), "branch reference must not advance on failure")
}
