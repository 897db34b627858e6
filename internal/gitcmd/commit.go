package gitcmd

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"

	"github.com/tsubomi-dev/gitbridge/internal/session"
)

// CommitArgs are the validated arguments of a commit request.
type CommitArgs struct {
	Message string
	Author  string
	Email   string
}

// Commit records the session repository's staged index state as a new
// commit and advances the current branch reference. It only reads the
// handle slot; opening one is the clone operation's job.
type Commit struct {
	raw  *Args
	opts CommitArgs
}

// NewCommit builds an unparsed commit command over a host argument bag.
func NewCommit(args map[string]any) *Commit {
	return &Commit{raw: NewArgs(args)}
}

func (c *Commit) Subject() string { return SubjectCommit }

// ParseArgs extracts the commit message and author identity. All three
// fields are required; failures accumulate so the host sees every bad
// field at once.
func (c *Commit) ParseArgs() error {
	c.opts.Message = c.raw.NonEmptyString("message")
	c.opts.Author = c.raw.NonEmptyString("author")
	c.opts.Email = c.raw.NonEmptyString("email")
	return c.raw.Err()
}

// Run creates the commit. The engine writes the commit object before moving
// the branch reference, so a failure leaves the reference at its pre-call
// value with no intermediate state observable.
func (c *Commit) Run(ctx context.Context, sess *session.Session) (any, error) {
	repo := sess.Repo()
	if repo == nil {
		return nil, Errorf(CodeNoOpenRepository,
			"no repository is open in this session; clone first")
	}

	w, err := repo.Worktree()
	if err != nil {
		return nil, NewError(CodeEngineCommit, fmt.Errorf("open worktree: %w", err))
	}

	var parent string
	if head, err := repo.Head(); err == nil {
		parent = head.Hash().String()
	}

	hash, err := w.Commit(c.opts.Message, &gogit.CommitOptions{
		Author: newSignature(c.opts.Author, c.opts.Email),
	})
	if err != nil {
		if errors.Is(err, gogit.ErrEmptyCommit) {
			return nil, NewError(CodeEngineCommit,
				fmt.Errorf("nothing to commit: %w", err))
		}
		return nil, NewError(CodeEngineCommit, err)
	}

	result := map[string]any{"commit": hash.String()}
	if parent != "" {
		result["parent"] = parent
	}
	return result, nil
}
