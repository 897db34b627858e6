package gitcmd

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/tsubomi-dev/gitbridge/internal/hostfs"
	"github.com/tsubomi-dev/gitbridge/internal/session"
)

// safeRepoNameRegex enforces alphanumeric target names when the directory
// is derived from the URL, to prevent traversal.
var safeRepoNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// CloneArgs are the validated arguments of a clone request.
type CloneArgs struct {
	URL          string
	FilesystemID string
	Path         string
}

// Clone fetches a remote repository into a mounted sandboxed filesystem and
// opens the session's repository handle. It is the only operation allowed
// to transition the handle slot from empty to open.
type Clone struct {
	raw         *Args
	filesystems *hostfs.Registry
	remotes     RemoteSource

	opts     CloneArgs
	fs       billy.Filesystem
	fullPath string
}

// NewClone builds an unparsed clone command over a host argument bag.
func NewClone(args map[string]any, filesystems *hostfs.Registry, remotes RemoteSource) *Clone {
	return &Clone{raw: NewArgs(args), filesystems: filesystems, remotes: remotes}
}

func (c *Clone) Subject() string { return SubjectClone }

// ParseArgs extracts the remote URL and the mount target. Binding the
// filesystem argument is a registry lookup only; the mount itself happens
// in Run.
func (c *Clone) ParseArgs() error {
	c.opts.URL = c.raw.NonEmptyString("url")
	c.opts.FilesystemID = c.raw.NonEmptyString("filesystem")
	c.opts.Path = c.raw.OptionalString("path")
	if err := c.raw.Err(); err != nil {
		return err
	}

	fs, err := c.filesystems.Resolve(c.opts.FilesystemID)
	if err != nil {
		return argError(CodeFilesystemResolution, "filesystem", err)
	}
	c.fs = fs

	c.fullPath = c.opts.Path
	if c.fullPath == "" {
		name := repoNameFromURL(c.opts.URL)
		if !safeRepoNameRegex.MatchString(name) {
			return argError(CodeInvalidArgumentType, "url",
				fmt.Errorf("cannot derive a usable target directory from %q", c.opts.URL))
		}
		c.fullPath = name
	}
	return nil
}

// Run mounts the target and clones into it. On any failure the mount is
// rolled back and the handle slot stays empty, so a retry starts clean.
func (c *Clone) Run(ctx context.Context, sess *session.Session) (any, error) {
	if sess.Repo() != nil {
		return nil, Errorf(CodeHandleAlreadyOpen,
			"session already has an open repository at %q", sess.RepoPath())
	}

	mount, err := hostfs.Acquire(c.fs, c.fullPath)
	if err != nil {
		return nil, NewError(CodeMountFailure, err)
	}
	defer mount.Rollback()

	var repo *gogit.Repository
	if shared, ok := c.remotes.SharedRemote(c.opts.URL); ok {
		repo, err = cloneFromShared(mount.FS(), shared, c.opts.URL)
	} else {
		repo, err = cloneFromNetwork(ctx, mount.FS(), c.opts.URL)
	}
	if err != nil {
		return nil, NewError(CodeEngineClone, err)
	}

	if err := sess.SetRepo(repo, mount.FullPath()); err != nil {
		return nil, NewError(CodeHandleAlreadyOpen, err)
	}
	mount.Keep()

	result := map[string]any{"path": mount.FullPath()}
	if head, err := repo.Head(); err == nil {
		result["head"] = head.Hash().String()
		result["branch"] = head.Name().Short()
	}
	return result, nil
}

// repoNameFromURL derives the target directory name the way git does:
// the last path segment with a trailing ".git" stripped.
func repoNameFromURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	parts := strings.Split(trimmed, "/")
	name := parts[len(parts)-1]
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

// worktreeStorage lays out a .git directory inside the mounted worktree and
// returns filesystem-backed storage over it.
func worktreeStorage(worktree billy.Filesystem) (*filesystem.Storage, error) {
	if err := worktree.MkdirAll(gogit.GitDirName, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", gogit.GitDirName, err)
	}
	dotGit, err := worktree.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, fmt.Errorf("scope %s: %w", gogit.GitDirName, err)
	}
	return filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault()), nil
}

// cloneFromNetwork performs an engine clone against a live URL.
func cloneFromNetwork(ctx context.Context, worktree billy.Filesystem, url string) (*gogit.Repository, error) {
	st, err := worktreeStorage(worktree)
	if err != nil {
		return nil, err
	}
	repo, err := gogit.CloneContext(ctx, st, worktree, &gogit.CloneOptions{URL: url})
	if err != nil {
		return nil, fmt.Errorf("clone %q: %w", url, err)
	}
	return repo, nil
}

// cloneFromShared materializes a clone from a pre-ingested remote without
// touching the network: full object copy, remote-tracking references, an
// origin remote, and a default-branch checkout.
func cloneFromShared(worktree billy.Filesystem, remote *gogit.Repository, url string) (*gogit.Repository, error) {
	st, err := worktreeStorage(worktree)
	if err != nil {
		return nil, err
	}

	if err := copyObjects(remote.Storer, st); err != nil {
		return nil, fmt.Errorf("copy objects: %w", err)
	}

	local, err := gogit.Init(st, worktree)
	if err != nil {
		return nil, fmt.Errorf("init local repository: %w", err)
	}

	if err := copyReferences(local, remote); err != nil {
		return nil, fmt.Errorf("copy references: %w", err)
	}

	if _, err := local.CreateRemote(&config.RemoteConfig{
		Name: gogit.DefaultRemoteName,
		URLs: []string{url},
	}); err != nil {
		return nil, fmt.Errorf("configure origin: %w", err)
	}

	if err := checkoutDefaultBranch(local, remote); err != nil {
		return nil, err
	}
	return local, nil
}

func copyObjects(src, dst storage.Storer) error {
	iter, err := src.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return err
	}
	return iter.ForEach(func(obj plumbing.EncodedObject) error {
		_, err := dst.SetEncodedObject(obj)
		return err
	})
}

// copyReferences mirrors the remote's branches as remote-tracking refs and
// carries tags over as-is.
func copyReferences(local, remote *gogit.Repository) error {
	refs, err := remote.References()
	if err != nil {
		return err
	}
	return refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		switch {
		case name.IsBranch():
			tracking := plumbing.NewRemoteReferenceName(gogit.DefaultRemoteName, name.Short())
			return local.Storer.SetReference(plumbing.NewHashReference(tracking, ref.Hash()))
		case name.IsTag():
			return local.Storer.SetReference(ref)
		}
		return nil
	})
}

// checkoutDefaultBranch creates the local branch matching the remote HEAD
// and checks it out.
func checkoutDefaultBranch(local, remote *gogit.Repository) error {
	w, err := local.Worktree()
	if err != nil {
		return err
	}

	target := plumbing.Main
	if headRef, err := remote.Head(); err == nil {
		switch {
		case headRef.Type() == plumbing.SymbolicReference:
			target = headRef.Target()
		case headRef.Name().IsBranch():
			target = headRef.Name()
		}
	}

	tracking := plumbing.NewRemoteReferenceName(gogit.DefaultRemoteName, target.Short())
	ref, err := local.Reference(tracking, true)
	if err != nil {
		return fmt.Errorf("resolve default branch %q: %w", target.Short(), err)
	}

	if err := local.Storer.SetReference(plumbing.NewHashReference(target, ref.Hash())); err != nil {
		return err
	}
	if err := w.Checkout(&gogit.CheckoutOptions{Branch: target, Force: true}); err != nil {
		return fmt.Errorf("checkout %q: %w", target.Short(), err)
	}
	return nil
}
