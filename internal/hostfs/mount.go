package hostfs

import (
	"fmt"
	"os"
	"path"
	"regexp"

	"github.com/go-git/go-billy/v5"
)

// safePathRegex rejects path suffixes that could escape the sandbox.
var safePathRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-./]*$`)

// Mount is a scoped hold on a directory inside a provisioned filesystem.
// Acquire prepares the directory; exactly one of Keep or Rollback must be
// called before the mount is discarded. Rollback removes everything Acquire
// created so a later retry starts clean.
type Mount struct {
	fs       billy.Filesystem
	fullPath string
	chroot   billy.Filesystem
	created  bool
	settled  bool
}

// Acquire prepares suffix inside fs as a mount target and returns a scoped
// hold on it. Preparing is idempotent for an existing empty directory; an
// existing non-empty directory is a path collision.
func Acquire(fs billy.Filesystem, suffix string) (*Mount, error) {
	if !safePathRegex.MatchString(suffix) {
		return nil, fmt.Errorf("invalid mount path %q", suffix)
	}
	// Rooting before Clean neutralizes any ".." segments.
	cleaned := path.Clean("/" + suffix)[1:]

	m := &Mount{fs: fs, fullPath: cleaned}

	if cleaned != "" {
		fi, err := fs.Stat(cleaned)
		switch {
		case err == nil:
			if !fi.IsDir() {
				return nil, fmt.Errorf("mount path %q exists and is not a directory", cleaned)
			}
			entries, err := fs.ReadDir(cleaned)
			if err != nil {
				return nil, fmt.Errorf("read mount path %q: %w", cleaned, err)
			}
			if len(entries) > 0 {
				return nil, fmt.Errorf("mount path %q already exists and is not empty", cleaned)
			}
		case os.IsNotExist(err):
			if err := fs.MkdirAll(cleaned, 0755); err != nil {
				return nil, fmt.Errorf("prepare mount path %q: %w", cleaned, err)
			}
			m.created = true
		default:
			return nil, fmt.Errorf("stat mount path %q: %w", cleaned, err)
		}
	}

	root := fs
	if cleaned != "" {
		var err error
		root, err = fs.Chroot(cleaned)
		if err != nil {
			if m.created {
				removeAll(fs, cleaned)
			}
			return nil, fmt.Errorf("scope mount path %q: %w", cleaned, err)
		}
	}
	m.chroot = root
	return m, nil
}

// FS returns the filesystem scoped to the mount target.
func (m *Mount) FS() billy.Filesystem { return m.chroot }

// FullPath returns the mount-relative resolved path.
func (m *Mount) FullPath() string { return m.fullPath }

// Keep disarms rollback; the mount's contents become the caller's.
func (m *Mount) Keep() { m.settled = true }

// Rollback removes the mount target and anything written under it. Safe to
// call after Keep (it does nothing) and on every error path.
func (m *Mount) Rollback() {
	if m.settled {
		return
	}
	m.settled = true
	if m.fullPath != "" {
		removeAll(m.fs, m.fullPath)
	}
}

// removeAll recursively deletes p. billy has no RemoveAll; memfs and chroot
// filesystems only expose Remove plus ReadDir.
func removeAll(fs billy.Filesystem, p string) error {
	fi, err := fs.Stat(p)
	if err != nil {
		return nil
	}
	if !fi.IsDir() {
		return fs.Remove(p)
	}
	entries, err := fs.ReadDir(p)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := removeAll(fs, path.Join(p, entry.Name())); err != nil {
			return err
		}
	}
	return fs.Remove(p)
}
