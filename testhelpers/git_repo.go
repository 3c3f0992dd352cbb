// Package testhelpers builds throwaway git repositories for tests. Fixtures
// are created with go-git itself so the suite needs no git binary on PATH.
package testhelpers

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// GitRepo represents a git repository rooted in a per-test temp directory.
type GitRepo struct {
	t   *testing.T
	Dir string
	Git *git.Repository
}

// NewGitRepo initializes a repository with a `main` default branch and a
// configured test identity, mirroring what a user's `git init` would leave
// behind.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	require.NoError(t, err)

	cfg, err := repo.Config()
	require.NoError(t, err)
	cfg.User.Name = "Test User"
	cfg.User.Email = "test@example.com"
	require.NoError(t, repo.SetConfig(cfg))

	// Temp dirs may sit behind symlinks (macOS); hand tests the canonical
	// path so their expectations match what the engine resolves.
	canon, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	return &GitRepo{t: t, Dir: canon, Git: repo}
}

// NewBareRoot returns a directory with no version control at all.
func NewBareRoot(t *testing.T) string {
	t.Helper()
	canon, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return canon
}

// WriteFile creates or replaces a file below the root, creating parent
// directories as needed.
func (r *GitRepo) WriteFile(rel, content string) {
	r.t.Helper()
	full := filepath.Join(r.Dir, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0o644))
}

// WriteExecutable is WriteFile with the executable bit set.
func (r *GitRepo) WriteExecutable(rel, content string) {
	r.t.Helper()
	full := filepath.Join(r.Dir, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0o755))
}

// WriteBinary writes raw bytes, for content with zero bytes in it.
func (r *GitRepo) WriteBinary(rel string, content []byte) {
	r.t.Helper()
	full := filepath.Join(r.Dir, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(r.t, os.WriteFile(full, content, 0o644))
}

// Remove deletes a file below the root.
func (r *GitRepo) Remove(rel string) {
	r.t.Helper()
	require.NoError(r.t, os.Remove(filepath.Join(r.Dir, filepath.FromSlash(rel))))
}

// Rename moves a file below the root.
func (r *GitRepo) Rename(from, to string) {
	r.t.Helper()
	src := filepath.Join(r.Dir, filepath.FromSlash(from))
	dst := filepath.Join(r.Dir, filepath.FromSlash(to))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(r.t, os.Rename(src, dst))
}

// Symlink creates a symlink below the root.
func (r *GitRepo) Symlink(target, rel string) {
	r.t.Helper()
	require.NoError(r.t, os.Symlink(target, filepath.Join(r.Dir, filepath.FromSlash(rel))))
}

// CommitAllWithGit stages and commits everything using go-git's own worktree
// machinery, giving tests a history produced independently of the engine
// under test.
func (r *GitRepo) CommitAllWithGit(message string) plumbing.Hash {
	r.t.Helper()
	wt, err := r.Git.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.AddWithOptions(&git.AddOptions{All: true}))
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(r.t, err)
	return hash
}

// AddIndexEntry appends an entry to the on-disk index, for states regular
// staging never writes: conflict stages, gitlinks, intent-to-add markers.
func (r *GitRepo) AddIndexEntry(e *index.Entry) {
	r.t.Helper()
	idx, err := r.Git.Storer.Index()
	require.NoError(r.t, err)
	idx.Entries = append(idx.Entries, e)
	sort.Slice(idx.Entries, func(i, j int) bool {
		return idx.Entries[i].Name < idx.Entries[j].Name
	})
	require.NoError(r.t, r.Git.Storer.SetIndex(idx))
}

// InitSubrepo initializes a nested repository below the root with a single
// commit and returns its HEAD hash.
func (r *GitRepo) InitSubrepo(rel string) plumbing.Hash {
	r.t.Helper()
	dir := filepath.Join(r.Dir, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(dir, 0o755))

	sub, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	require.NoError(r.t, err)
	require.NoError(r.t, os.WriteFile(filepath.Join(dir, "README"), []byte("nested\n"), 0o644))

	wt, err := sub.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.AddWithOptions(&git.AddOptions{All: true}))
	hash, err := wt.Commit("nested init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(r.t, err)
	return hash
}

// Head returns the commit HEAD currently resolves to.
func (r *GitRepo) Head() plumbing.Hash {
	r.t.Helper()
	ref, err := r.Git.Head()
	require.NoError(r.t, err)
	return ref.Hash()
}

// HeadCommit returns the full commit object at HEAD.
func (r *GitRepo) HeadCommit() *object.Commit {
	r.t.Helper()
	commit, err := r.Git.CommitObject(r.Head())
	require.NoError(r.t, err)
	return commit
}
