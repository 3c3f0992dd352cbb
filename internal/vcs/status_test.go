package vcs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/stretchr/testify/require"

	"github.com/netrome/mindex/internal/vcs"
	"github.com/netrome/mindex/testhelpers"
)

func TestStatusAndDiff(t *testing.T) {
	t.Run("reports unavailable without a repository", func(t *testing.T) {
		root := testhelpers.NewBareRoot(t)

		_, err := vcs.StatusAndDiff(root)
		require.ErrorIs(t, err, vcs.ErrUnavailable)
	})

	t.Run("is clean before the first commit", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("note.md", "not yet tracked\n")

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 0, snapshot.ChangedFiles)
		require.Empty(t, snapshot.Diff)
	})

	t.Run("is clean right after a commit", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("note.md", "tracked\n")
		repo.CommitAllWithGit("init")

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 0, snapshot.ChangedFiles)
		require.Empty(t, snapshot.Diff)
	})

	t.Run("detects a modification", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("a.txt", "foo\n")
		repo.CommitAllWithGit("init")
		repo.WriteFile("a.txt", "bar\n")

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 1, snapshot.ChangedFiles)
		require.Contains(t, snapshot.Diff, "--- a/a.txt")
		require.Contains(t, snapshot.Diff, "+++ b/a.txt")
		require.Contains(t, snapshot.Diff, "-foo")
		require.Contains(t, snapshot.Diff, "+bar")
	})

	t.Run("detects a removal", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("gone.md", "ephemeral\n")
		repo.CommitAllWithGit("init")
		repo.Remove("gone.md")

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 1, snapshot.ChangedFiles)
		require.Contains(t, snapshot.Diff, "+++ /dev/null")
		require.Contains(t, snapshot.Diff, "-ephemeral")
	})

	t.Run("counts an untracked file and renders its content", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("note.md", "tracked\n")
		repo.CommitAllWithGit("init")
		repo.WriteFile("new.md", "fresh\n")

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 1, snapshot.ChangedFiles)
		require.Contains(t, snapshot.Diff, "+++ b/new.md")
		require.Contains(t, snapshot.Diff, "+fresh")
	})

	t.Run("pairs an exact rename", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("a.txt", "same content\n")
		repo.CommitAllWithGit("init")
		repo.Rename("a.txt", "b.txt")

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 1, snapshot.ChangedFiles)
		require.Contains(t, snapshot.Diff, "rename from a.txt")
		require.Contains(t, snapshot.Diff, "rename to b.txt")
	})

	t.Run("marks binary content instead of hunks", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteBinary("blob.bin", []byte{0x00, 0x01, 0x02})
		repo.CommitAllWithGit("init")
		repo.WriteBinary("blob.bin", []byte{0x00, 0x09, 0x09})

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 1, snapshot.ChangedFiles)
		require.Contains(t, snapshot.Diff, "Binary files")
		require.NotContains(t, snapshot.Diff, "@@")
	})

	t.Run("reports a mode change", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("run.sh", "#!/bin/sh\n")
		repo.CommitAllWithGit("init")
		require.NoError(t, os.Chmod(filepath.Join(repo.Dir, "run.sh"), 0o755))

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 1, snapshot.ChangedFiles)
		require.Contains(t, snapshot.Diff, "old mode 100644")
		require.Contains(t, snapshot.Diff, "new mode 100755")
	})

	t.Run("respects gitignore for untracked files", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile(".gitignore", "*.tmp\n")
		repo.WriteFile("note.md", "tracked\n")
		repo.CommitAllWithGit("init")
		repo.WriteFile("junk.tmp", "scratch\n")

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 0, snapshot.ChangedFiles)
		require.Empty(t, snapshot.Diff)
	})

	t.Run("counts a conflicted entry without rendering a diff", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("note.md", "tracked\n")
		repo.CommitAllWithGit("init")
		repo.AddIndexEntry(&index.Entry{
			Name:  "clash.txt",
			Hash:  plumbing.ComputeHash(plumbing.BlobObject, []byte("ours\n")),
			Mode:  filemode.Regular,
			Stage: 2,
		})

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 1, snapshot.ChangedFiles)
		require.Empty(t, snapshot.Diff)
	})

	t.Run("flags a submodule whose HEAD moved", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("note.md", "tracked\n")
		repo.CommitAllWithGit("init")
		repo.InitSubrepo("lib/dep")
		repo.AddIndexEntry(&index.Entry{
			Name: "lib/dep",
			Hash: plumbing.ComputeHash(plumbing.BlobObject, []byte("recorded elsewhere")),
			Mode: filemode.Submodule,
		})

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 1, snapshot.ChangedFiles)
		require.Empty(t, snapshot.Diff)
	})

	t.Run("leaves an unmoved submodule alone", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("note.md", "tracked\n")
		repo.CommitAllWithGit("init")
		subHead := repo.InitSubrepo("lib/dep")
		repo.AddIndexEntry(&index.Entry{
			Name: "lib/dep",
			Hash: subHead,
			Mode: filemode.Submodule,
		})

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 0, snapshot.ChangedFiles)
		require.Empty(t, snapshot.Diff)
	})

	t.Run("renders an intent-to-add entry as an addition", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("note.md", "tracked\n")
		repo.CommitAllWithGit("init")
		repo.WriteFile("draft.md", "draft body\n")
		repo.AddIndexEntry(&index.Entry{
			Name:        "draft.md",
			Mode:        filemode.Regular,
			IntentToAdd: true,
		})

		snapshot, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, 1, snapshot.ChangedFiles)
		require.Contains(t, snapshot.Diff, "+++ b/draft.md")
		require.Contains(t, snapshot.Diff, "+draft body")
	})

	t.Run("two reads of an unchanged tree agree", func(t *testing.T) {
		repo := testhelpers.NewGitRepo(t)
		repo.WriteFile("a.txt", "foo\n")
		repo.CommitAllWithGit("init")
		repo.WriteFile("a.txt", "bar\n")
		repo.WriteFile("extra.md", "untracked\n")

		first, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		second, err := vcs.StatusAndDiff(repo.Dir)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}
