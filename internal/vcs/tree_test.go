package vcs

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

func fileEntry(name, content string) *index.Entry {
	return &index.Entry{
		Name: name,
		Hash: plumbing.ComputeHash(plumbing.BlobObject, []byte(content)),
		Mode: filemode.Regular,
	}
}

func TestBuildTree(t *testing.T) {
	t.Run("empty index yields the empty tree", func(t *testing.T) {
		id, err := buildTree(&index.Index{Version: 2}, memory.NewStorage())
		require.NoError(t, err)
		require.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", id.String())
	})

	t.Run("hash is independent of entry order", func(t *testing.T) {
		forward := &index.Index{Version: 2, Entries: []*index.Entry{
			fileEntry("a.txt", "one"),
			fileEntry("docs/b.md", "two"),
			fileEntry("docs/sub/c.md", "three"),
		}}
		backward := &index.Index{Version: 2, Entries: []*index.Entry{
			fileEntry("docs/sub/c.md", "three"),
			fileEntry("docs/b.md", "two"),
			fileEntry("a.txt", "one"),
		}}

		first, err := buildTree(forward, memory.NewStorage())
		require.NoError(t, err)
		second, err := buildTree(backward, memory.NewStorage())
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("writes nested subtrees in canonical order", func(t *testing.T) {
		store := memory.NewStorage()
		idx := &index.Index{Version: 2, Entries: []*index.Entry{
			fileEntry("a.txt", "file next to a directory"),
			fileEntry("a/inner.txt", "inside"),
		}}

		id, err := buildTree(idx, store)
		require.NoError(t, err)

		tree, err := object.GetTree(store, id)
		require.NoError(t, err)
		require.Len(t, tree.Entries, 2)
		// Directories sort with a trailing slash, so "a.txt" precedes "a/".
		require.Equal(t, "a.txt", tree.Entries[0].Name)
		require.Equal(t, filemode.Regular, tree.Entries[0].Mode)
		require.Equal(t, "a", tree.Entries[1].Name)
		require.Equal(t, filemode.Dir, tree.Entries[1].Mode)

		sub, err := object.GetTree(store, tree.Entries[1].Hash)
		require.NoError(t, err)
		require.Len(t, sub.Entries, 1)
		require.Equal(t, "inner.txt", sub.Entries[0].Name)
	})

	t.Run("rejects dot path components", func(t *testing.T) {
		idx := &index.Index{Version: 2, Entries: []*index.Entry{
			fileEntry("docs/../escape.txt", "nope"),
		}}

		_, err := buildTree(idx, memory.NewStorage())
		require.ErrorIs(t, err, ErrUnsupported)
		var pathErr *PathConflictError
		require.ErrorAs(t, err, &pathErr)
		require.Equal(t, "docs/../escape.txt", pathErr.Path)
	})

	t.Run("rejects a path used as both file and directory", func(t *testing.T) {
		idx := &index.Index{Version: 2, Entries: []*index.Entry{
			fileEntry("notes", "file"),
			fileEntry("notes/inner.md", "directory"),
		}}

		_, err := buildTree(idx, memory.NewStorage())
		require.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("rejects conflicted entries", func(t *testing.T) {
		e := fileEntry("clash.txt", "ours")
		e.Stage = 2
		idx := &index.Index{Version: 2, Entries: []*index.Entry{e}}

		_, err := buildTree(idx, memory.NewStorage())
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
		require.Equal(t, "clash.txt", conflictErr.Path)
	})

	t.Run("rejects sparse entries", func(t *testing.T) {
		e := fileEntry("sparse.txt", "elsewhere")
		e.SkipWorktree = true
		idx := &index.Index{Version: 2, Entries: []*index.Entry{e}}

		_, err := buildTree(idx, memory.NewStorage())
		require.ErrorIs(t, err, ErrUnsupported)
	})
}
