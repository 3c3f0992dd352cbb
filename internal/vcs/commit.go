package vcs

import (
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitAll stages every working-tree change under root and writes a commit.
// The new tree is compared against HEAD before anything durable happens: a
// no-op attempt returns ErrNothingToCommit with the on-disk index and HEAD
// untouched, so a failed attempt can never diverge the index from HEAD.
// Orphaned blobs from a failed later step are harmless; the store is
// content-addressed and write-once.
func CommitAll(root, message string, author *Author) (plumbing.Hash, error) {
	r, err := openRepository(root)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	idx, err := r.loadIndex()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	for _, e := range idx.Entries {
		if e.Stage != 0 {
			return plumbing.ZeroHash, NewConflictError(e.Name)
		}
	}

	head, err := r.headCommit()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if head == nil {
		err = r.stageAll(idx)
	} else {
		var scan *worktreeScan
		scan, err = r.scanWorktree(idx)
		if err == nil {
			err = r.stageChanges(idx, scan)
		}
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	sortIndexEntries(idx)

	treeID, err := buildTree(idx, r.repo.Storer)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	noChanges := len(idx.Entries) == 0
	if head != nil {
		noChanges = head.TreeHash == treeID
	}
	if noChanges {
		return plumbing.ZeroHash, ErrNothingToCommit
	}

	if err := r.repo.Storer.SetIndex(idx); err != nil {
		return plumbing.ZeroHash, ioError("write index", "", err)
	}

	authorSig, committerSig, err := r.resolveIdentity(author)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	var parents []plumbing.Hash
	if head != nil {
		parents = append(parents, head.Hash)
	}

	commit := &object.Commit{
		Author:       authorSig,
		Committer:    committerSig,
		Message:      normalizeMessage(message),
		TreeHash:     treeID,
		ParentHashes: parents,
	}
	obj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, ioError("encode commit", "", err)
	}
	commitID, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, ioError("store commit", "", err)
	}

	if err := r.advanceHead(commitID); err != nil {
		return plumbing.ZeroHash, err
	}
	return commitID, nil
}

func sortIndexEntries(idx *index.Index) {
	sort.Slice(idx.Entries, func(i, j int) bool {
		return idx.Entries[i].Name < idx.Entries[j].Name
	})
}

func normalizeMessage(message string) string {
	if strings.HasSuffix(message, "\n") {
		return message
	}
	return message + "\n"
}
