package vcs

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// stagedEntry is freshly hashed worktree content ready to land in the index.
type stagedEntry struct {
	hash plumbing.Hash
	mode filemode.FileMode
	info os.FileInfo
}

// stageFile writes the blob for a worktree path and returns its new index
// fields. It returns (nil, nil) when the path is gone or turned into a
// directory, so the caller can downgrade to a removal.
func (r *repository) stageFile(rel string) (*stagedEntry, error) {
	wf, err := r.readWorktreeFile(rel)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, nil
	}
	hash, err := r.writeBlob(wf.data)
	if err != nil {
		return nil, err
	}
	return &stagedEntry{hash: hash, mode: wf.mode, info: wf.info}, nil
}

// stageAll stages every file under the root for a repository with no history
// yet. Any symlink fails the entire call; nothing is partially staged into
// the store's refs because the index is only persisted later by the commit
// writer.
func (r *repository) stageAll(idx *index.Index) error {
	// The first commit snapshots the whole root; ignore rules only apply to
	// the untracked walk once history exists.
	walked, err := r.walkWorktreeFiles(nil)
	if err != nil {
		return err
	}
	upserts := make(map[string]*stagedEntry, len(walked))
	for _, we := range walked {
		if we.symlink {
			return NewSymlinkError(we.rel)
		}
		se, err := r.stageFile(we.rel)
		if err != nil {
			return err
		}
		if se == nil {
			return fmt.Errorf("unable to stage file %s: %w", we.rel, os.ErrNotExist)
		}
		upserts[we.rel] = se
	}
	applyStageUpdates(idx, nil, upserts, nil)
	return nil
}

// stageChanges applies a worktree scan to the index. Any error aborts the
// whole call: conflicts and submodule changes immediately, symlinks when a
// change tries to stage one.
func (r *repository) stageChanges(idx *index.Index, scan *worktreeScan) error {
	upserts := make(map[string]*stagedEntry)
	removals := make(map[string]bool)

	for _, c := range scan.changes {
		switch c.kind {
		case changeConflicted:
			return NewConflictError(c.path)
		case changeSubmodule:
			return NewSubmoduleError(c.path)
		case changeAdded, changeModified:
			se, err := r.stageFile(c.path)
			if err != nil {
				return err
			}
			if se == nil {
				// Raced away between scan and stage.
				removals[c.path] = true
				delete(upserts, c.path)
				continue
			}
			upserts[c.path] = se
			delete(removals, c.path)
		case changeTypeChanged:
			se, err := r.stageFile(c.path)
			if err != nil {
				return err
			}
			if se == nil {
				removals[c.path] = true
				delete(upserts, c.path)
				continue
			}
			upserts[c.path] = se
			delete(removals, c.path)
		case changeRemoved:
			removals[c.path] = true
			delete(upserts, c.path)
		case changeRenamed:
			if !c.copied {
				removals[c.from] = true
				delete(upserts, c.from)
			}
			se, err := r.stageFile(c.path)
			if err != nil {
				return err
			}
			if se == nil {
				continue
			}
			upserts[c.path] = se
			delete(removals, c.path)
		default:
			return fmt.Errorf("unhandled change kind %d for %s", c.kind, c.path)
		}
	}

	applyStageUpdates(idx, removals, upserts, scan.refreshes)
	return nil
}

// applyStageUpdates mutates the index in place. Removals run before upserts
// so a path marked both ways in one pass ends up staged.
func applyStageUpdates(idx *index.Index, removals map[string]bool, upserts map[string]*stagedEntry, refreshes []statRefresh) {
	if len(removals) > 0 {
		kept := idx.Entries[:0]
		for _, e := range idx.Entries {
			if !removals[e.Name] {
				kept = append(kept, e)
			}
		}
		idx.Entries = kept
	}

	refreshByPath := make(map[string]os.FileInfo, len(refreshes))
	for _, ref := range refreshes {
		refreshByPath[ref.path] = ref.info
	}

	for _, e := range idx.Entries {
		if se, ok := upserts[e.Name]; ok {
			e.Hash = se.hash
			e.Mode = se.mode
			applyEntryStat(e, se.info)
			e.IntentToAdd = false
			e.SkipWorktree = false
			delete(upserts, e.Name)
		}
		if fi, ok := refreshByPath[e.Name]; ok {
			applyEntryStat(e, fi)
		}
	}

	for path, se := range upserts {
		e := idx.Add(path)
		e.Hash = se.hash
		e.Mode = se.mode
		applyEntryStat(e, se.info)
	}
}
