package vcs

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// changeKind classifies one path's difference between the index and the
// working tree. Every switch over it handles all kinds; an unknown kind is a
// programming error.
type changeKind int

const (
	changeModified changeKind = iota
	changeRemoved
	changeTypeChanged
	changeAdded
	changeRenamed
	changeConflicted
	changeSubmodule
)

func (k changeKind) String() string {
	switch k {
	case changeModified:
		return "modified"
	case changeRemoved:
		return "removed"
	case changeTypeChanged:
		return "type changed"
	case changeAdded:
		return "added"
	case changeRenamed:
		return "renamed"
	case changeConflicted:
		return "conflicted"
	case changeSubmodule:
		return "submodule modified"
	default:
		return "unknown"
	}
}

// change is one classified difference. For renames, path is the destination
// and from the source.
type change struct {
	kind    changeKind
	path    string
	from    string
	copied  bool          // rename that keeps its source
	oldHash plumbing.Hash // blob recorded in the index; zero for additions
	newHash plumbing.Hash // hash of current disk content; zero when unreadable
	oldMode filemode.FileMode
	newMode filemode.FileMode
	symlink bool // the working-tree side is a symlink
	intent  bool // intent-to-add entry being realized
}

// statRefresh marks an entry whose content is unchanged but whose cached
// stat went stale; it is not a change, just bookkeeping.
type statRefresh struct {
	path string
	info os.FileInfo
}

// worktreeScan is the shared read model: the status/diff engine renders it,
// the staging engine applies it.
type worktreeScan struct {
	changes   []change
	refreshes []statRefresh
}

// scanWorktree classifies every difference between the index and the working
// tree: tracked entries by stat-then-rehash, untracked paths by walking the
// tree, and exact-content rename pairing across the two.
func (r *repository) scanWorktree(idx *index.Index) (*worktreeScan, error) {
	scan := &worktreeScan{}
	tracked := make(map[string]*index.Entry, len(idx.Entries))

	for _, e := range idx.Entries {
		if _, dup := tracked[e.Name]; dup {
			// A second stage for the same path; the first pass below
			// already flagged it via the stage bits.
			continue
		}
		tracked[e.Name] = e

		// Fully merged entries decode with zero stage bits; anything else
		// is an unresolved conflict.
		if e.Stage != 0 {
			scan.changes = append(scan.changes, change{kind: changeConflicted, path: e.Name})
			continue
		}
		if e.Mode == filemode.Submodule {
			if r.submoduleMoved(e) {
				scan.changes = append(scan.changes, change{kind: changeSubmodule, path: e.Name})
			}
			continue
		}

		full := filepath.Join(r.root, filepath.FromSlash(e.Name))
		fi, err := os.Lstat(full)
		if err != nil {
			if os.IsNotExist(err) {
				scan.changes = append(scan.changes, change{
					kind:    changeRemoved,
					path:    e.Name,
					oldHash: e.Hash,
					oldMode: e.Mode,
				})
				continue
			}
			return nil, ioError("stat", e.Name, err)
		}

		switch {
		case fi.IsDir(), fi.Mode()&os.ModeSymlink != 0, !fi.Mode().IsRegular():
			scan.changes = append(scan.changes, change{
				kind:    changeTypeChanged,
				path:    e.Name,
				oldHash: e.Hash,
				oldMode: e.Mode,
				symlink: fi.Mode()&os.ModeSymlink != 0,
			})
			continue
		}

		if !e.IntentToAdd && entryStatMatches(e, fi) {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			if os.IsNotExist(err) {
				scan.changes = append(scan.changes, change{
					kind:    changeRemoved,
					path:    e.Name,
					oldHash: e.Hash,
					oldMode: e.Mode,
				})
				continue
			}
			return nil, ioError("read", e.Name, err)
		}
		newHash := plumbing.ComputeHash(plumbing.BlobObject, data)
		newMode := modeOf(fi)

		switch {
		case e.IntentToAdd:
			scan.changes = append(scan.changes, change{
				kind:    changeAdded,
				path:    e.Name,
				newHash: newHash,
				newMode: newMode,
				intent:  true,
			})
		case newHash == e.Hash && newMode == e.Mode:
			scan.refreshes = append(scan.refreshes, statRefresh{path: e.Name, info: fi})
		default:
			scan.changes = append(scan.changes, change{
				kind:    changeModified,
				path:    e.Name,
				oldHash: e.Hash,
				newHash: newHash,
				oldMode: e.Mode,
				newMode: newMode,
			})
		}
	}

	walked, err := r.walkWorktreeFiles(r.ignoreMatcher())
	if err != nil {
		return nil, err
	}
	for _, we := range walked {
		if _, ok := tracked[we.rel]; ok {
			continue
		}
		if we.symlink {
			scan.changes = append(scan.changes, change{kind: changeAdded, path: we.rel, symlink: true})
			continue
		}
		full := filepath.Join(r.root, filepath.FromSlash(we.rel))
		fi, err := os.Lstat(full)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, ioError("stat", we.rel, err)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, ioError("read", we.rel, err)
		}
		scan.changes = append(scan.changes, change{
			kind:    changeAdded,
			path:    we.rel,
			newHash: plumbing.ComputeHash(plumbing.BlobObject, data),
			newMode: modeOf(fi),
		})
	}

	pairRenames(scan)
	return scan, nil
}

// pairRenames rewrites a removed entry plus an untracked file with identical
// blob content into a single rename, first match in path order, each side
// consumed once. Copy detection is deliberately off, like git's default.
func pairRenames(scan *worktreeScan) {
	removedByHash := make(map[plumbing.Hash][]int)
	for i, c := range scan.changes {
		if c.kind == changeRemoved && c.oldHash != plumbing.ZeroHash {
			removedByHash[c.oldHash] = append(removedByHash[c.oldHash], i)
		}
	}
	if len(removedByHash) == 0 {
		return
	}

	dropped := make(map[int]bool)
	for i, c := range scan.changes {
		if c.kind != changeAdded || c.symlink || c.intent || c.newHash == plumbing.ZeroHash {
			continue
		}
		sources := removedByHash[c.newHash]
		if len(sources) == 0 {
			continue
		}
		j := sources[0]
		removedByHash[c.newHash] = sources[1:]
		src := scan.changes[j]
		scan.changes[i] = change{
			kind:    changeRenamed,
			path:    c.path,
			from:    src.path,
			oldHash: src.oldHash,
			newHash: c.newHash,
			oldMode: src.oldMode,
			newMode: c.newMode,
		}
		dropped[j] = true
	}
	if len(dropped) == 0 {
		return
	}
	kept := scan.changes[:0]
	for i, c := range scan.changes {
		if !dropped[i] {
			kept = append(kept, c)
		}
	}
	scan.changes = kept
}

// submoduleMoved reports whether a gitlink entry's subrepository HEAD no
// longer matches the recorded hash. Subrepositories that cannot be opened are
// treated as unchanged; the engine does not recurse into them.
func (r *repository) submoduleMoved(e *index.Entry) bool {
	sub, err := git.PlainOpen(filepath.Join(r.root, filepath.FromSlash(e.Name)))
	if err != nil {
		return false
	}
	head, err := sub.Head()
	if err != nil {
		return false
	}
	return head.Hash() != e.Hash
}
