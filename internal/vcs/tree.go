package vcs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// buildTree turns the flat index into a tree object graph and returns the
// root tree id. It is pure with respect to the filesystem: everything it
// needs is in the index, and it writes only to the given object storer, so
// unit tests run it against an in-memory store.
func buildTree(idx *index.Index, store storer.EncodedObjectStorer) (plumbing.Hash, error) {
	root := newTreeNode()
	for _, e := range idx.Entries {
		if e.Stage != 0 {
			return plumbing.ZeroHash, NewConflictError(e.Name)
		}
		if e.SkipWorktree || e.Mode == filemode.Dir {
			return plumbing.ZeroHash, fmt.Errorf("sparse index entries are not supported (%s): %w", e.Name, ErrUnsupported)
		}
		if err := root.insert(e.Name, e.Hash, e.Mode); err != nil {
			return plumbing.ZeroHash, err
		}
	}
	return root.write(store)
}

// treeNode is an in-memory tree under construction: recursively owned values
// built bottom-up, so content addressing can never form a cycle.
type treeNode struct {
	files map[string]object.TreeEntry
	dirs  map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{
		files: make(map[string]object.TreeEntry),
		dirs:  make(map[string]*treeNode),
	}
}

func (n *treeNode) insert(path string, hash plumbing.Hash, mode filemode.FileMode) error {
	var components []string
	for _, c := range strings.Split(path, "/") {
		if c == "" {
			continue
		}
		if c == "." || c == ".." {
			return NewPathConflictError(path)
		}
		components = append(components, c)
	}
	if len(components) == 0 {
		return nil
	}

	current := n
	for _, name := range components[:len(components)-1] {
		if _, isFile := current.files[name]; isFile {
			return NewPathConflictError(path)
		}
		child, ok := current.dirs[name]
		if !ok {
			child = newTreeNode()
			current.dirs[name] = child
		}
		current = child
	}
	leaf := components[len(components)-1]
	if _, isDir := current.dirs[leaf]; isDir {
		return NewPathConflictError(path)
	}
	current.files[leaf] = object.TreeEntry{Name: leaf, Mode: mode, Hash: hash}
	return nil
}

// write encodes the node's subtrees before the node itself, since the parent
// entry needs each child's id, and sorts entries into git's canonical tree
// order so the id depends only on content.
func (n *treeNode) write(store storer.EncodedObjectStorer) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(n.files)+len(n.dirs))
	for _, entry := range n.files {
		entries = append(entries, entry)
	}
	for name, child := range n.dirs {
		childID, err := child.write(store)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: childID})
	}
	sort.Sort(object.TreeEntrySorter(entries))

	tree := &object.Tree{Entries: entries}
	obj := store.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, ioError("encode tree", "", err)
	}
	id, err := store.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, ioError("store tree", "", err)
	}
	return id, nil
}
