package vcs

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// worktreeFile is the readable content of one working-tree path, with the
// mode and stat fields that end up cached in its index entry.
type worktreeFile struct {
	data []byte
	mode filemode.FileMode
	info os.FileInfo
}

// readWorktreeFile reads a file relative to the root. It returns (nil, nil)
// when the path is absent or is a directory, so callers can downgrade a
// modification to a removal. Symlinks fail the call: the engine never stages
// them.
func (r *repository) readWorktreeFile(rel string) (*worktreeFile, error) {
	full := filepath.Join(r.root, filepath.FromSlash(rel))
	fi, err := os.Lstat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ioError("stat", rel, err)
	}
	if fi.IsDir() {
		return nil, nil
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, NewSymlinkError(rel)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("unsupported file type %s: %w", rel, ErrUnsupported)
	}

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ioError("resolve", rel, err)
	}
	if !withinRoot(r.root, resolved) {
		return nil, fmt.Errorf("path %s escapes the root: %w", rel, ErrUnsupported)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, ioError("read", rel, err)
	}
	return &worktreeFile{data: data, mode: modeOf(fi), info: fi}, nil
}

func modeOf(fi os.FileInfo) filemode.FileMode {
	if fi.Mode().Perm()&0o100 != 0 {
		return filemode.Executable
	}
	return filemode.Regular
}

// entryStatMatches reports whether the cached stat in an index entry still
// describes the file on disk, which lets the scanner skip rehashing.
func entryStatMatches(e *index.Entry, fi os.FileInfo) bool {
	return e.ModifiedAt.Equal(fi.ModTime()) &&
		e.Size == uint32(fi.Size()) &&
		e.Mode == modeOf(fi)
}

// applyEntryStat refreshes the cached stat fields on an index entry. The
// ctime/dev/inode fields come from the platform stat where available and stay
// zero elsewhere.
func applyEntryStat(e *index.Entry, fi os.FileInfo) {
	e.ModifiedAt = fi.ModTime()
	e.Size = uint32(fi.Size())
	fillSystemInfo(e, fi)
}

// isBinary applies git's heuristic: content with a zero byte is binary.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}

// walkEntry is one non-directory path found under the root.
type walkEntry struct {
	rel     string // slash-separated, relative to the root
	symlink bool
}

// ignoreMatcher loads the worktree's .gitignore hierarchy. Failing to read
// ignore files is not fatal; the walk just sees everything.
func (r *repository) ignoreMatcher() gitignore.Matcher {
	patterns, err := gitignore.ReadPatterns(osfs.New(r.root), nil)
	if err != nil {
		return nil
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}

// walkWorktreeFiles lists every file and symlink under the root in sorted
// order, excluding the metadata store, nested repositories and, when a
// matcher is given, ignored paths. Directories themselves are recursed into,
// never returned.
func (r *repository) walkWorktreeFiles(ignores gitignore.Matcher) ([]walkEntry, error) {
	// The store usually is <root>/.git and gets skipped by name; a pointer
	// file can place it elsewhere inside the root.
	gitDirRel := ""
	if rel, err := filepath.Rel(r.root, r.gitDir); err == nil && !strings.HasPrefix(rel, "..") {
		gitDirRel = filepath.ToSlash(rel)
	}

	var entries []walkEntry
	var walk func(dir string) error
	walk = func(dir string) error {
		full := filepath.Join(r.root, filepath.FromSlash(dir))
		dirEntries, err := os.ReadDir(full)
		if err != nil {
			return ioError("read dir", dir, err)
		}
		for _, de := range dirEntries {
			if de.Name() == ".git" {
				continue
			}
			rel := path.Join(dir, de.Name())
			if rel == gitDirRel {
				continue
			}
			if de.IsDir() {
				if ignores != nil && ignores.Match(strings.Split(rel, "/"), true) {
					continue
				}
				// A directory with its own .git is a nested repository;
				// its contents belong to that repository, not this one.
				if _, err := os.Lstat(filepath.Join(full, de.Name(), ".git")); err == nil {
					continue
				}
				if err := walk(rel); err != nil {
					return err
				}
				continue
			}
			if ignores != nil && ignores.Match(strings.Split(rel, "/"), false) {
				continue
			}
			mode := de.Type()
			switch {
			case mode&os.ModeSymlink != 0:
				entries = append(entries, walkEntry{rel: rel, symlink: true})
			case mode.IsRegular():
				entries = append(entries, walkEntry{rel: rel})
			}
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })
	return entries, nil
}
