package vcs

import (
	"os"
	"path/filepath"
	"strings"
)

// LocateGitDir resolves the metadata store for a document root. The `.git`
// entry may be a directory, a symlink to a directory, or a pointer file with
// a `gitdir: <path>` line (one level of indirection, as written by
// `git worktree` and `git submodule`). Whatever it resolves to must still be
// inside the root once symlinks are flattened; anything that escapes, or any
// missing/malformed state, yields ErrUnavailable so the caller sees "feature
// off" rather than a path outside the root.
func LocateGitDir(root string) (string, error) {
	canonRoot, err := canonicalRoot(root)
	if err != nil {
		return "", err
	}

	dotGit := filepath.Join(canonRoot, ".git")
	fi, err := os.Lstat(dotGit)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrUnavailable
		}
		return "", ioError("stat", dotGit, err)
	}

	resolved, err := filepath.EvalSymlinks(dotGit)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrUnavailable
		}
		return "", ioError("resolve", dotGit, err)
	}
	if !withinRoot(canonRoot, resolved) {
		return "", ErrUnavailable
	}

	meta := fi
	if fi.Mode()&os.ModeSymlink != 0 {
		meta, err = os.Stat(resolved)
		if err != nil {
			return "", ioError("stat", resolved, err)
		}
	}

	if meta.IsDir() {
		return resolved, nil
	}
	if !meta.Mode().IsRegular() {
		return "", ErrUnavailable
	}

	gitDir, ok, err := parseGitDirPointer(resolved)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnavailable
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(filepath.Dir(resolved), gitDir)
	}

	canonGitDir, err := filepath.EvalSymlinks(gitDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrUnavailable
		}
		return "", ioError("resolve", gitDir, err)
	}
	if !withinRoot(canonRoot, canonGitDir) {
		return "", ErrUnavailable
	}
	meta, err = os.Stat(canonGitDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrUnavailable
		}
		return "", ioError("stat", canonGitDir, err)
	}
	if !meta.IsDir() {
		return "", ErrUnavailable
	}
	return canonGitDir, nil
}

// canonicalRoot makes the root absolute and flattens symlinks so that
// containment checks compare like with like.
func canonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", ioError("resolve", root, err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", ioError("canonicalize root", abs, err)
	}
	return canon, nil
}

func withinRoot(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// parseGitDirPointer reads a `.git` pointer file and extracts the gitdir
// target. Files without a `gitdir:` line are treated as not pointing anywhere.
func parseGitDirPointer(path string) (string, bool, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", false, ioError("read", path, err)
	}
	for _, line := range strings.Split(string(contents), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(trimmed, "gitdir:"); ok {
			target := strings.TrimSpace(rest)
			if target == "" {
				return "", false, nil
			}
			return target, true, nil
		}
	}
	return "", false, nil
}
