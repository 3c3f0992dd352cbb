package vcs

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Author is an explicit commit identity supplied by the caller, typically
// resolved from the logged-in principal by the editing subsystem.
type Author struct {
	Name  string
	Email string
}

// repository binds a located metadata store to its working tree. The store is
// opened strictly at the directory the locator resolved, never wherever
// go-git's own dot-git discovery might wander.
type repository struct {
	root   string // canonical worktree root
	gitDir string
	repo   *git.Repository
}

func openRepository(root string) (*repository, error) {
	gitDir, err := LocateGitDir(root)
	if err != nil {
		return nil, err
	}
	canonRoot, err := canonicalRoot(root)
	if err != nil {
		return nil, err
	}

	storage := filesystem.NewStorage(osfs.New(gitDir), cache.NewObjectLRUDefault())
	repo, err := git.Open(storage, osfs.New(canonRoot))
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrUnavailable
		}
		return nil, ioError("open repository", gitDir, err)
	}

	return &repository{
		root:   canonRoot,
		gitDir: gitDir,
		repo:   repo,
	}, nil
}

// headCommit returns the commit HEAD resolves to, or nil when the repository
// has no history yet (unborn branch).
func (r *repository) headCommit() (*object.Commit, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, ioError("resolve HEAD", "", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, ioError("load commit", ref.Hash().String(), err)
	}
	return commit, nil
}

// loadIndex reads the on-disk index, or synthesizes an empty one when the
// repository has never written one.
func (r *repository) loadIndex() (*index.Index, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		if os.IsNotExist(err) {
			return &index.Index{Version: 2}, nil
		}
		return nil, ioError("open index", "", err)
	}
	if idx == nil {
		return &index.Index{Version: 2}, nil
	}
	return idx, nil
}

func (r *repository) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, ioError("write blob", "", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return plumbing.ZeroHash, ioError("write blob", "", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, ioError("write blob", "", err)
	}
	h, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, ioError("store blob", "", err)
	}
	return h, nil
}

func (r *repository) blobBytes(h plumbing.Hash) ([]byte, error) {
	blob, err := object.GetBlob(r.repo.Storer, h)
	if err != nil {
		return nil, ioError("load blob", h.String(), err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, ioError("read blob", h.String(), err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, ioError("read blob", h.String(), err)
	}
	return data, nil
}

// advanceHead moves the current branch to the new commit, or HEAD itself when
// detached. This is the last write of a commit; everything before it is
// harmless orphaned content if interrupted.
func (r *repository) advanceHead(commit plumbing.Hash) error {
	ref, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return ioError("read HEAD", "", err)
	}
	target := plumbing.HEAD
	if ref.Type() == plumbing.SymbolicReference {
		target = ref.Target()
	}
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(target, commit)); err != nil {
		return ioError("update", target.String(), err)
	}
	return nil
}

// resolveIdentity picks the author and committer signatures for a commit.
// An explicit author wins and is used for both roles; otherwise the GIT_*
// environment variables and then git configuration supply them. Resolution
// happens before any commit object is written so a missing identity aborts
// cleanly.
func (r *repository) resolveIdentity(author *Author) (object.Signature, object.Signature, error) {
	now := time.Now()
	if author != nil {
		if strings.TrimSpace(author.Name) == "" || strings.TrimSpace(author.Email) == "" {
			return object.Signature{}, object.Signature{}, ErrIdentityMissing
		}
		sig := object.Signature{Name: author.Name, Email: author.Email, When: now}
		return sig, sig, nil
	}

	var cfgName, cfgEmail string
	if cfg, err := r.repo.ConfigScoped(config.SystemScope); err == nil {
		cfgName = cfg.User.Name
		cfgEmail = cfg.User.Email
	}

	authorSig := object.Signature{
		Name:  firstNonEmpty(os.Getenv("GIT_AUTHOR_NAME"), cfgName),
		Email: firstNonEmpty(os.Getenv("GIT_AUTHOR_EMAIL"), cfgEmail),
		When:  now,
	}
	committerSig := object.Signature{
		Name:  firstNonEmpty(os.Getenv("GIT_COMMITTER_NAME"), authorSig.Name),
		Email: firstNonEmpty(os.Getenv("GIT_COMMITTER_EMAIL"), authorSig.Email),
		When:  now,
	}
	if authorSig.Name == "" || authorSig.Email == "" ||
		committerSig.Name == "" || committerSig.Email == "" {
		return object.Signature{}, object.Signature{}, ErrIdentityMissing
	}
	return authorSig, committerSig, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
