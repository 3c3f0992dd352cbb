package vcs

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// renderDiff produces the unified diff text for a scan: git-style
// `diff --git` headers, /dev/null markers for additions and removals, and a
// binary marker instead of hunks when either side contains a zero byte.
func (r *repository) renderDiff(scan *worktreeScan) (string, error) {
	var filePatches []fdiff.FilePatch
	for _, c := range scan.changes {
		fp, err := r.filePatchFor(c)
		if err != nil {
			return "", err
		}
		if fp != nil {
			filePatches = append(filePatches, fp)
		}
	}
	if len(filePatches) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	encoder := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines)
	if err := encoder.Encode(&unifiedPatch{filePatches: filePatches}); err != nil {
		return "", ioError("render diff", "", err)
	}
	return buf.String(), nil
}

// filePatchFor builds one file patch, or nil for changes that render no
// content (conflicts, submodules, unreadable additions).
func (r *repository) filePatchFor(c change) (fdiff.FilePatch, error) {
	switch c.kind {
	case changeConflicted, changeSubmodule:
		return nil, nil
	case changeRemoved:
		old, err := r.blobBytes(c.oldHash)
		if err != nil {
			return nil, err
		}
		return newFilePatch(c.path, c.path, old, nil, c), nil
	case changeModified, changeTypeChanged:
		old, err := r.blobBytes(c.oldHash)
		if err != nil {
			return nil, err
		}
		current, err := r.readDiffBytes(c.path)
		if err != nil {
			return nil, err
		}
		return newFilePatch(c.path, c.path, old, current, c), nil
	case changeAdded:
		current, err := r.readDiffBytes(c.path)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, nil
		}
		return newFilePatch("", c.path, nil, current, c), nil
	case changeRenamed:
		old, err := r.blobBytes(c.oldHash)
		if err != nil {
			return nil, err
		}
		current, err := r.readDiffBytes(c.path)
		if err != nil {
			return nil, err
		}
		return newFilePatch(c.from, c.path, old, current, c), nil
	default:
		return nil, nil
	}
}

// readDiffBytes reads current content for display. Unlike staging it is
// tolerant: missing paths, directories, and content reachable only through
// links render as "nothing" rather than failing the whole snapshot.
func (r *repository) readDiffBytes(rel string) ([]byte, error) {
	full := filepath.Join(r.root, filepath.FromSlash(rel))
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ioError("resolve", rel, err)
	}
	if !withinRoot(r.root, resolved) {
		return nil, nil
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ioError("stat", rel, err)
	}
	if fi.IsDir() || !fi.Mode().IsRegular() {
		return nil, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, ioError("read", rel, err)
	}
	return data, nil
}

func newFilePatch(fromPath, toPath string, old, current []byte, c change) fdiff.FilePatch {
	fp := &filePatch{}
	if old != nil {
		fp.from = &diffFile{path: fromPath, mode: c.oldMode, hash: c.oldHash}
	}
	if current != nil {
		mode := c.newMode
		if mode == filemode.Empty {
			mode = filemode.Regular
		}
		fp.to = &diffFile{path: toPath, mode: mode, hash: c.newHash}
	}
	if isBinary(old) || isBinary(current) {
		fp.binary = true
		return fp
	}
	for _, d := range diff.Do(string(old), string(current)) {
		var op fdiff.Operation
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			op = fdiff.Equal
		case diffmatchpatch.DiffDelete:
			op = fdiff.Delete
		case diffmatchpatch.DiffInsert:
			op = fdiff.Add
		}
		fp.chunks = append(fp.chunks, &textChunk{content: d.Text, op: op})
	}
	return fp
}

// unifiedPatch adapts a list of file patches to go-git's encoder interface.
type unifiedPatch struct {
	filePatches []fdiff.FilePatch
}

func (p *unifiedPatch) FilePatches() []fdiff.FilePatch { return p.filePatches }
func (p *unifiedPatch) Message() string                { return "" }

type filePatch struct {
	from, to *diffFile
	chunks   []fdiff.Chunk
	binary   bool
}

func (p *filePatch) IsBinary() bool        { return p.binary }
func (p *filePatch) Chunks() []fdiff.Chunk { return p.chunks }

func (p *filePatch) Files() (fdiff.File, fdiff.File) {
	var from, to fdiff.File
	if p.from != nil {
		from = p.from
	}
	if p.to != nil {
		to = p.to
	}
	return from, to
}

type diffFile struct {
	path string
	mode filemode.FileMode
	hash plumbing.Hash
}

func (f *diffFile) Hash() plumbing.Hash     { return f.hash }
func (f *diffFile) Mode() filemode.FileMode { return f.mode }
func (f *diffFile) Path() string            { return f.path }

type textChunk struct {
	content string
	op      fdiff.Operation
}

func (c *textChunk) Content() string       { return c.content }
func (c *textChunk) Type() fdiff.Operation { return c.op }
