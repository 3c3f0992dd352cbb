package vcs

// Snapshot is the status/diff read model consumed by the serving layer. It is
// derived on every call and never persisted.
type Snapshot struct {
	// ChangedFiles counts every path with a non-empty classification,
	// untracked additions included.
	ChangedFiles int
	// Diff is unified diff text for all changed files, empty when clean.
	Diff string
}

// StatusAndDiff computes a read-only snapshot of the root's pending changes.
// Before any commit exists it reports a clean tree rather than flagging every
// file as a pending addition. It never mutates the index, the object store,
// or HEAD, and two calls with no intervening filesystem change produce
// identical output.
func StatusAndDiff(root string) (*Snapshot, error) {
	r, err := openRepository(root)
	if err != nil {
		return nil, err
	}
	head, err := r.headCommit()
	if err != nil {
		return nil, err
	}
	if head == nil {
		return &Snapshot{}, nil
	}

	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	scan, err := r.scanWorktree(idx)
	if err != nil {
		return nil, err
	}
	diffText, err := r.renderDiff(scan)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ChangedFiles: len(scan.changes),
		Diff:         diffText,
	}, nil
}
