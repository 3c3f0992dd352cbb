package vcs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy.
// Use errors.Is() and errors.As() to check for specific error types.
var (
	// ErrUnavailable indicates that the root has no usable metadata store.
	// Callers treat this as "version control is off", not as a failure.
	ErrUnavailable = errors.New("version control is not available")

	// ErrUnsupported indicates repository state the engine refuses to touch
	// (symlinks, conflicts, submodule changes, sparse entries, path collisions).
	ErrUnsupported = errors.New("unsupported repository state")

	// ErrNothingToCommit indicates the working tree matches HEAD exactly.
	// No index or reference writes happen when this is returned.
	ErrNothingToCommit = errors.New("no changes to commit")

	// ErrIdentityMissing indicates that no author/committer identity could be
	// resolved from the caller, the environment, or git configuration.
	ErrIdentityMissing = errors.New("git identity is not configured")
)

// SymlinkError reports a symlinked path encountered while staging.
type SymlinkError struct {
	Path string
}

func (e *SymlinkError) Error() string {
	return fmt.Sprintf("symlinks are not supported: %s", e.Path)
}

// Is returns true if the target error is ErrUnsupported
func (e *SymlinkError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewSymlinkError creates a new SymlinkError
func NewSymlinkError(path string) *SymlinkError {
	return &SymlinkError{Path: path}
}

// ConflictError reports an index entry with a non-zero merge stage.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	if e.Path == "" {
		return "conflicted index entries are not supported"
	}
	return fmt.Sprintf("conflicted index entries are not supported: %s", e.Path)
}

// Is returns true if the target error is ErrUnsupported
func (e *ConflictError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewConflictError creates a new ConflictError
func NewConflictError(path string) *ConflictError {
	return &ConflictError{Path: path}
}

// SubmoduleError reports a modified submodule, which the engine never stages.
type SubmoduleError struct {
	Path string
}

func (e *SubmoduleError) Error() string {
	return fmt.Sprintf("submodule changes are not supported: %s", e.Path)
}

// Is returns true if the target error is ErrUnsupported
func (e *SubmoduleError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewSubmoduleError creates a new SubmoduleError
func NewSubmoduleError(path string) *SubmoduleError {
	return &SubmoduleError{Path: path}
}

// PathConflictError reports an index path used both as a file and a directory,
// or a "." / ".." path component, neither of which can form a valid tree.
type PathConflictError struct {
	Path string
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("invalid or conflicting tree path: %s", e.Path)
}

// Is returns true if the target error is ErrUnsupported
func (e *PathConflictError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewPathConflictError creates a new PathConflictError
func NewPathConflictError(path string) *PathConflictError {
	return &PathConflictError{Path: path}
}

// ioError wraps an underlying read/write failure with operation and path
// context. The operation stays fatal for the call and is never retried.
func ioError(op, path string, err error) error {
	if path == "" {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
