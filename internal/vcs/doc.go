// Package vcs is the embedded version-control engine for a mindex document
// root. It stages working-tree changes into the git index, builds tree and
// commit objects against the standard object store, and derives a status/diff
// read model, all through go-git's plumbing rather than a git subprocess.
//
// All operations are synchronous and block on file I/O and hashing; callers
// on a request-serving path should run them on their own goroutine. The
// engine takes no locks: commits against one root must be serialized by the
// caller, while status reads may run concurrently and see
// filesystem-snapshot-level consistency at best.
package vcs
