//go:build linux

package vcs

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/stretchr/testify/require"
)

func TestApplyEntryStat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	fi, err := os.Lstat(path)
	require.NoError(t, err)

	e := &index.Entry{Name: "f.txt"}
	applyEntryStat(e, fi)

	require.True(t, e.ModifiedAt.Equal(fi.ModTime()))
	require.Equal(t, uint32(1), e.Size)

	st, ok := fi.Sys().(*syscall.Stat_t)
	require.True(t, ok)
	require.True(t, e.CreatedAt.Equal(time.Unix(st.Ctim.Unix())))
	require.Equal(t, uint32(st.Ino), e.Inode)
}
