package output_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netrome/mindex/internal/output"
)

func TestSplog(t *testing.T) {
	t.Run("formats messages with a trailing newline", func(t *testing.T) {
		var buf bytes.Buffer
		splog := output.NewSplogTo(&buf)

		splog.Info("%d files changed", 3)
		require.Equal(t, "3 files changed\n", buf.String())
	})

	t.Run("styled levels stay plain without a terminal", func(t *testing.T) {
		var buf bytes.Buffer
		splog := output.NewSplogTo(&buf)

		splog.Notice("Clean")
		splog.Warn("careful")
		splog.Error("broken")
		require.Equal(t, "Clean\ncareful\nbroken\n", buf.String())
	})

	t.Run("page writes content verbatim", func(t *testing.T) {
		var buf bytes.Buffer
		splog := output.NewSplogTo(&buf)

		diff := "diff --git a/a.txt b/a.txt\n-foo\n+bar\n"
		splog.Page(diff)
		require.Equal(t, diff, buf.String())
	})
}
