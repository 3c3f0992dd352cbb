// Package cli wires the version-control engine to a small command surface.
// It is a stand-in for the serving layer: commands supply a document root and
// an optional author identity and render the engine's results.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/netrome/mindex/internal/output"
	"github.com/netrome/mindex/internal/vcs"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mindex-vcs",
		Short:         "Track and commit changes to a mindex document root",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Add subcommands
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCommitCmd())

	return rootCmd
}

// engineLogger builds the debug logger for a root. Roots without a metadata
// store log nowhere, matching the engine's "feature off" posture.
func engineLogger(root string) *slog.Logger {
	gitDir, err := vcs.LocateGitDir(root)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return output.NewDebugLogger(gitDir)
}
