package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netrome/mindex/internal/output"
	"github.com/netrome/mindex/internal/vcs"
)

func newStatusCmd() *cobra.Command {
	var rootDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pending changes in the document root and their diff",
		RunE: func(cmd *cobra.Command, args []string) error {
			splog := output.NewSplog()
			logger := engineLogger(rootDir)

			snapshot, err := vcs.StatusAndDiff(rootDir)
			if errors.Is(err, vcs.ErrUnavailable) {
				// Missing version control is a disabled feature, not a failure.
				splog.Info("Version control is not available for this root.")
				return nil
			}
			if err != nil {
				return err
			}
			logger.Debug("status computed", "root", rootDir, "changed", snapshot.ChangedFiles)

			switch snapshot.ChangedFiles {
			case 0:
				splog.Notice("Clean")
			case 1:
				splog.Info("1 file changed")
			default:
				splog.Info("%d files changed", snapshot.ChangedFiles)
			}

			if strings.TrimSpace(snapshot.Diff) == "" {
				splog.Info("No changes.")
				return nil
			}
			splog.Page(snapshot.Diff)
			return nil
		},
	}

	cmd.Flags().StringVar(&rootDir, "root", ".", "document root to inspect")
	return cmd
}
