package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netrome/mindex/internal/output"
	"github.com/netrome/mindex/internal/vcs"
)

func newCommitCmd() *cobra.Command {
	var (
		rootDir     string
		message     string
		authorName  string
		authorEmail string
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Stage every pending change and record a commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			splog := output.NewSplog()

			var author *vcs.Author
			if authorName != "" || authorEmail != "" {
				author = &vcs.Author{Name: authorName, Email: authorEmail}
			}

			logger := engineLogger(rootDir)
			logger.Debug("committing", "root", rootDir)

			commitID, err := vcs.CommitAll(rootDir, message, author)
			switch {
			case errors.Is(err, vcs.ErrUnavailable):
				splog.Info("Version control is not available for this root.")
				return nil
			case errors.Is(err, vcs.ErrNothingToCommit):
				splog.Info("Nothing to commit.")
				return nil
			case errors.Is(err, vcs.ErrIdentityMissing):
				return fmt.Errorf("no author identity: set user.name and user.email in git config, or pass --author-name and --author-email")
			case err != nil:
				return err
			}

			logger.Debug("commit written", "commit", commitID.String())
			splog.Notice("Committed %s", commitID.String()[:7])
			return nil
		},
	}

	cmd.Flags().StringVar(&rootDir, "root", ".", "document root to commit")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&authorName, "author-name", "", "author name override")
	cmd.Flags().StringVar(&authorEmail, "author-email", "", "author email override")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
