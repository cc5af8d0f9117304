package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flagtactics/playbook/internal/playbook"
)

func newShareCmd(a *app) *cobra.Command {
	var expiresIn int

	cmd := &cobra.Command{
		Use:   "share [folder-id]",
		Short: "Publish a read-only link to a folder's plays",
		Long: "Publishes a snapshot of the plays in a folder and prints its public link.\n" +
			"Without a folder id every play is shared. Local changes are synced first.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID := playbook.AllPlaysFolderID
			if len(args) == 1 {
				folderID = args[0]
			}

			s, err := a.syncer()
			if err != nil {
				return err
			}
			res, err := s.Load(cmd.Context())
			if err != nil {
				return err
			}
			if res.Warning != nil {
				return fmt.Errorf("cannot share until local changes reach the server: %w", res.Warning)
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			share, err := c.CreateShare(cmd.Context(), folderID, expiresIn)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Shared %q (%d plays)\n%s\n", share.FolderName, share.PlayCount, share.URL)
			if share.ExpiresAt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Expires %s\n", share.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&expiresIn, "expires-hours", 0, "hours until the link expires (0 = never)")
	return cmd
}
