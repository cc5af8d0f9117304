package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the local copy with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.syncer()
			if err != nil {
				return err
			}
			res, err := s.Load(cmd.Context())
			if err != nil {
				return err
			}
			report(cmd, res)

			state := "up to date"
			if res.Stored {
				state = "server updated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d plays, %d folders (%s)\n", len(res.Data.Plays), len(res.Data.Folders), state)
			return nil
		},
	}
}
