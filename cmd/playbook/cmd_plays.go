package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flagtactics/playbook/internal/playbook"
	"github.com/flagtactics/playbook/internal/playsync"
)

func newPlaysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plays",
		Short: "List and delete plays",
	}
	cmd.AddCommand(newPlaysListCmd(a), newPlaysDeleteCmd(a))
	return cmd
}

// loadData syncs first unless offline is set, in which case only the
// local copy is read.
func loadData(cmd *cobra.Command, s *playsync.Syncer, offline bool) (playbook.UserData, error) {
	if offline {
		return s.Local()
	}
	res, err := s.Load(cmd.Context())
	if err != nil {
		return playbook.UserData{}, err
	}
	report(cmd, res)
	return res.Data, nil
}

func newPlaysListCmd(a *app) *cobra.Command {
	var (
		folder  string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plays, optionally in one folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.syncer()
			if err != nil {
				return err
			}
			data, err := loadData(cmd, s, offline)
			if err != nil {
				return err
			}

			var plays []playbook.Play
			switch folder {
			case "unfiled":
				plays = playbook.UnfiledPlays(data)
			case "":
				plays = playbook.PlaysInFolder(data, playbook.AllPlaysFolderID)
			default:
				plays = playbook.PlaysInFolder(data, folder)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tFOLDER\tPLAYERS\tROUTES")
			for _, p := range plays {
				folderName := "-"
				if p.FolderID != nil {
					folderName = *p.FolderID
					if f, ok := playbook.FindFolder(data.Folders, *p.FolderID); ok {
						folderName = f.Name
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", p.ID, p.Name, folderName, len(p.Players), len(p.Routes))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", `folder id, or "unfiled"`)
	cmd.Flags().BoolVar(&offline, "offline", false, "read the local copy without syncing")
	return cmd
}

func newPlaysDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <play-id>",
		Short: "Delete a play locally and on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.syncer()
			if err != nil {
				return err
			}
			res, err := s.DeletePlay(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report(cmd, res)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted play %s\n", args[0])
			return nil
		},
	}
}
