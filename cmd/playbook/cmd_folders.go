package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flagtactics/playbook/internal/playbook"
)

func newFoldersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List folders",
	}
	cmd.AddCommand(newFoldersListCmd(a))
	return cmd
}

func newFoldersListCmd(a *app) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List folders with their paths and play counts",
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

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPATH\tPLAYS")
			fmt.Fprintf(tw, "%s\t%s\t%d\n", playbook.AllPlaysFolderID, "All Plays", len(data.Plays))
			for _, f := range data.Folders {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", f.ID, folderPath(data.Folders, f), len(playbook.PlaysInFolder(data, f.ID)))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "read the local copy without syncing")
	return cmd
}

func folderPath(folders []playbook.Folder, f playbook.Folder) string {
	path, err := playbook.FolderPath(folders, f.ID)
	if err != nil {
		return f.Name
	}
	names := make([]string, len(path))
	for i, p := range path {
		names[i] = p.Name
	}
	return strings.Join(names, " / ")
}
