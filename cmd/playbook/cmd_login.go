package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flagtactics/playbook/internal/apiclient"
	"github.com/flagtactics/playbook/internal/localcache"
)

func newLoginCmd(a *app) *cobra.Command {
	var (
		email    string
		password string
		register bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("PLAYBOOK_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or PLAYBOOK_PASSWORD) are required")
			}

			c := apiclient.New(a.serverURL)
			signIn := c.Login
			if register {
				signIn = c.Register
			}
			s, err := signIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			// A different account must not inherit the previous one's cache.
			if prev, err := a.session(); err == nil && (prev.Email != s.Email || prev.Server != a.serverURL) {
				for _, key := range []string{localcache.KeySavedPlays, localcache.KeyPlayFolders, localcache.KeyEditingPlay} {
					if err := a.cache.Delete(key); err != nil {
						return err
					}
				}
			}

			if err := a.saveSession(session{Server: a.serverURL, Email: s.Email, Token: s.Token}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", s.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&register, "register", false, "create the account first")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cache.Delete(localcache.KeySession); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
