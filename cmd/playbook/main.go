// Command playbook is a terminal client for Flag Tactics. It keeps a local
// copy of your plays and folders and syncs it with the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flagtactics/playbook/internal/apiclient"
	"github.com/flagtactics/playbook/internal/localcache"
	"github.com/flagtactics/playbook/internal/playbook"
	"github.com/flagtactics/playbook/internal/playsync"
)

var errNotLoggedIn = errors.New("not logged in, run `playbook login` first")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one command line. The local cache is closed on return,
// including when the command fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// session is persisted under localcache.KeySession.
type session struct {
	Server string `json:"server"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type app struct {
	serverURL string
	cacheDir  string
	policy    string
	verbose   bool

	logger *slog.Logger
	cache  *localcache.Store
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "playbook",
		Short:         "Design, sync and share flag football plays",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.serverURL, "server", envOr("PLAYBOOK_SERVER", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&a.cacheDir, "cache-dir", envOr("PLAYBOOK_CACHE_DIR", defaultCacheDir()), "local cache directory")
	root.PersistentFlags().StringVar(&a.policy, "policy", "local-wins", "merge policy: local-wins or newest-wins")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log sync details to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newSyncCmd(a),
		newPlaysCmd(a),
		newFoldersCmd(a),
		newShareCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	switch a.policy {
	case "local-wins", "newest-wins":
	default:
		return fmt.Errorf("unknown merge policy %q", a.policy)
	}

	if err := os.MkdirAll(a.cacheDir, 0o700); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	cache, err := localcache.Open(a.cacheDir, a.logger)
	if err != nil {
		return err
	}
	a.cache = cache
	return nil
}

func (a *app) close() error {
	if a.cache == nil {
		return nil
	}
	err := a.cache.Close()
	a.cache = nil
	return err
}

func (a *app) session() (session, error) {
	raw, ok, err := a.cache.Get(localcache.KeySession)
	if err != nil {
		return session{}, err
	}
	if !ok {
		return session{}, errNotLoggedIn
	}
	var s session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Token == "" {
		return session{}, errNotLoggedIn
	}
	return s, nil
}

func (a *app) saveSession(s session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return a.cache.Set(localcache.KeySession, string(b))
}

// client returns an API client for the logged-in session. The session's
// server wins over --server so a cache is never synced to two servers.
func (a *app) client() (*apiclient.Client, error) {
	s, err := a.session()
	if err != nil {
		return nil, err
	}
	return apiclient.New(s.Server, apiclient.WithToken(s.Token)), nil
}

func (a *app) syncer() (*playsync.Syncer, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	return playsync.New(a.cache, c, playbook.NewReconciler(a.policy), a.logger), nil
}

// report prints a sync warning without failing the command.
func report(cmd *cobra.Command, res playsync.Result) {
	if res.Warning != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", res.Warning)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".playbook"
	}
	return filepath.Join(dir, "flagtactics")
}
