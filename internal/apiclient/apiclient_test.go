package apiclient_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagtactics/playbook/internal/apiclient"
	"github.com/flagtactics/playbook/internal/database"
	"github.com/flagtactics/playbook/internal/localcache"
	"github.com/flagtactics/playbook/internal/migrations"
	"github.com/flagtactics/playbook/internal/playbook"
	"github.com/flagtactics/playbook/internal/playsync"
	"github.com/flagtactics/playbook/internal/server"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := server.NewDocStore(db, logger)
	srv := httptest.NewServer(server.NewHandler(logger, server.Options{
		Accounts: store,
		Data:     store,
		Shares:   store,
		BaseURL:  "https://flagtactics.test",
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstServer(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	c := apiclient.New(srv.URL, apiclient.WithHTTPClient(srv.Client()))
	sess, err := c.Register(ctx, "coach@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, sess.Token, c.Token())

	data, err := c.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, data.Plays)

	folderID := "f1"
	in := playbook.UserData{
		Plays: []playbook.Play{{
			ID:       "p1",
			Name:     "Slant",
			FolderID: &folderID,
			Routes: []playbook.Route{{
				ID:     "r1",
				Points: []playbook.Point{{200, 300}, {200, 260}},
			}},
		}},
		Folders: []playbook.Folder{{ID: "f1", Name: "Red Zone"}},
	}
	require.NoError(t, c.Store(ctx, in))

	data, err = c.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, playbook.SameContent(in, data))

	share, err := c.CreateShare(ctx, "f1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, share.PlayCount)
	assert.Equal(t, "https://flagtactics.test/shared/"+share.ShareID, share.URL)

	shares, err := c.ListShares(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 1)

	public := apiclient.New(srv.URL, apiclient.WithHTTPClient(srv.Client()))
	snap, err := public.SharedFolder(ctx, share.ShareID)
	require.NoError(t, err)
	assert.Equal(t, "Red Zone", snap.FolderName)

	require.NoError(t, c.DeletePlay(ctx, "p1"))
	require.NoError(t, c.DeletePlay(ctx, "p1"), "deleting twice is not an error")
	require.NoError(t, c.DeleteFolder(ctx, "f1"))
	require.NoError(t, c.DeleteFolder(ctx, "f1"))
}

func TestClientErrors(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	c := apiclient.New(srv.URL, apiclient.WithHTTPClient(srv.Client()))
	_, err := c.Fetch(ctx)
	assert.True(t, apiclient.IsStatus(err, http.StatusUnauthorized))

	_, err = c.Login(ctx, "nobody@example.com", "secret123")
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "auth/invalid-credential", apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)

	_, err = c.Register(ctx, "coach@example.com", "secret123")
	require.NoError(t, err)
	_, err = c.CreateShare(ctx, playbook.AllPlaysFolderID, 0)
	assert.True(t, apiclient.IsStatus(err, http.StatusUnprocessableEntity))
}

func TestSyncerOverHTTP(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	// Two devices for the same account, each with its own local cache.
	device := func() *playsync.Syncer {
		c := apiclient.New(srv.URL, apiclient.WithHTTPClient(srv.Client()))
		_, err := c.Login(ctx, "coach@example.com", "secret123")
		require.NoError(t, err)
		cache, err := localcache.OpenInMemory(nil)
		require.NoError(t, err)
		t.Cleanup(func() { cache.Close() })
		return playsync.New(cache, c, playbook.NewReconciler("local-wins"), nil)
	}

	_, err := apiclient.New(srv.URL, apiclient.WithHTTPClient(srv.Client())).
		Register(ctx, "coach@example.com", "secret123")
	require.NoError(t, err)

	phone, laptop := device(), device()

	res, err := phone.SavePlay(ctx, playbook.Play{ID: "a", Name: "Slant"})
	require.NoError(t, err)
	require.NoError(t, res.Warning)

	res, err = laptop.SavePlay(ctx, playbook.Play{ID: "b", Name: "Post"})
	require.NoError(t, err)
	require.NoError(t, res.Warning)
	require.Len(t, res.Data.Plays, 2)

	res, err = phone.Load(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, p := range res.Data.Plays {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Slant", "Post"}, names)
}
