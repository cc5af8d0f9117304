package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/flagtactics/playbook/internal/playbook"
)

func TestSeedDemo(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for range 2 {
		if err := SeedDemo(ctx, logger, ts.store, ts.store, "demo@example.com", "demo-pass"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", AuthRequest{Email: "demo@example.com", Password: "demo-pass"})
	expectStatus(t, rec, http.StatusOK)
	var login AccountResponse
	decode(t, rec, &login)

	rec = ts.do(t, http.MethodGet, "/api/me/data", login.Token, nil)
	expectStatus(t, rec, http.StatusOK)
	var data playbook.UserData
	decode(t, rec, &data)
	if len(data.Plays) != 1 || len(data.Folders) != 1 {
		t.Fatalf("got %d plays %d folders, want 1 and 1", len(data.Plays), len(data.Folders))
	}
	if got := data.Plays[0].PlayerRouteAssociations["3"]; len(got) != 1 || got[0] != "r3" {
		t.Errorf("associations for player 3 = %v", got)
	}

	// The seeded play can be shared straight away.
	rec = ts.do(t, http.MethodPost, "/api/me/folders/demo-red-zone/share", login.Token, nil)
	expectStatus(t, rec, http.StatusCreated)
}
