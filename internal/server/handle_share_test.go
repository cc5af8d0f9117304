package server

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/flagtactics/playbook/internal/playbook"
	"github.com/flagtactics/playbook/internal/ratelimit"
)

func seedFolderWithPlay(t *testing.T, ts *testServer, token string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/me/folders", token, FolderRequest{ID: "f1", Name: "Red Zone"})
	expectStatus(t, rec, http.StatusCreated)

	p := samplePlay("p1", "Slant")
	p.FolderID = strPtr("f1")
	rec = ts.do(t, http.MethodPut, "/api/me/plays/p1", token, p)
	expectStatus(t, rec, http.StatusCreated)
}

func TestShareLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "coach@example.com")
	seedFolderWithPlay(t, ts, token)

	rec := ts.do(t, http.MethodPost, "/api/me/folders/f1/share", token, nil)
	expectStatus(t, rec, http.StatusCreated)

	var summary ShareSummary
	decode(t, rec, &summary)
	if summary.ShareID == "" || summary.PlayCount != 1 || summary.FolderName != "Red Zone" {
		t.Fatalf("summary = %+v", summary)
	}
	if want := "https://flagtactics.test/shared/" + summary.ShareID; summary.URL != want {
		t.Errorf("url = %q, want %q", summary.URL, want)
	}
	if summary.ExpiresAt != nil {
		t.Errorf("expiresAt = %v, want none", summary.ExpiresAt)
	}

	// Public read needs no session.
	rec = ts.do(t, http.MethodGet, "/api/shared/"+summary.ShareID, "", nil)
	expectStatus(t, rec, http.StatusOK)
	var snap playbook.SharedFolder
	decode(t, rec, &snap)
	if len(snap.Plays) != 1 || snap.Plays[0].ID != "p1" {
		t.Fatalf("snapshot plays = %+v", snap.Plays)
	}
	if got := snap.Plays[0].Routes[0].Points; len(got) != 3 {
		t.Errorf("route points = %v, want 3 points", got)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "public") {
		t.Errorf("cache-control = %q", cc)
	}

	// The snapshot is unaffected by later edits.
	rec = ts.do(t, http.MethodDelete, "/api/me/plays/p1", token, nil)
	expectStatus(t, rec, http.StatusOK)
	rec = ts.do(t, http.MethodGet, "/api/shared/"+summary.ShareID, "", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/api/me/shares", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var list []ShareSummary
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ShareID != summary.ShareID {
		t.Fatalf("shares = %+v", list)
	}

	rec = ts.do(t, http.MethodDelete, "/api/me/shares/"+summary.ShareID, token, nil)
	expectStatus(t, rec, http.StatusOK)
	rec = ts.do(t, http.MethodGet, "/api/shared/"+summary.ShareID, "", nil)
	expectStatus(t, rec, http.StatusNotFound)
	rec = ts.do(t, http.MethodDelete, "/api/me/shares/"+summary.ShareID, token, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestShareAllPlays(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "coach@example.com")
	seedFolderWithPlay(t, ts, token)
	rec := ts.do(t, http.MethodPut, "/api/me/plays/p2", token, samplePlay("p2", "Post"))
	expectStatus(t, rec, http.StatusCreated)

	rec = ts.do(t, http.MethodPost, "/api/me/folders/all-plays/share", token, ShareRequest{ExpiresInHours: 24})
	expectStatus(t, rec, http.StatusCreated)

	var summary ShareSummary
	decode(t, rec, &summary)
	if summary.PlayCount != 2 || summary.FolderName != "All Plays" {
		t.Errorf("summary = %+v", summary)
	}
	if summary.ExpiresAt == nil {
		t.Fatal("expected expiresAt")
	}
	if d := summary.ExpiresAt.Sub(summary.CreatedAt); d != 24*time.Hour {
		t.Errorf("expiry window = %v, want 24h", d)
	}
}

func TestShareErrors(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "coach@example.com")
	rec := ts.do(t, http.MethodPost, "/api/me/folders", token, FolderRequest{ID: "empty", Name: "Empty"})
	expectStatus(t, rec, http.StatusCreated)

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
	}{
		{"empty folder", "/api/me/folders/empty/share", nil, http.StatusUnprocessableEntity},
		{"no plays at all", "/api/me/folders/all-plays/share", nil, http.StatusUnprocessableEntity},
		{"unknown folder", "/api/me/folders/nope/share", nil, http.StatusNotFound},
		{"expiry out of range", "/api/me/folders/empty/share", ShareRequest{ExpiresInHours: 9000}, http.StatusBadRequest},
		{"bad body", "/api/me/folders/empty/share", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, tt.path, token, tt.body)
			expectStatus(t, rec, tt.wantStatus)
		})
	}

	rec = ts.do(t, http.MethodGet, "/api/me/shares", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var list []ShareSummary
	decode(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("failed shares were stored: %+v", list)
	}
}

func TestSharedFolderExpired(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "coach@example.com")
	ownerID := accountID(t, ts, token)

	past := time.Now().Add(-time.Hour)
	snap := playbook.SharedFolder{
		ShareID:    "expired-share",
		FolderID:   playbook.AllPlaysFolderID,
		FolderName: "All Plays",
		Plays:      []playbook.Play{samplePlay("p1", "Slant")},
		CreatedAt:  past.Add(-time.Hour),
		ExpiresAt:  &past,
	}
	if err := ts.store.CreateShare(context.Background(), ownerID, snap); err != nil {
		t.Fatalf("creating share: %v", err)
	}

	rec := ts.do(t, http.MethodGet, "/api/shared/expired-share", "", nil)
	expectStatus(t, rec, http.StatusGone)
}

func TestOtherUserCannotDeleteShare(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice@example.com")
	bob := ts.register(t, "bob@example.com")
	seedFolderWithPlay(t, ts, alice)

	rec := ts.do(t, http.MethodPost, "/api/me/folders/f1/share", alice, nil)
	expectStatus(t, rec, http.StatusCreated)
	var summary ShareSummary
	decode(t, rec, &summary)

	rec = ts.do(t, http.MethodDelete, "/api/me/shares/"+summary.ShareID, bob, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = ts.do(t, http.MethodGet, "/api/shared/"+summary.ShareID, "", nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestSharedFolderRateLimited(t *testing.T) {
	limiter := ratelimit.New(0.001, 2)
	t.Cleanup(limiter.Stop)
	ts := newTestServerWith(t, func(o *Options) { o.ShareLimiter = limiter })

	for i := range 2 {
		rec := ts.do(t, http.MethodGet, "/api/shared/missing", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("request %d: status = %d, want 404", i, rec.Code)
		}
	}
	rec := ts.do(t, http.MethodGet, "/api/shared/missing", "", nil)
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

type memShareCache struct {
	entries map[string]playbook.SharedFolder
	hits    int
}

func (c *memShareCache) Get(_ context.Context, id string) (playbook.SharedFolder, bool) {
	s, ok := c.entries[id]
	if ok {
		c.hits++
	}
	return s, ok
}

func (c *memShareCache) Set(_ context.Context, s playbook.SharedFolder) {
	c.entries[s.ShareID] = s
}

func (c *memShareCache) Delete(_ context.Context, id string) {
	delete(c.entries, id)
}

func TestSharedFolderUsesCache(t *testing.T) {
	cache := &memShareCache{entries: map[string]playbook.SharedFolder{}}
	ts := newTestServerWith(t, func(o *Options) { o.ShareCache = cache })
	token := ts.register(t, "coach@example.com")
	seedFolderWithPlay(t, ts, token)

	rec := ts.do(t, http.MethodPost, "/api/me/folders/f1/share", token, nil)
	expectStatus(t, rec, http.StatusCreated)
	var summary ShareSummary
	decode(t, rec, &summary)

	for range 2 {
		rec = ts.do(t, http.MethodGet, "/api/shared/"+summary.ShareID, "", nil)
		expectStatus(t, rec, http.StatusOK)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}

	rec = ts.do(t, http.MethodDelete, "/api/me/shares/"+summary.ShareID, token, nil)
	expectStatus(t, rec, http.StatusOK)
	if _, ok := cache.entries[summary.ShareID]; ok {
		t.Error("cache entry survived share deletion")
	}
}
