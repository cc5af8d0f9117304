package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/flagtactics/playbook/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, opts Options, broker *Broker) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Flag Tactics API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, opts.Checks).Routes())

	// Auth.
	r.Post("/api/auth/register", handleRegister(logger, opts.Accounts, opts.SessionTTL))
	r.Post("/api/auth/login", handleLogin(logger, opts.Accounts, opts.SessionTTL))
	r.Post("/api/auth/logout", handleLogout(opts.Accounts))

	// Public share snapshots, no session required.
	r.Group(func(r chi.Router) {
		if opts.ShareLimiter != nil {
			r.Use(opts.ShareLimiter.Middleware)
		}
		r.Get("/api/shared/{shareId}", handleGetSharedFolder(logger, opts.Shares, opts.ShareCache))
	})

	// Event streams accept ?token= since browsers cannot set headers on them.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(opts.Accounts, true))
		r.Get("/api/me/events", handleEvents(broker))
		r.Get("/ws/sync", handleWSSync(logger, broker, opts.CORSOrigins))
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(opts.Accounts, false))

		r.Get("/api/auth/me", handleMe())

		r.Get("/api/me/data", handleGetData(logger, opts.Data))
		r.Put("/api/me/data", handlePutData(logger, opts.Data, broker))
		r.Post("/api/me/data/sync", handleSyncData(logger, opts.Data, broker, opts.Reconciler))

		r.Get("/api/me/plays", handleListPlays(logger, opts.Data))
		r.Get("/api/me/plays/{id}", handleGetPlay(logger, opts.Data))
		r.Put("/api/me/plays/{id}", handlePutPlay(logger, opts.Data, broker))
		r.Delete("/api/me/plays/{id}", handleDeletePlay(logger, opts.Data, broker))

		r.Get("/api/me/folders", handleListFolders(logger, opts.Data))
		r.Post("/api/me/folders", handleCreateFolder(logger, opts.Data, broker))
		r.Put("/api/me/folders/{id}", handleUpdateFolder(logger, opts.Data, broker))
		r.Delete("/api/me/folders/{id}", handleDeleteFolder(logger, opts.Data, broker))
		r.Post("/api/me/folders/{id}/share", handleCreateShare(logger, opts.Data, opts.Shares, broker, opts.BaseURL))

		r.Get("/api/me/shares", handleListShares(logger, opts.Shares, opts.BaseURL))
		r.Delete("/api/me/shares/{shareId}", handleDeleteShare(logger, opts.Shares, opts.ShareCache, broker))
	})

	if opts.SPADir != "" {
		if info, err := os.Stat(opts.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", opts.SPADir)
			r.NotFound(handleSPA(opts.SPADir))
			return
		}
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}
