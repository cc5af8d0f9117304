package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flagtactics/playbook/internal/id"
	"github.com/flagtactics/playbook/internal/playbook"
)

// ShareRequest is the optional request body for POST /api/me/folders/{id}/share.
type ShareRequest struct {
	ExpiresInHours int `json:"expiresInHours,omitempty" validate:"gte=0,lte=8760"`
}

func shareSummary(baseURL string, s playbook.SharedFolder) ShareSummary {
	return ShareSummary{
		ShareID:    s.ShareID,
		URL:        playbook.ShareURL(baseURL, s.ShareID),
		FolderID:   s.FolderID,
		FolderName: s.FolderName,
		PlayCount:  len(s.Plays),
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
	}
}

// handleCreateShare publishes a snapshot of a folder's plays. An empty
// folder is rejected before anything is written.
func handleCreateShare(logger *slog.Logger, store UserDataStore, shares ShareStore, broker *Broker, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)
		folderID := chi.URLParam(r, "id")

		var req ShareRequest
		// The body is optional.
		if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if fields, _ := fieldErrors(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		data, err := store.LoadUserData(r.Context(), acct.ID)
		if err != nil {
			logger.Error("loading user data", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		now := time.Now()
		shareID, err := id.NewShareID(now)
		if err != nil {
			logger.Error("generating share id", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		snapshot, err := playbook.NewSharedFolder(data, folderID, shareID, now, time.Duration(req.ExpiresInHours)*time.Hour)
		switch {
		case errors.Is(err, playbook.ErrFolderNotFound):
			writeError(w, http.StatusNotFound, "folder not found")
			return
		case errors.Is(err, playbook.ErrEmptyFolder):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		case err != nil:
			logger.Error("building share", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := shares.CreateShare(r.Context(), acct.ID, snapshot); err != nil {
			logger.Error("saving share", "user_id", acct.ID, "share_id", shareID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not create share link")
			return
		}

		logger.Info("share created",
			"user_id", acct.ID,
			"share_id", shareID,
			"folder_id", folderID,
			"plays", len(snapshot.Plays),
		)
		broker.Publish(acct.ID, SyncEvent{Type: eventShareCreated, ShareID: shareID})
		writeJSON(w, http.StatusCreated, shareSummary(baseURL, snapshot))
	}
}

func handleListShares(logger *slog.Logger, shares ShareStore, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)

		list, err := shares.ListShares(r.Context(), acct.ID)
		if err != nil {
			logger.Error("listing shares", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]ShareSummary, len(list))
		for i, s := range list {
			out[i] = shareSummary(baseURL, s)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleDeleteShare(logger *slog.Logger, shares ShareStore, cache ShareCache, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)
		shareID := chi.URLParam(r, "shareId")

		if err := shares.DeleteShare(r.Context(), acct.ID, shareID); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "share not found")
				return
			}
			logger.Error("deleting share", "user_id", acct.ID, "share_id", shareID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		cache.Delete(r.Context(), shareID)
		broker.Publish(acct.ID, SyncEvent{Type: eventShareDeleted, ShareID: shareID})
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleGetSharedFolder serves a share snapshot without authentication.
func handleGetSharedFolder(logger *slog.Logger, shares ShareStore, cache ShareCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shareID := chi.URLParam(r, "shareId")

		snapshot, hit := cache.Get(r.Context(), shareID)
		if !hit {
			var err error
			snapshot, err = shares.GetShare(r.Context(), shareID)
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "shared folder not found")
				return
			}
			if err != nil {
				logger.Error("loading share", "share_id", shareID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
		}

		if snapshot.Expired(time.Now()) {
			writeError(w, http.StatusGone, "this shared link has expired")
			return
		}
		if !hit {
			cache.Set(r.Context(), snapshot)
		}

		w.Header().Set("Cache-Control", "public, max-age=60")
		writeJSON(w, http.StatusOK, snapshot)
	}
}
