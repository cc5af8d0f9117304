package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/flagtactics/playbook/internal/playbook"
)

// SyncResponse is the response for POST /api/me/data/sync.
type SyncResponse struct {
	Data    playbook.UserData `json:"data"`
	Changed bool              `json:"changed"`
}

// mutateUserData applies fn to the user's stored document and saves the
// result. There is no locking: concurrent writers overwrite each other at
// document granularity.
func mutateUserData(ctx context.Context, store UserDataStore, broker *Broker, userID string, fn func(playbook.UserData) (playbook.UserData, error)) (playbook.UserData, error) {
	data, err := store.LoadUserData(ctx, userID)
	if err != nil {
		return playbook.UserData{}, fmt.Errorf("loading user data: %w", err)
	}
	data, err = fn(data)
	if err != nil {
		return playbook.UserData{}, err
	}
	data.UpdatedAt = time.Now().UTC()
	if err := store.SaveUserData(ctx, userID, data); err != nil {
		return playbook.UserData{}, fmt.Errorf("saving user data: %w", err)
	}
	publishChange(broker, userID, data)
	return data, nil
}

func publishChange(broker *Broker, userID string, data playbook.UserData) {
	broker.Publish(userID, SyncEvent{
		Type:        eventDataChanged,
		UpdatedAt:   data.UpdatedAt,
		PlayCount:   len(data.Plays),
		FolderCount: len(data.Folders),
	})
}

func validateUserData(data playbook.UserData) error {
	if err := playbook.ValidatePlays(data.Plays); err != nil {
		return err
	}
	return playbook.ValidateFolderTree(data.Folders)
}

func handleGetData(logger *slog.Logger, store UserDataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)

		data, err := store.LoadUserData(r.Context(), acct.ID)
		if err != nil {
			logger.Error("loading user data", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

// handlePutData replaces the stored document with the request body.
func handlePutData(logger *slog.Logger, store UserDataStore, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)

		var body playbook.UserData
		if err := readJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validateUserData(body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if body.UpdatedAt.IsZero() {
			body.UpdatedAt = time.Now().UTC()
		}
		if err := store.SaveUserData(r.Context(), acct.ID, body); err != nil {
			logger.Error("saving user data", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		publishChange(broker, acct.ID, body)
		writeJSON(w, http.StatusOK, body)
	}
}

// handleSyncData reconciles the client's local copy (request body) with
// the stored copy and stores the result when it differs.
func handleSyncData(logger *slog.Logger, store UserDataStore, broker *Broker, reconciler *playbook.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)

		var local playbook.UserData
		if err := readJSON(r, &local); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		remote, err := store.LoadUserData(r.Context(), acct.ID)
		if err != nil {
			logger.Error("loading user data", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		merged, changed := reconciler.Reconcile(local, remote)
		if !changed {
			writeJSON(w, http.StatusOK, SyncResponse{Data: merged, Changed: false})
			return
		}

		if err := validateUserData(merged); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, playbook.ErrFolderCycle) {
				status = http.StatusConflict
			}
			writeError(w, status, err.Error())
			return
		}

		if err := store.SaveUserData(r.Context(), acct.ID, merged); err != nil {
			logger.Error("saving merged user data", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		logger.Info("user data reconciled",
			"user_id", acct.ID,
			"plays", len(merged.Plays),
			"folders", len(merged.Folders),
		)
		publishChange(broker, acct.ID, merged)
		writeJSON(w, http.StatusOK, SyncResponse{Data: merged, Changed: true})
	}
}
