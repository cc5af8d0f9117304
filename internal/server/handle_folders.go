package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flagtactics/playbook/internal/id"
	"github.com/flagtactics/playbook/internal/playbook"
)

// FolderRequest is the request body for creating or updating a folder.
// ID is optional on create; clients that work offline supply their own.
type FolderRequest struct {
	ID       string  `json:"id,omitempty" validate:"omitempty,max=128,ne=all-plays"`
	Name     string  `json:"name" validate:"required,max=120"`
	ParentID *string `json:"parentId,omitempty"`
}

// FolderSummary is a folder with the number of plays filed directly in it.
type FolderSummary struct {
	playbook.Folder
	PlayCount int `json:"playCount"`
}

func folderErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, playbook.ErrFolderCycle):
		return http.StatusConflict, "a folder cannot be moved inside itself"
	case errors.Is(err, playbook.ErrReservedID):
		return http.StatusBadRequest, "the All Plays folder cannot be modified"
	case errors.Is(err, playbook.ErrFolderNotFound):
		return http.StatusBadRequest, "parent folder not found"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "folder not found"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "folder already exists"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func handleListFolders(logger *slog.Logger, store UserDataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)

		data, err := store.LoadUserData(r.Context(), acct.ID)
		if err != nil {
			logger.Error("loading user data", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]FolderSummary, len(data.Folders))
		for i, f := range data.Folders {
			out[i] = FolderSummary{Folder: f, PlayCount: len(playbook.PlaysInFolder(data, f.ID))}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleCreateFolder(logger *slog.Logger, store UserDataStore, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)

		var req FolderRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if fields, _ := fieldErrors(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		now := time.Now().UTC()
		folder := playbook.Folder{
			ID:        req.ID,
			Name:      req.Name,
			ParentID:  req.ParentID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if folder.ID == "" {
			folder.ID = id.New()
		}

		_, err := mutateUserData(r.Context(), store, broker, acct.ID, func(data playbook.UserData) (playbook.UserData, error) {
			if _, exists := playbook.FindFolder(data.Folders, folder.ID); exists {
				return data, ErrConflict
			}
			if err := playbook.ValidateFolderParent(data.Folders, folder.ID, folder.ParentID); err != nil {
				return data, err
			}
			return playbook.UpsertFolder(data, folder), nil
		})
		if err != nil {
			status, msg := folderErrorStatus(err)
			if status == http.StatusInternalServerError {
				logger.Error("creating folder", "user_id", acct.ID, "error", err)
			}
			writeError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusCreated, folder)
	}
}

// handleUpdateFolder renames and/or moves a folder.
func handleUpdateFolder(logger *slog.Logger, store UserDataStore, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)
		folderID := chi.URLParam(r, "id")

		var req FolderRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.ID = ""
		if fields, _ := fieldErrors(req); fields != nil {
			writeValidationError(w, fields)
			return
		}

		var updated playbook.Folder
		_, err := mutateUserData(r.Context(), store, broker, acct.ID, func(data playbook.UserData) (playbook.UserData, error) {
			folder, ok := playbook.FindFolder(data.Folders, folderID)
			if !ok {
				return data, ErrNotFound
			}
			if err := playbook.ValidateFolderParent(data.Folders, folderID, req.ParentID); err != nil {
				return data, err
			}
			folder.Name = req.Name
			folder.ParentID = req.ParentID
			folder.UpdatedAt = time.Now().UTC()
			updated = folder
			return playbook.UpsertFolder(data, folder), nil
		})
		if err != nil {
			status, msg := folderErrorStatus(err)
			if status == http.StatusInternalServerError {
				logger.Error("updating folder", "user_id", acct.ID, "folder_id", folderID, "error", err)
			}
			writeError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// handleDeleteFolder removes a folder. Subfolders move up one level and
// the folder's plays become unfiled; no play is deleted.
func handleDeleteFolder(logger *slog.Logger, store UserDataStore, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)
		folderID := chi.URLParam(r, "id")
		if folderID == playbook.AllPlaysFolderID {
			writeError(w, http.StatusBadRequest, "the All Plays folder cannot be modified")
			return
		}

		_, err := mutateUserData(r.Context(), store, broker, acct.ID, func(data playbook.UserData) (playbook.UserData, error) {
			out, err := playbook.RemoveFolder(data, folderID)
			if errors.Is(err, playbook.ErrFolderNotFound) {
				return data, ErrNotFound
			}
			return out, err
		})
		if err != nil {
			status, msg := folderErrorStatus(err)
			if status == http.StatusInternalServerError {
				logger.Error("deleting folder", "user_id", acct.ID, "folder_id", folderID, "error", err)
			}
			writeError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
