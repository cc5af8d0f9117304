package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flagtactics/playbook/internal/playbook"
)

var errBadPlay = errors.New("invalid play")

func validatePlay(p *playbook.Play, folders []playbook.Folder) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", errBadPlay)
	}
	if len(p.Name) > 200 {
		return fmt.Errorf("%w: name must not exceed 200 characters", errBadPlay)
	}
	if p.FolderID != nil {
		if *p.FolderID == "" {
			p.FolderID = nil
			return nil
		}
		if *p.FolderID == playbook.AllPlaysFolderID {
			return fmt.Errorf("%w: %q is not a real folder", errBadPlay, playbook.AllPlaysFolderID)
		}
		if _, ok := playbook.FindFolder(folders, *p.FolderID); !ok {
			return fmt.Errorf("%w: folder %s does not exist", errBadPlay, *p.FolderID)
		}
	}
	return nil
}

// handleListPlays lists plays, optionally narrowed by ?folderId=. The
// value "unfiled" selects plays without a folder.
func handleListPlays(logger *slog.Logger, store UserDataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)

		data, err := store.LoadUserData(r.Context(), acct.ID)
		if err != nil {
			logger.Error("loading user data", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		var plays []playbook.Play
		switch folderID := r.URL.Query().Get("folderId"); folderID {
		case "", playbook.AllPlaysFolderID:
			plays = playbook.PlaysInFolder(data, playbook.AllPlaysFolderID)
		case "unfiled":
			plays = playbook.UnfiledPlays(data)
		default:
			plays = playbook.PlaysInFolder(data, folderID)
		}
		writeJSON(w, http.StatusOK, plays)
	}
}

func handleGetPlay(logger *slog.Logger, store UserDataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)

		data, err := store.LoadUserData(r.Context(), acct.ID)
		if err != nil {
			logger.Error("loading user data", "user_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		play, ok := playbook.FindPlay(data, chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "play not found")
			return
		}
		writeJSON(w, http.StatusOK, play)
	}
}

// handlePutPlay creates or replaces a play. The id comes from the path;
// creation time is kept from the stored copy when there is one.
func handlePutPlay(logger *slog.Logger, store UserDataStore, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)
		playID := chi.URLParam(r, "id")

		var play playbook.Play
		if err := readJSON(r, &play); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if play.ID != "" && play.ID != playID {
			writeError(w, http.StatusBadRequest, "play id does not match path")
			return
		}
		play.ID = playID

		status := http.StatusOK
		_, err := mutateUserData(r.Context(), store, broker, acct.ID, func(data playbook.UserData) (playbook.UserData, error) {
			if err := validatePlay(&play, data.Folders); err != nil {
				return data, err
			}
			now := time.Now().UTC()
			if existing, ok := playbook.FindPlay(data, playID); ok {
				play.CreatedAt = existing.CreatedAt
			} else {
				status = http.StatusCreated
				if play.CreatedAt.IsZero() {
					play.CreatedAt = now
				}
			}
			play.UpdatedAt = now
			return playbook.UpsertPlay(data, play), nil
		})
		if errors.Is(err, errBadPlay) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			logger.Error("saving play", "user_id", acct.ID, "play_id", playID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, status, play)
	}
}

func handleDeletePlay(logger *slog.Logger, store UserDataStore, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)
		playID := chi.URLParam(r, "id")

		_, err := mutateUserData(r.Context(), store, broker, acct.ID, func(data playbook.UserData) (playbook.UserData, error) {
			data, found := playbook.RemovePlay(data, playID)
			if !found {
				return data, ErrNotFound
			}
			return data, nil
		})
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "play not found")
			return
		}
		if err != nil {
			logger.Error("deleting play", "user_id", acct.ID, "play_id", playID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
