// Package playsync keeps the local cache and the server copy of a user's
// plays and folders consistent.
//
// Every mutation lands in the local cache first. The server is then brought
// up to date by reconciling the two copies with the configured merge
// policy. A server failure never undoes a local change; it is reported as a
// warning on the Result instead.
package playsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flagtactics/playbook/internal/localcache"
	"github.com/flagtactics/playbook/internal/playbook"
)

// ErrNotPersisted wraps the warning returned when a change was kept locally
// but the server could not be updated.
var ErrNotPersisted = errors.New("saved locally but the server could not be updated")

// Cache is a string key/value store such as localcache.Store.
type Cache interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Remote is the server copy of the user's data.
type Remote interface {
	Fetch(ctx context.Context) (playbook.UserData, error)
	Store(ctx context.Context, data playbook.UserData) error
	DeletePlay(ctx context.Context, id string) error
	DeleteFolder(ctx context.Context, id string) error
}

// Result is the outcome of a sync operation.
type Result struct {
	Data playbook.UserData
	// Stored is true when the server copy was rewritten.
	Stored bool
	// Warning is set when the server could not be read or written. Data
	// then reflects the local copy.
	Warning error
}

type Syncer struct {
	cache      Cache
	remote     Remote
	reconciler *playbook.Reconciler
	logger     *slog.Logger

	mu sync.Mutex
}

func New(cache Cache, remote Remote, reconciler *playbook.Reconciler, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Syncer{cache: cache, remote: remote, reconciler: reconciler, logger: logger}
}

func (s *Syncer) now() time.Time {
	if s.reconciler != nil && s.reconciler.Now != nil {
		return s.reconciler.Now().UTC()
	}
	return time.Now().UTC()
}

// Local returns the cached copy without contacting the server.
func (s *Syncer) Local() (playbook.UserData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocal()
}

// Load fetches the server copy and reconciles it with the local one. The
// merge is written to the cache, and to the server when it differs from
// what the server held. If the fetch fails the local copy is returned with
// a warning.
func (s *Syncer) Load(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconcile(ctx)
}

// SavePlay stores p locally, replacing any play with the same id, then
// syncs with the server.
func (s *Syncer) SavePlay(ctx context.Context, p playbook.Play) (Result, error) {
	return s.mutate(ctx, func(data playbook.UserData) (playbook.UserData, error) {
		return playbook.UpsertPlay(data, p), nil
	})
}

// SaveFolder stores f locally after checking that its parent keeps the
// folder graph acyclic, then syncs with the server. UpdatedAt is stamped
// with the current time.
func (s *Syncer) SaveFolder(ctx context.Context, f playbook.Folder) (Result, error) {
	f.UpdatedAt = s.now()
	return s.mutate(ctx, func(data playbook.UserData) (playbook.UserData, error) {
		if err := playbook.ValidateFolderParent(data.Folders, f.ID, f.ParentID); err != nil {
			return data, err
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = f.UpdatedAt
			if old, ok := playbook.FindFolder(data.Folders, f.ID); ok {
				f.CreatedAt = old.CreatedAt
			}
		}
		return playbook.UpsertFolder(data, f), nil
	})
}

// DeletePlay removes the play from the cache immediately and then from the
// server. The local deletion holds even if the server call fails.
func (s *Syncer) DeletePlay(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readLocal()
	if err != nil {
		return Result{}, err
	}
	data, found := playbook.RemovePlay(data, id)
	if !found {
		return Result{}, fmt.Errorf("play %s: %w", id, playbook.ErrNotFound)
	}
	if err := s.writeLocal(data); err != nil {
		return Result{}, err
	}

	res := Result{Data: data}
	if err := s.remote.DeletePlay(ctx, id); err != nil {
		s.logger.Warn("remote play delete failed", "play_id", id, "error", err)
		res.Warning = fmt.Errorf("%w: %v", ErrNotPersisted, err)
		return res, nil
	}
	res.Stored = true
	return res, nil
}

// DeleteFolder removes the folder locally, lifting its subfolders to its
// parent and unfiling its plays, then deletes it on the server.
func (s *Syncer) DeleteFolder(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readLocal()
	if err != nil {
		return Result{}, err
	}
	data, err = playbook.RemoveFolder(data, id)
	if err != nil {
		return Result{}, err
	}
	if err := s.writeLocal(data); err != nil {
		return Result{}, err
	}

	res := Result{Data: data}
	if err := s.remote.DeleteFolder(ctx, id); err != nil {
		s.logger.Warn("remote folder delete failed", "folder_id", id, "error", err)
		res.Warning = fmt.Errorf("%w: %v", ErrNotPersisted, err)
		return res, nil
	}
	res.Stored = true
	return res, nil
}

// SetEditingPlay parks p under the editing handoff key.
func (s *Syncer) SetEditingPlay(p playbook.Play) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.cache.Set(localcache.KeyEditingPlay, string(b))
}

// TakeEditingPlay returns the parked play, if any, and clears the key.
func (s *Syncer) TakeEditingPlay() (playbook.Play, bool, error) {
	raw, ok, err := s.cache.Get(localcache.KeyEditingPlay)
	if err != nil || !ok {
		return playbook.Play{}, false, err
	}
	if err := s.cache.Delete(localcache.KeyEditingPlay); err != nil {
		return playbook.Play{}, false, err
	}

	var p playbook.Play
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("discarding unreadable editing play", "error", err)
		return playbook.Play{}, false, nil
	}
	return p, true, nil
}

func (s *Syncer) mutate(ctx context.Context, fn func(playbook.UserData) (playbook.UserData, error)) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readLocal()
	if err != nil {
		return Result{}, err
	}
	data, err = fn(data)
	if err != nil {
		return Result{}, err
	}
	if err := s.writeLocal(data); err != nil {
		return Result{}, err
	}
	return s.reconcile(ctx)
}

func (s *Syncer) reconcile(ctx context.Context) (Result, error) {
	local, err := s.readLocal()
	if err != nil {
		return Result{}, err
	}

	remote, err := s.remote.Fetch(ctx)
	if err != nil {
		s.logger.Warn("remote fetch failed, using local copy", "error", err)
		return Result{Data: local, Warning: fmt.Errorf("%w: %v", ErrNotPersisted, err)}, nil
	}

	merged, changed := s.reconciler.Reconcile(local, remote)
	if err := s.writeLocal(merged); err != nil {
		return Result{}, err
	}

	res := Result{Data: merged}
	if !changed {
		return res, nil
	}
	if err := s.remote.Store(ctx, merged); err != nil {
		s.logger.Warn("remote store failed", "error", err)
		res.Warning = fmt.Errorf("%w: %v", ErrNotPersisted, err)
		return res, nil
	}
	res.Stored = true
	s.logger.Debug("remote updated", "plays", len(merged.Plays), "folders", len(merged.Folders))
	return res, nil
}

// readLocal decodes the cached lists. Values that are missing, not JSON
// arrays, or otherwise undecodable read as empty.
func (s *Syncer) readLocal() (playbook.UserData, error) {
	plays, err := readList[playbook.Play](s.cache, s.logger, localcache.KeySavedPlays)
	if err != nil {
		return playbook.UserData{}, err
	}
	folders, err := readList[playbook.Folder](s.cache, s.logger, localcache.KeyPlayFolders)
	if err != nil {
		return playbook.UserData{}, err
	}
	return playbook.UserData{Plays: plays, Folders: folders}, nil
}

func (s *Syncer) writeLocal(data playbook.UserData) error {
	if err := writeList(s.cache, localcache.KeySavedPlays, data.Plays); err != nil {
		return err
	}
	return writeList(s.cache, localcache.KeyPlayFolders, data.Folders)
}

func readList[T any](cache Cache, logger *slog.Logger, key string) ([]T, error) {
	raw, ok, err := cache.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []T{}, nil
	}
	list, err := playbook.DecodeList[T]([]byte(raw))
	if err != nil {
		logger.Warn("ignoring unreadable cached list", "key", key, "error", err)
		return []T{}, nil
	}
	return list, nil
}

func writeList[T any](cache Cache, key string, list []T) error {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return cache.Set(key, string(b))
}
