package playbook

import (
	"encoding/json"
	"time"
)

// Entity is anything kept in an id-keyed collection.
type Entity interface {
	EntityID() string
}

// Policy decides how a local and a remote copy of the same collection are
// combined into one.
type Policy[T Entity] interface {
	Merge(local, remote []T) []T
}

// LocalWins keeps every local entity and only those remote entities whose
// id is absent locally. Remote survivors come first, then local entities,
// each in its original relative order. A remote entity sharing an id with a
// local one is discarded without comparing fields.
type LocalWins[T Entity] struct{}

func (LocalWins[T]) Merge(local, remote []T) []T {
	localIDs := make(map[string]struct{}, len(local))
	for _, e := range local {
		localIDs[e.EntityID()] = struct{}{}
	}

	out := make([]T, 0, len(remote)+len(local))
	for _, e := range remote {
		if _, ok := localIDs[e.EntityID()]; !ok {
			out = append(out, e)
		}
	}
	return append(out, local...)
}

// NewestWins resolves an id present on both sides in favour of the copy
// with the later timestamp; ties keep the local copy. Ordering matches
// LocalWins.
type NewestWins[T Entity] struct {
	Timestamp func(T) time.Time
}

func (p NewestWins[T]) Merge(local, remote []T) []T {
	remoteByID := make(map[string]T, len(remote))
	for _, e := range remote {
		remoteByID[e.EntityID()] = e
	}
	localIDs := make(map[string]struct{}, len(local))
	for _, e := range local {
		localIDs[e.EntityID()] = struct{}{}
	}

	out := make([]T, 0, len(remote)+len(local))
	for _, e := range remote {
		if _, ok := localIDs[e.EntityID()]; !ok {
			out = append(out, e)
		}
	}
	for _, e := range local {
		if r, ok := remoteByID[e.EntityID()]; ok && p.Timestamp(r).After(p.Timestamp(e)) {
			out = append(out, r)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Reconciler merges a local and a remote UserData using one policy per
// collection.
type Reconciler struct {
	Plays   Policy[Play]
	Folders Policy[Folder]
	Now     func() time.Time
}

// NewReconciler returns the reconciler for a named policy. Unknown names
// fall back to local-wins.
func NewReconciler(policy string) *Reconciler {
	r := &Reconciler{
		Plays:   LocalWins[Play]{},
		Folders: LocalWins[Folder]{},
		Now:     time.Now,
	}
	if policy == "newest-wins" {
		r.Plays = NewestWins[Play]{Timestamp: func(p Play) time.Time { return p.UpdatedAt }}
		r.Folders = NewestWins[Folder]{Timestamp: Folder.LastModified}
	}
	return r
}

// Reconcile returns the merged data and whether it differs from remote.
// When nothing changed the remote copy is returned as is.
func (r *Reconciler) Reconcile(local, remote UserData) (UserData, bool) {
	merged := UserData{
		Plays:   r.Plays.Merge(local.Plays, remote.Plays),
		Folders: r.Folders.Merge(local.Folders, remote.Folders),
	}
	if SameContent(merged, remote) {
		return remote, false
	}
	merged.UpdatedAt = r.Now().UTC()
	return merged, true
}

// SameContent compares the plays and folders of two documents by value,
// ignoring the document timestamp.
func SameContent(a, b UserData) bool {
	return jsonEqual(a.Plays, b.Plays) && jsonEqual(a.Folders, b.Folders)
}

func jsonEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(normalizeEmpty(ab)) == string(normalizeEmpty(bb))
}

func normalizeEmpty(b []byte) []byte {
	if string(b) == "null" {
		return []byte("[]")
	}
	return b
}
