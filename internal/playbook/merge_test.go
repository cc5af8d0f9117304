package playbook

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids[T Entity](list []T) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.EntityID()
	}
	return out
}

func TestLocalWins_Example(t *testing.T) {
	local := []Play{{ID: "a"}}
	remote := []Play{{ID: "a", Name: "old"}, {ID: "b"}}

	merged := LocalWins[Play]{}.Merge(local, remote)

	require.Len(t, merged, 2)
	assert.Equal(t, []string{"b", "a"}, ids(merged))
	assert.Empty(t, merged[1].Name, "local copy of a must win")
}

func TestLocalWins_Counts(t *testing.T) {
	tests := []struct {
		name   string
		local  []string
		remote []string
		want   []string
	}{
		{"both empty", nil, nil, []string{}},
		{"local only", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"remote only", nil, []string{"x", "y"}, []string{"x", "y"}},
		{"disjoint", []string{"a"}, []string{"x", "y"}, []string{"x", "y", "a"}},
		{"overlap keeps remote order", []string{"c", "a"}, []string{"a", "b", "c", "d"}, []string{"b", "d", "c", "a"}},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := folderList(tt.local, "local")
			remote := folderList(tt.remote, "remote")

			merged := LocalWins[Folder]{}.Merge(local, remote)

			assert.Equal(t, tt.want, ids(merged))
			for _, f := range merged {
				if contains(tt.local, f.ID) {
					assert.Equal(t, "local", f.Name, "folder %s", f.ID)
				}
			}

			survivors := 0
			for _, id := range tt.remote {
				if !contains(tt.local, id) {
					survivors++
				}
			}
			assert.Len(t, merged, survivors+len(tt.local))
		})
	}
}

func TestNewestWins(t *testing.T) {
	t0 := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	local := []Play{{ID: "a", Name: "local-a", UpdatedAt: t0}, {ID: "b", Name: "local-b", UpdatedAt: t0}}
	remote := []Play{{ID: "a", Name: "remote-a", UpdatedAt: t0.Add(time.Minute)}, {ID: "b", Name: "remote-b", UpdatedAt: t0}}

	merged := NewReconciler("newest-wins").Plays.Merge(local, remote)

	require.Len(t, merged, 2)
	assert.Equal(t, "remote-a", merged[0].Name)
	assert.Equal(t, "local-b", merged[1].Name, "ties keep local")
}

func TestNewestWinsFolders(t *testing.T) {
	created := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	local := []Folder{
		{ID: "a", Name: "Old", CreatedAt: created},
		{ID: "b", Name: "local-b", CreatedAt: created, UpdatedAt: created.Add(2 * time.Hour)},
	}
	remote := []Folder{
		{ID: "a", Name: "Renamed", CreatedAt: created, UpdatedAt: created.Add(time.Hour)},
		{ID: "b", Name: "remote-b", CreatedAt: created, UpdatedAt: created.Add(time.Hour)},
	}

	merged := NewReconciler("newest-wins").Folders.Merge(local, remote)

	require.Len(t, merged, 2)
	assert.Equal(t, "Renamed", merged[0].Name, "a rename on the remote is newer than an untouched local folder")
	assert.Equal(t, "local-b", merged[1].Name)
}

func TestReconcile(t *testing.T) {
	now := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	r := NewReconciler("local-wins")
	r.Now = func() time.Time { return now }

	t.Run("changed", func(t *testing.T) {
		local := UserData{Plays: []Play{{ID: "a"}}, Folders: []Folder{{ID: "f1"}}}
		remote := UserData{Plays: []Play{{ID: "b"}}}

		merged, changed := r.Reconcile(local, remote)

		assert.True(t, changed)
		assert.Equal(t, []string{"b", "a"}, ids(merged.Plays))
		assert.Equal(t, []string{"f1"}, ids(merged.Folders))
		assert.Equal(t, now, merged.UpdatedAt)
	})

	t.Run("unchanged", func(t *testing.T) {
		stamp := now.Add(-time.Hour)
		remote := UserData{Plays: []Play{{ID: "a", Name: "x"}}, Folders: []Folder{}, UpdatedAt: stamp}
		local := UserData{Plays: []Play{{ID: "a", Name: "x"}}}

		merged, changed := r.Reconcile(local, remote)

		assert.False(t, changed)
		assert.Equal(t, stamp, merged.UpdatedAt)
	})

	t.Run("local field change wins", func(t *testing.T) {
		remote := UserData{Plays: []Play{{ID: "a", Name: "old"}}}
		local := UserData{Plays: []Play{{ID: "a", Name: "new"}}}

		merged, changed := r.Reconcile(local, remote)

		assert.True(t, changed)
		require.Len(t, merged.Plays, 1)
		assert.Equal(t, "new", merged.Plays[0].Name)
	})
}

func folderList(idList []string, name string) []Folder {
	out := make([]Folder, len(idList))
	for i, id := range idList {
		out[i] = Folder{ID: id, Name: name}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func BenchmarkLocalWins(b *testing.B) {
	local := make([]Play, 500)
	remote := make([]Play, 500)
	for i := range local {
		local[i] = Play{ID: fmt.Sprintf("p%d", i*2)}
		remote[i] = Play{ID: fmt.Sprintf("p%d", i)}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		LocalWins[Play]{}.Merge(local, remote)
	}
}
