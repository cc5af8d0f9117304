package playbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

// offense
// ├── red-zone
// │   └── goal-line
// └── third-down
// defense
func sampleFolders() []Folder {
	return []Folder{
		{ID: "offense", Name: "Offense"},
		{ID: "red-zone", Name: "Red Zone", ParentID: strp("offense")},
		{ID: "goal-line", Name: "Goal Line", ParentID: strp("red-zone")},
		{ID: "third-down", Name: "3rd Down", ParentID: strp("offense")},
		{ID: "defense", Name: "Defense"},
	}
}

func TestValidateFolderParent(t *testing.T) {
	folders := sampleFolders()

	tests := []struct {
		name    string
		id      string
		parent  *string
		wantErr error
	}{
		{"root", "red-zone", nil, nil},
		{"sibling subtree", "red-zone", strp("defense"), nil},
		{"new folder", "new", strp("goal-line"), nil},
		{"self", "offense", strp("offense"), ErrFolderCycle},
		{"child", "offense", strp("red-zone"), ErrFolderCycle},
		{"grandchild", "offense", strp("goal-line"), ErrFolderCycle},
		{"unknown parent", "red-zone", strp("nope"), ErrFolderNotFound},
		{"pseudo parent", "red-zone", strp(AllPlaysFolderID), ErrReservedID},
		{"pseudo id", AllPlaysFolderID, nil, ErrReservedID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFolderParent(folders, tt.id, tt.parent)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFolderPath(t *testing.T) {
	path, err := FolderPath(sampleFolders(), "goal-line")
	require.NoError(t, err)
	assert.Equal(t, []string{"offense", "red-zone", "goal-line"}, ids(path))

	_, err = FolderPath(sampleFolders(), "missing")
	assert.ErrorIs(t, err, ErrFolderNotFound)

	looped := []Folder{{ID: "a", ParentID: strp("b")}, {ID: "b", ParentID: strp("a")}}
	_, err = FolderPath(looped, "a")
	assert.ErrorIs(t, err, ErrFolderCycle)
}

func TestSubfolders(t *testing.T) {
	assert.Equal(t, []string{"offense", "defense"}, ids(Subfolders(sampleFolders(), nil)))
	assert.Equal(t, []string{"red-zone", "third-down"}, ids(Subfolders(sampleFolders(), strp("offense"))))
	assert.Empty(t, Subfolders(sampleFolders(), strp("goal-line")))
}

func TestRemoveFolder(t *testing.T) {
	data := UserData{
		Folders: sampleFolders(),
		Plays: []Play{
			{ID: "p1", FolderID: strp("red-zone")},
			{ID: "p2", FolderID: strp("goal-line")},
			{ID: "p3"},
		},
	}

	got, err := RemoveFolder(data, "red-zone")
	require.NoError(t, err)

	assert.Equal(t, []string{"offense", "goal-line", "third-down", "defense"}, ids(got.Folders))
	goal, _ := FindFolder(got.Folders, "goal-line")
	require.NotNil(t, goal.ParentID)
	assert.Equal(t, "offense", *goal.ParentID)

	assert.Nil(t, got.Plays[0].FolderID)
	assert.Equal(t, "goal-line", *got.Plays[1].FolderID)
	assert.Len(t, got.Plays, 3)

	// The input is not modified.
	assert.Equal(t, "red-zone", *data.Plays[0].FolderID)

	_, err = RemoveFolder(data, "missing")
	assert.ErrorIs(t, err, ErrFolderNotFound)
}

func TestPlaysInFolder(t *testing.T) {
	data := UserData{Plays: []Play{
		{ID: "p1", FolderID: strp("a")},
		{ID: "p2"},
		{ID: "p3", FolderID: strp("a")},
	}}

	assert.Equal(t, []string{"p1", "p3"}, ids(PlaysInFolder(data, "a")))
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(PlaysInFolder(data, AllPlaysFolderID)))
	assert.Equal(t, []string{"p2"}, ids(UnfiledPlays(data)))
	assert.Empty(t, PlaysInFolder(data, "b"))
}

func TestUpsertAndRemovePlay(t *testing.T) {
	data := UserData{Plays: []Play{{ID: "a", Name: "one"}, {ID: "b"}}}

	data = UpsertPlay(data, Play{ID: "a", Name: "two"})
	data = UpsertPlay(data, Play{ID: "c"})
	assert.Equal(t, []string{"a", "b", "c"}, ids(data.Plays))
	assert.Equal(t, "two", data.Plays[0].Name)

	data, found := RemovePlay(data, "b")
	assert.True(t, found)
	assert.Equal(t, []string{"a", "c"}, ids(data.Plays))

	_, found = RemovePlay(data, "b")
	assert.False(t, found)
}

func TestValidateFolderTree(t *testing.T) {
	assert.NoError(t, ValidateFolderTree(sampleFolders()))
	assert.NoError(t, ValidateFolderTree(nil))
	assert.NoError(t, ValidateFolderTree([]Folder{{ID: "a", ParentID: strp("gone")}}))

	cyclic := []Folder{{ID: "a", ParentID: strp("b")}, {ID: "b", ParentID: strp("c")}, {ID: "c", ParentID: strp("a")}}
	assert.ErrorIs(t, ValidateFolderTree(cyclic), ErrFolderCycle)

	self := []Folder{{ID: "a", ParentID: strp("a")}}
	assert.ErrorIs(t, ValidateFolderTree(self), ErrFolderCycle)

	assert.ErrorIs(t, ValidateFolderTree([]Folder{{ID: AllPlaysFolderID}}), ErrReservedID)
	assert.Error(t, ValidateFolderTree([]Folder{{ID: "a"}, {ID: "a"}}))
}

func TestValidatePlays(t *testing.T) {
	tests := []struct {
		name    string
		plays   []Play
		wantErr error
	}{
		{"empty", nil, nil},
		{"unique", []Play{{ID: "a"}, {ID: "b", FolderID: strp("f1")}}, nil},
		{"duplicate id", []Play{{ID: "a", Name: "Slant"}, {ID: "a", Name: "Post"}}, ErrDuplicatePlay},
		{"missing id", []Play{{Name: "Slant"}}, ErrMissingID},
		{"filed under all plays", []Play{{ID: "a", FolderID: strp(AllPlaysFolderID)}}, ErrReservedID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlays(tt.plays)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
