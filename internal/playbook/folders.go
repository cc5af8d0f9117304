package playbook

import "fmt"

// PlaysInFolder returns the plays filed directly under folderID. The
// AllPlaysFolderID pseudo-folder yields every play.
func PlaysInFolder(data UserData, folderID string) []Play {
	out := []Play{}
	for _, p := range data.Plays {
		if p.InFolder(folderID) {
			out = append(out, p)
		}
	}
	return out
}

// UnfiledPlays returns plays without a folder.
func UnfiledPlays(data UserData) []Play {
	out := []Play{}
	for _, p := range data.Plays {
		if p.FolderID == nil {
			out = append(out, p)
		}
	}
	return out
}

func FindPlay(data UserData, id string) (Play, bool) {
	for _, p := range data.Plays {
		if p.ID == id {
			return p, true
		}
	}
	return Play{}, false
}

func FindFolder(folders []Folder, id string) (Folder, bool) {
	for _, f := range folders {
		if f.ID == id {
			return f, true
		}
	}
	return Folder{}, false
}

// FolderPath returns the chain of folders from the root down to id.
func FolderPath(folders []Folder, id string) ([]Folder, error) {
	byID := indexFolders(folders)
	var path []Folder
	seen := make(map[string]struct{})
	for cur := id; ; {
		f, ok := byID[cur]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, cur)
		}
		if _, loop := seen[cur]; loop {
			return nil, ErrFolderCycle
		}
		seen[cur] = struct{}{}
		path = append([]Folder{f}, path...)
		if f.ParentID == nil {
			return path, nil
		}
		cur = *f.ParentID
	}
}

// ValidateFolderParent checks that giving folder id the parent parentID
// keeps the folder graph a forest. A nil parent is always valid.
func ValidateFolderParent(folders []Folder, id string, parentID *string) error {
	if id == AllPlaysFolderID {
		return ErrReservedID
	}
	if parentID == nil {
		return nil
	}
	if *parentID == AllPlaysFolderID {
		return ErrReservedID
	}
	if *parentID == id {
		return ErrFolderCycle
	}

	byID := indexFolders(folders)
	if _, ok := byID[*parentID]; !ok {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, *parentID)
	}

	seen := make(map[string]struct{})
	for cur := *parentID; ; {
		if cur == id {
			return ErrFolderCycle
		}
		if _, loop := seen[cur]; loop {
			return ErrFolderCycle
		}
		seen[cur] = struct{}{}
		f, ok := byID[cur]
		if !ok || f.ParentID == nil {
			return nil
		}
		cur = *f.ParentID
	}
}

// Subfolders returns the direct children of parentID; nil lists root folders.
func Subfolders(folders []Folder, parentID *string) []Folder {
	out := []Folder{}
	for _, f := range folders {
		switch {
		case parentID == nil && f.ParentID == nil:
			out = append(out, f)
		case parentID != nil && f.ParentID != nil && *f.ParentID == *parentID:
			out = append(out, f)
		}
	}
	return out
}

// RemoveFolder deletes folder id. Its subfolders move up to its parent and
// its plays become unfiled.
func RemoveFolder(data UserData, id string) (UserData, error) {
	target, ok := FindFolder(data.Folders, id)
	if !ok {
		return data, fmt.Errorf("%w: %s", ErrFolderNotFound, id)
	}

	folders := make([]Folder, 0, len(data.Folders)-1)
	for _, f := range data.Folders {
		if f.ID == id {
			continue
		}
		if f.ParentID != nil && *f.ParentID == id {
			f.ParentID = target.ParentID
		}
		folders = append(folders, f)
	}

	plays := make([]Play, len(data.Plays))
	for i, p := range data.Plays {
		if p.FolderID != nil && *p.FolderID == id {
			p.FolderID = nil
		}
		plays[i] = p
	}

	return UserData{Plays: plays, Folders: folders, UpdatedAt: data.UpdatedAt}, nil
}

// UpsertPlay replaces the play with the same id in place, or appends it.
func UpsertPlay(data UserData, p Play) UserData {
	data.Plays = upsert(data.Plays, p)
	return data
}

func UpsertFolder(data UserData, f Folder) UserData {
	data.Folders = upsert(data.Folders, f)
	return data
}

// RemovePlay drops the play with the given id and reports whether it was
// present.
func RemovePlay(data UserData, id string) (UserData, bool) {
	plays := make([]Play, 0, len(data.Plays))
	found := false
	for _, p := range data.Plays {
		if p.ID == id {
			found = true
			continue
		}
		plays = append(plays, p)
	}
	data.Plays = plays
	return data, found
}

func upsert[T Entity](list []T, e T) []T {
	out := make([]T, len(list), len(list)+1)
	copy(out, list)
	for i := range out {
		if out[i].EntityID() == e.EntityID() {
			out[i] = e
			return out
		}
	}
	return append(out, e)
}

func indexFolders(folders []Folder) map[string]Folder {
	byID := make(map[string]Folder, len(folders))
	for _, f := range folders {
		byID[f.ID] = f
	}
	return byID
}

// ValidateFolderTree checks a whole folder list: ids are unique, the
// pseudo-folder id is unused, and parent references form a forest. A
// parent id that matches no folder is tolerated and treated as a root.
func ValidateFolderTree(folders []Folder) error {
	byID := make(map[string]Folder, len(folders))
	for _, f := range folders {
		if f.ID == AllPlaysFolderID {
			return ErrReservedID
		}
		if _, dup := byID[f.ID]; dup {
			return fmt.Errorf("duplicate folder id %q", f.ID)
		}
		byID[f.ID] = f
	}

	for _, f := range folders {
		seen := map[string]struct{}{f.ID: {}}
		for p := f.ParentID; p != nil; {
			if _, loop := seen[*p]; loop {
				return fmt.Errorf("%w: %s", ErrFolderCycle, f.ID)
			}
			seen[*p] = struct{}{}
			parent, ok := byID[*p]
			if !ok {
				break
			}
			p = parent.ParentID
		}
	}
	return nil
}

// ValidatePlays checks that play ids are unique and non-empty and that no
// play is filed under the pseudo-folder.
func ValidatePlays(plays []Play) error {
	seen := make(map[string]struct{}, len(plays))
	for _, p := range plays {
		if p.ID == "" {
			return ErrMissingID
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePlay, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.FolderID != nil && *p.FolderID == AllPlaysFolderID {
			return fmt.Errorf("play %q: folder %w", p.ID, ErrReservedID)
		}
	}
	return nil
}
