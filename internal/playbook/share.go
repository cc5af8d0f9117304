package playbook

import (
	"fmt"
	"strings"
	"time"
)

// NewSharedFolder builds the public snapshot of folderID's plays. A folder
// without plays is rejected so that no empty share is ever published.
// A zero ttl leaves the snapshot without an expiry.
func NewSharedFolder(data UserData, folderID, shareID string, now time.Time, ttl time.Duration) (SharedFolder, error) {
	name := allPlaysName
	if folderID != AllPlaysFolderID {
		f, ok := FindFolder(data.Folders, folderID)
		if !ok {
			return SharedFolder{}, fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
		}
		name = f.Name
	}

	plays := PlaysInFolder(data, folderID)
	if len(plays) == 0 {
		return SharedFolder{}, fmt.Errorf("%w: %q has no plays to share", ErrEmptyFolder, name)
	}

	s := SharedFolder{
		ShareID:    shareID,
		FolderID:   folderID,
		FolderName: name,
		Plays:      plays,
		CreatedAt:  now.UTC(),
	}
	if ttl > 0 {
		exp := now.UTC().Add(ttl)
		s.ExpiresAt = &exp
	}
	return s, nil
}

// ShareURL returns the public link for a share id.
func ShareURL(baseURL, shareID string) string {
	return strings.TrimRight(baseURL, "/") + "/shared/" + shareID
}
