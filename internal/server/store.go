package server

import (
	"context"
	"errors"
	"time"

	"github.com/flagtactics/playbook/internal/playbook"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrConflict   = errors.New("conflict")
)

type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShareSummary describes a published share to its owner.
type ShareSummary struct {
	ShareID    string     `json:"shareId"`
	URL        string     `json:"url"`
	FolderID   string     `json:"folderId"`
	FolderName string     `json:"folderName"`
	PlayCount  int        `json:"playCount"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type AccountStore interface {
	CreateAccount(ctx context.Context, email, passwordHash string) (Account, error)
	AccountByEmail(ctx context.Context, email string) (acct Account, passwordHash string, err error)
	CreateSession(ctx context.Context, accountID string, ttl time.Duration) (sessionID string, err error)
	DeleteSession(ctx context.Context, sessionID string) error
	AccountFromSession(ctx context.Context, sessionID string) (Account, error)
}

// UserDataStore holds the users/{userId} collection.
type UserDataStore interface {
	LoadUserData(ctx context.Context, userID string) (playbook.UserData, error)
	SaveUserData(ctx context.Context, userID string, data playbook.UserData) error
}

// ShareStore holds the sharedFolders/{shareId} collection.
type ShareStore interface {
	CreateShare(ctx context.Context, ownerID string, s playbook.SharedFolder) error
	GetShare(ctx context.Context, shareID string) (playbook.SharedFolder, error)
	ListShares(ctx context.Context, ownerID string) ([]playbook.SharedFolder, error)
	DeleteShare(ctx context.Context, ownerID, shareID string) error
}
