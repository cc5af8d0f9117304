package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flagtactics/playbook/internal/id"
	"github.com/flagtactics/playbook/internal/playbook"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

type accountDoc struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DocStore implements AccountStore, UserDataStore and ShareStore on
// per-collection tables with JSONB data columns. The schema comes from the
// migrations package.
type DocStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewDocStore(db *sql.DB, logger *slog.Logger) *DocStore {
	return &DocStore{db: db, logger: logger, now: time.Now}
}

func (s *DocStore) CreateAccount(ctx context.Context, email, passwordHash string) (Account, error) {
	doc := accountDoc{
		ID:           id.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return Account{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, data) VALUES (?, ?, jsonb(?))`,
		doc.ID, doc.Email, string(data),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, fmt.Errorf("inserting account: %w", err)
	}
	return Account{ID: doc.ID, Email: doc.Email, CreatedAt: doc.CreatedAt}, nil
}

func (s *DocStore) AccountByEmail(ctx context.Context, email string) (Account, string, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM accounts WHERE email = ?`, email,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, "", ErrNotFound
	}
	if err != nil {
		return Account{}, "", err
	}
	var a accountDoc
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return Account{}, "", err
	}
	return Account{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt}, a.PasswordHash, nil
}

func (s *DocStore) CreateSession(ctx context.Context, accountID string, ttl time.Duration) (string, error) {
	sessionID, err := id.NewSession()
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, account_id, expires_at) VALUES (?, ?, ?)`,
		sessionID, accountID, s.now().UTC().Add(ttl).Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return sessionID, nil
}

func (s *DocStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, sessionID,
	)
	return err
}

func (s *DocStore) AccountFromSession(ctx context.Context, sessionID string) (Account, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT json(a.data)
		FROM sessions s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.id = ? AND s.expires_at > ?
	`, sessionID, s.now().UTC().Format(timeLayout)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, errNoSession
	}
	if err != nil {
		return Account{}, err
	}
	var a accountDoc
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return Account{}, err
	}
	return Account{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt}, nil
}

// LoadUserData returns the stored document, or an empty one when the user
// has never saved. Documents in an older format are rewritten in place.
func (s *DocStore) LoadUserData(ctx context.Context, userID string) (playbook.UserData, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM user_data WHERE user_id = ?`, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return playbook.UserData{Plays: []playbook.Play{}, Folders: []playbook.Folder{}}, nil
	}
	if err != nil {
		return playbook.UserData{}, err
	}

	data, migrate, err := playbook.DecodeDocument([]byte(raw))
	if err != nil {
		return playbook.UserData{}, fmt.Errorf("user %s: %w", userID, err)
	}
	if migrate {
		if err := s.SaveUserData(ctx, userID, data); err != nil {
			s.logger.Warn("rewriting legacy user document failed", "user_id", userID, "error", err)
		} else {
			s.logger.Info("migrated legacy user document", "user_id", userID)
		}
	}
	return data, nil
}

func (s *DocStore) SaveUserData(ctx context.Context, userID string, data playbook.UserData) error {
	if data.UpdatedAt.IsZero() {
		data.UpdatedAt = s.now().UTC()
	}
	doc, err := playbook.EncodeDocument(data)
	if err != nil {
		return fmt.Errorf("encoding user document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_data (user_id, updated_at, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(user_id) DO UPDATE SET updated_at = excluded.updated_at, data = excluded.data`,
		userID, data.UpdatedAt.UTC().Format(timeLayout), string(doc),
	)
	return err
}

func (s *DocStore) CreateShare(ctx context.Context, ownerID string, sf playbook.SharedFolder) error {
	doc, err := playbook.EncodeSnapshot(sf)
	if err != nil {
		return fmt.Errorf("encoding share: %w", err)
	}
	var expires *string
	if sf.ExpiresAt != nil {
		e := sf.ExpiresAt.UTC().Format(timeLayout)
		expires = &e
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO shared_folders (share_id, owner_id, folder_id, created_at, expires_at, data)
		 VALUES (?, ?, ?, ?, ?, jsonb(?))`,
		sf.ShareID, ownerID, sf.FolderID, sf.CreatedAt.UTC().Format(timeLayout), expires, string(doc),
	)
	return err
}

func (s *DocStore) GetShare(ctx context.Context, shareID string) (playbook.SharedFolder, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM shared_folders WHERE share_id = ?`, shareID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return playbook.SharedFolder{}, ErrNotFound
	}
	if err != nil {
		return playbook.SharedFolder{}, err
	}
	return playbook.DecodeSnapshot([]byte(raw))
}

func (s *DocStore) ListShares(ctx context.Context, ownerID string) ([]playbook.SharedFolder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM shared_folders WHERE owner_id = ? ORDER BY created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shares := []playbook.SharedFolder{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		sf, err := playbook.DecodeSnapshot([]byte(raw))
		if err != nil {
			return nil, err
		}
		shares = append(shares, sf)
	}
	return shares, rows.Err()
}

func (s *DocStore) DeleteShare(ctx context.Context, ownerID, shareID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM shared_folders WHERE share_id = ? AND owner_id = ?`, shareID, ownerID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
