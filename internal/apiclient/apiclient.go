// Package apiclient talks to the playbook HTTP API. Client satisfies
// playsync.Remote.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flagtactics/playbook/internal/playbook"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Session is returned by Login and Register.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// Share describes a published folder snapshot.
type Share struct {
	ShareID    string     `json:"shareId"`
	URL        string     `json:"url"`
	FolderID   string     `json:"folderId"`
	FolderName string     `json:"folderName"`
	PlayCount  int        `json:"playCount"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the bearer token in use.
func (c *Client) Token() string { return c.token }

// Login starts a session and uses its token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

// Register creates an account and uses its session for later calls.
func (c *Client) Register(ctx context.Context, email, password string) (Session, error) {
	return c.authenticate(ctx, "/api/auth/register", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, path, body, &s); err != nil {
		return Session{}, err
	}
	c.token = s.Token
	return s, nil
}

func (c *Client) Fetch(ctx context.Context) (playbook.UserData, error) {
	var data playbook.UserData
	err := c.do(ctx, http.MethodGet, "/api/me/data", nil, &data)
	return data, err
}

func (c *Client) Store(ctx context.Context, data playbook.UserData) error {
	return c.do(ctx, http.MethodPut, "/api/me/data", data, nil)
}

// DeletePlay deletes a play on the server. A play that is already gone
// counts as deleted.
func (c *Client) DeletePlay(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/me/plays/"+url.PathEscape(id), nil, nil)
	if IsStatus(err, http.StatusNotFound) {
		return nil
	}
	return err
}

// DeleteFolder deletes a folder on the server. A folder that is already
// gone counts as deleted.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/me/folders/"+url.PathEscape(id), nil, nil)
	if IsStatus(err, http.StatusNotFound) {
		return nil
	}
	return err
}

// CreateShare publishes folderID. Zero expiresInHours means no expiry.
func (c *Client) CreateShare(ctx context.Context, folderID string, expiresInHours int) (Share, error) {
	var s Share
	body := map[string]int{"expiresInHours": expiresInHours}
	err := c.do(ctx, http.MethodPost, "/api/me/folders/"+url.PathEscape(folderID)+"/share", body, &s)
	return s, err
}

func (c *Client) ListShares(ctx context.Context) ([]Share, error) {
	var out []Share
	err := c.do(ctx, http.MethodGet, "/api/me/shares", nil, &out)
	return out, err
}

// SharedFolder reads a public snapshot. No session is needed.
func (c *Client) SharedFolder(ctx context.Context, shareID string) (playbook.SharedFolder, error) {
	var s playbook.SharedFolder
	err := c.do(ctx, http.MethodGet, "/api/shared/"+url.PathEscape(shareID), nil, &s)
	return s, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e) == nil && e.Error != "" {
			apiErr.Message = e.Error
			apiErr.Code = e.Code
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
