package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthRequest is the request body for POST /api/auth/register and /api/auth/login.
type AuthRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// AccountResponse is the response for the auth endpoints.
type AccountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// Token is the session id, returned for clients that send it as a
	// Bearer token instead of using the cookie.
	Token string `json:"token,omitempty"`
}

func (req *AuthRequest) normalize() {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
}

// authCode maps a failed validation tag to the auth error code clients know.
func authCode(tags map[string]string) string {
	switch {
	case tags["email"] == "required" || tags["password"] == "required":
		return codeMissingFields
	case tags["email"] != "":
		return codeInvalidEmail
	default:
		return codeWeakPassword
	}
}

func handleRegister(logger *slog.Logger, accounts AccountStore, sessionTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuthRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.normalize()
		if _, tags := fieldErrors(req); tags != nil {
			writeAuthError(w, http.StatusBadRequest, authCode(tags))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("hashing password", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		acct, err := accounts.CreateAccount(r.Context(), req.Email, string(hash))
		if errors.Is(err, ErrEmailTaken) {
			writeAuthError(w, http.StatusConflict, codeEmailInUse)
			return
		}
		if err != nil {
			logger.Error("creating account", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		startSession(w, r, logger, accounts, acct, sessionTTL, http.StatusCreated)
	}
}

func handleLogin(logger *slog.Logger, accounts AccountStore, sessionTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuthRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.normalize()
		if req.Email == "" || req.Password == "" {
			writeAuthError(w, http.StatusBadRequest, codeMissingFields)
			return
		}

		acct, passwordHash, err := accounts.AccountByEmail(r.Context(), req.Email)
		if errors.Is(err, ErrNotFound) {
			writeAuthError(w, http.StatusUnauthorized, codeInvalidCredential)
			return
		}
		if err != nil {
			logger.Error("looking up account", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
			writeAuthError(w, http.StatusUnauthorized, codeInvalidCredential)
			return
		}

		startSession(w, r, logger, accounts, acct, sessionTTL, http.StatusOK)
	}
}

func startSession(w http.ResponseWriter, r *http.Request, logger *slog.Logger, accounts AccountStore, acct Account, ttl time.Duration, status int) {
	sessionID, err := accounts.CreateSession(r.Context(), acct.ID, ttl)
	if err != nil {
		logger.Error("creating session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, status, AccountResponse{
		ID:    acct.ID,
		Email: acct.Email,
		Token: sessionID,
	})
}

func handleLogout(accounts AccountStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := sessionToken(r, false); token != "" {
			accounts.DeleteSession(r.Context(), token)
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r)
		writeJSON(w, http.StatusOK, AccountResponse{ID: acct.ID, Email: acct.Email})
	}
}
