package server

import (
	"errors"
	"net/http"
	"strings"
)

var errNoSession = errors.New("no valid session")

const sessionCookieName = "session"

// Auth error codes returned to clients alongside a user-facing message.
const (
	codeInvalidEmail      = "auth/invalid-email"
	codeWeakPassword      = "auth/weak-password"
	codeEmailInUse        = "auth/email-already-in-use"
	codeInvalidCredential = "auth/invalid-credential"
	codeMissingFields     = "auth/missing-fields"
	codeUnauthenticated   = "auth/unauthenticated"
)

var authMessages = map[string]string{
	codeInvalidEmail:      "Please enter a valid email address.",
	codeWeakPassword:      "Password must be at least 6 characters.",
	codeEmailInUse:        "An account with this email already exists.",
	codeInvalidCredential: "Incorrect email or password.",
	codeMissingFields:     "Email and password are required.",
	codeUnauthenticated:   "Please sign in to continue.",
}

func writeAuthError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, ErrorResponse{Error: authMessages[code], Code: code})
}

// sessionToken extracts the session id from the session cookie or a
// Bearer Authorization header. With allowQuery, a ?token= parameter is
// also accepted for clients that cannot set headers (EventSource,
// WebSocket).
func sessionToken(r *http.Request, allowQuery bool) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found && token != "" {
		return token
	}
	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}
