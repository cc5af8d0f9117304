package server

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxKeyAccount ctxKey = iota

// authMiddleware resolves the session token to an account and stores it
// in the request context. Requests without a valid session get 401.
func authMiddleware(accounts AccountStore, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, allowQuery)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, codeUnauthenticated)
				return
			}

			acct, err := accounts.AccountFromSession(r.Context(), token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, codeUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAccount, acct)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accountFrom(r *http.Request) Account {
	return r.Context().Value(ctxKeyAccount).(Account)
}
