package rest

import (
	"crypto/subtle"
	"net/http"
)

// AdminTokenHeader is the header name for admin authentication token.
const AdminTokenHeader = "X-Admin-Token"

// AdminAuth rejects requests without the admin token. An empty token
// disables the protected routes.
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminTokenHeader)
			if token == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
