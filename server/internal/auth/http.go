package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// HTTPMiddleware returns middleware that requires header to carry key on
// every request whose path does not start with one of the exempt prefixes.
func HTTPMiddleware(mode, header, key string, exempt ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled(mode, key) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range exempt {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			got := r.Header.Get(header)
			if got == "" || !keyMatches(got, key) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid api key"}) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
