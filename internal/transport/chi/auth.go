package chi

import (
	"net/http"
	"strings"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If apiKeys is empty, authentication is disabled (pass-through).
// staticPrefix is the artifacts mount; those files are opaque UUID-named
// and served without credentials so clients can follow plot links.
func BearerAuthMiddleware(apiKeys []string, staticPrefix string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}
	var exemptPrefix string
	if staticPrefix != "" {
		exemptPrefix = strings.TrimSuffix(staticPrefix, "/") + "/"
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled — pass everything through
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExempt(r.URL.Path, exemptPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeJSON(w, http.StatusUnauthorized,
					map[string]string{"error": "missing authorization header"})
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeJSON(w, http.StatusUnauthorized,
					map[string]string{"error": "authorization header must use Bearer scheme"})
				return
			}

			token := auth[len(bearerPrefix):]
			if _, ok := validKeys[token]; !ok {
				writeJSON(w, http.StatusUnauthorized,
					map[string]string{"error": "invalid api key"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isExempt(path, staticPrefix string) bool {
	if _, ok := exemptPaths[path]; ok {
		return true
	}
	return staticPrefix != "" && strings.HasPrefix(path, staticPrefix)
}
