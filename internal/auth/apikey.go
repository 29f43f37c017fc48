package auth

import (
	"net/http"
	"strings"
)

const (
	// KeyPrefix starts every key issued by the store
	KeyPrefix = "ld_key_"
	// HeaderAPIKey carries the key when no bearer token is sent
	HeaderAPIKey = "X-API-Key"
)

// ExtractKey returns the API key of a request from X-API-Key or an
// Authorization bearer token, "" when neither is present.
func ExtractKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); key != "" {
		return key
	}
	authz := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authz, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// WellFormed reports whether key could have been issued by the store.
func WellFormed(key string) bool {
	return strings.HasPrefix(key, KeyPrefix) && len(key) > len(KeyPrefix)
}
