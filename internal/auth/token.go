package auth

import (
	"net/http"
	"strings"
)

// AccessTokenCookie is the cookie the storefront sets after login.
const AccessTokenCookie = "access_token"

// ExtractAccessToken returns the bearer token from the access cookie or,
// failing that, the Authorization header. The scheme match is case-insensitive.
func ExtractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
