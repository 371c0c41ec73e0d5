package auth

import (
	"net/http"
	"strings"
)

// ExtractJWTToken returns the bearer token of the Authorization header. The
// scheme is matched case-insensitively and an empty token counts as absent.
func ExtractJWTToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
