package http

import (
	"net/http"
	"strings"

	authmw "github.com/learnhub/learnhub-backend/internal/auth/middleware"
)

// subjectFromBearer extracts (sub, role) from a bearer token when one is
// present; both are empty for anonymous callers.
func subjectFromBearer(a *authmw.AuthService, r *http.Request) (sub, role string) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", ""
	}
	claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
	if err != nil || claims == nil {
		return "", ""
	}
	return claims.Sub, claims.Role
}
