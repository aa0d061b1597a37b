package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	auth "github.com/learnhub/learnhub-backend/internal/auth/middleware"
	"github.com/learnhub/learnhub-backend/internal/rbac"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	svc := auth.NewAuthService("test-secret")

	tok, err := svc.IssueJWT("u-1", "ada@example.com", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "u-1" || claims.Email != "ada@example.com" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	tok, err := auth.NewAuthService("secret-a").IssueJWT("u-1", "", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := auth.NewAuthService("secret-b").Parse(tok); err == nil {
		t.Fatal("token signed with another key parsed cleanly")
	}
}

func TestJWTMiddleware(t *testing.T) {
	svc := auth.NewAuthService("test-secret")
	var gotSub, gotRole string
	h := auth.JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	// No header.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no header status = %d, want 401", rec.Code)
	}

	// Garbage token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", rec.Code)
	}

	// Valid token reaches the handler with identity in context.
	tok, _ := svc.IssueJWT("u-9", "x@example.com", "user")
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d, want 200", rec.Code)
	}
	if gotSub != "u-9" || gotRole != "user" {
		t.Fatalf("context identity = (%q, %q), want (u-9, user)", gotSub, gotRole)
	}
}
