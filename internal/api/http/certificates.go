package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/learnhub-backend/internal/certificate"
	"github.com/learnhub/learnhub-backend/internal/rbac"
)

func UserCertificatesHandler(store *certificate.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		certs, err := store.ListForUser(r.Context(), userID)
		if err != nil {
			failServer(w, "Error fetching certificates", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"certificates": certs})
	}
}

func GetCertificateHandler(store *certificate.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		id := chi.URLParam(r, "id")
		cert, err := store.Get(r.Context(), id, userID)
		if err != nil {
			if errors.Is(err, certificate.ErrNotFound) {
				fail(w, http.StatusNotFound, "Certificate not found or unauthorized")
				return
			}
			failServer(w, "Error fetching certificate", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"certificate": cert})
	}
}

// VerifyCertificateHandler is public: anyone holding a certificate URL may
// check it.
func VerifyCertificateHandler(store *certificate.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		certURL := chi.URLParam(r, "certificateUrl")
		cert, err := store.Verify(r.Context(), certURL)
		if err != nil {
			if errors.Is(err, certificate.ErrNotFound) {
				fail(w, http.StatusNotFound, "Certificate not found")
				return
			}
			failServer(w, "Error verifying certificate", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{
			"isValid": true,
			"certificate": map[string]any{
				"course_title": cert.CourseTitle,
				"full_name":    cert.FullName,
				"issued_at":    cert.IssuedAt,
			},
		})
	}
}
