package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/learnhub-backend/internal/enrollment"
	"github.com/learnhub/learnhub-backend/internal/rbac"
)

func EnrollHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		var req struct {
			CourseID string `json:"course_id" validate:"required"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		e, err := store.Enroll(r.Context(), userID, req.CourseID)
		if err != nil {
			switch {
			case errors.Is(err, enrollment.ErrAlreadyEnrolled):
				fail(w, http.StatusConflict, "Already enrolled in this course")
			case errors.Is(err, enrollment.ErrCourseNotFound):
				fail(w, http.StatusNotFound, "Course not found")
			default:
				failServer(w, "Error enrolling in course", err)
			}
			return
		}
		ok(w, http.StatusCreated, map[string]any{
			"message":       "Successfully enrolled in course",
			"enrollment_id": e.ID,
		})
	}
}

func EnrollmentStatusHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		courseID := r.URL.Query().Get("course_id")
		if courseID == "" {
			fail(w, http.StatusBadRequest, "Course ID is required")
			return
		}
		e, err := store.GetStatus(r.Context(), userID, courseID)
		if err != nil {
			failServer(w, "Error checking enrollment status", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{
			"is_enrolled": e != nil,
			"enrollment":  e, // null when unenrolled
		})
	}
}

func UserEnrollmentsHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		list, err := store.ListForUser(r.Context(), userID)
		if err != nil {
			failServer(w, "Error fetching user enrollments", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"enrollments": list})
	}
}

func UpdateProgressHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		id := chi.URLParam(r, "id")
		var req struct {
			ProgressPercent *float64 `json:"progress_percent" validate:"required"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		_, err := store.UpdateProgress(r.Context(), id, userID, *req.ProgressPercent)
		if err != nil {
			switch {
			case errors.Is(err, enrollment.ErrInvalidProgress):
				fail(w, http.StatusBadRequest, "progress_percent must be between 0 and 100")
			case errors.Is(err, enrollment.ErrNotFound):
				fail(w, http.StatusNotFound, "Enrollment not found or unauthorized")
			default:
				failServer(w, "Error updating progress", err)
			}
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Progress updated successfully"})
	}
}

func DropEnrollmentHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		id := chi.URLParam(r, "id")
		_, err := store.Drop(r.Context(), id, userID)
		if err != nil {
			if errors.Is(err, enrollment.ErrNotFound) {
				fail(w, http.StatusNotFound, "Enrollment not found or unauthorized")
				return
			}
			failServer(w, "Error dropping course", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Course dropped successfully"})
	}
}

func EnrollmentStatsHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		stats, err := store.CourseStats(r.Context(), courseID)
		if err != nil {
			failServer(w, "Error fetching enrollment statistics", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"stats": stats})
	}
}
