package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/learnhub/learnhub-backend/internal/auth/middleware"
	"github.com/learnhub/learnhub-backend/internal/exam"
	"github.com/learnhub/learnhub-backend/internal/rbac"
)

func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chapterID := chi.URLParam(r, "chapterID")
		exams, err := store.ListByChapter(r.Context(), chapterID)
		if err != nil {
			failServer(w, "Error fetching exams", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"exams": exams})
	}
}

// GetExamHandler serves the exam with a random question sample. The route is
// public, so the viewer is extracted from the bearer token when one is
// present. Answer keys are included only when the caller asks for the admin
// view AND actually holds the admin role; the query flag alone is not trusted.
func GetExamHandler(store exam.Store, authSvc *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		wantAnswers := r.URL.Query().Get("admin") == "true"
		_, role := subjectFromBearer(authSvc, r)
		isAdmin := role == "admin"

		e, err := store.GetForTaking(r.Context(), id, wantAnswers && isAdmin)
		if err != nil {
			if errors.Is(err, exam.ErrNotFound) {
				fail(w, http.StatusNotFound, "Exam not found")
				return
			}
			failServer(w, "Error fetching exam", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"exam": e})
	}
}

func CreateExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID       string `json:"course_id" validate:"required"`
			ChapterID      string `json:"chapter_id" validate:"required"`
			Title          string `json:"title" validate:"required"`
			TimeLimit      int    `json:"time_limit" validate:"min=0"`
			TotalQuestions int    `json:"total_questions" validate:"required,min=1"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		e, err := store.Create(r.Context(), exam.Exam{
			CourseID:       req.CourseID,
			ChapterID:      req.ChapterID,
			Title:          req.Title,
			TimeLimit:      req.TimeLimit,
			TotalQuestions: req.TotalQuestions,
		})
		if err != nil {
			failServer(w, "Error creating exam", err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{"message": "Exam created successfully", "exam_id": e.ID})
	}
}

func UpdateExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Title          string `json:"title" validate:"required"`
			TimeLimit      int    `json:"time_limit" validate:"min=0"`
			TotalQuestions int    `json:"total_questions" validate:"required,min=1"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := store.Update(r.Context(), id, req.Title, req.TimeLimit, req.TotalQuestions); err != nil {
			if errors.Is(err, exam.ErrNotFound) {
				fail(w, http.StatusNotFound, "Exam not found")
				return
			}
			failServer(w, "Error updating exam", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Exam updated successfully"})
	}
}

func DeleteExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.Delete(r.Context(), id); err != nil {
			if errors.Is(err, exam.ErrNotFound) {
				fail(w, http.StatusNotFound, "Exam not found")
				return
			}
			failServer(w, "Error deleting exam", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Exam deleted successfully"})
	}
}

func SubmitExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		id := chi.URLParam(r, "id")
		var req struct {
			Answers []exam.Answer `json:"answers" validate:"required,min=1,dive"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		result, err := store.Submit(r.Context(), id, userID, req.Answers)
		if err != nil {
			switch {
			case errors.Is(err, exam.ErrEmptySubmission):
				fail(w, http.StatusBadRequest, "answers must not be empty")
			case errors.Is(err, exam.ErrNotFound):
				fail(w, http.StatusNotFound, "Exam not found")
			default:
				failServer(w, "Error submitting exam", err)
			}
			return
		}
		ok(w, http.StatusOK, map[string]any{"result": result})
	}
}

func ExamResultsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		id := chi.URLParam(r, "id")
		rec, err := store.GetResults(r.Context(), id, userID)
		if err != nil {
			failServer(w, "Error fetching exam results", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"results": rec}) // null when never attempted
	}
}
