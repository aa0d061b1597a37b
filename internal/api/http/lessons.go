package http

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func ListLessonsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chapterID := chi.URLParam(r, "chapterID")
		lessons, err := lessonsForChapter(r, db, chapterID)
		if err != nil {
			failServer(w, "Error fetching lessons", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"lessons": lessons})
	}
}

func GetLessonHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var l lessonPayload
		row := db.QueryRowContext(r.Context(), `
			SELECT id, chapter_id, title, lesson_order FROM lessons WHERE id=$1`, id)
		if err := row.Scan(&l.ID, &l.ChapterID, &l.Title, &l.LessonOrder); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fail(w, http.StatusNotFound, "Lesson not found")
				return
			}
			failServer(w, "Error fetching lesson", err)
			return
		}

		rows, err := db.QueryContext(r.Context(), `
			SELECT id, lesson_id, page_number, page_type, content FROM pages WHERE lesson_id=$1 ORDER BY page_number`, id)
		if err != nil {
			failServer(w, "Error fetching lesson", err)
			return
		}
		defer rows.Close()
		l.Pages = []pagePayload{}
		for rows.Next() {
			var p pagePayload
			if err := rows.Scan(&p.ID, &p.LessonID, &p.PageNumber, &p.PageType, &p.Content); err != nil {
				failServer(w, "Error fetching lesson", err)
				return
			}
			l.Pages = append(l.Pages, p)
		}
		ok(w, http.StatusOK, map[string]any{"lesson": l})
	}
}

func CreateLessonHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ChapterID   string `json:"chapter_id" validate:"required"`
			Title       string `json:"title" validate:"required"`
			LessonOrder int    `json:"lesson_order" validate:"min=0"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		id := "l-" + uuid.NewString()
		_, err := db.ExecContext(r.Context(), `
			INSERT INTO lessons (id, chapter_id, title, lesson_order) VALUES ($1, $2, $3, $4)`,
			id, req.ChapterID, req.Title, req.LessonOrder)
		if err != nil {
			failServer(w, "Error creating lesson", err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{"message": "Lesson created successfully", "lesson_id": id})
	}
}

func UpdateLessonHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Title       string `json:"title" validate:"required"`
			LessonOrder int    `json:"lesson_order" validate:"min=0"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := db.ExecContext(r.Context(), `
			UPDATE lessons SET title=$1, lesson_order=$2 WHERE id=$3`, req.Title, req.LessonOrder, id)
		if err != nil {
			failServer(w, "Error updating lesson", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Lesson not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Lesson updated successfully"})
	}
}

func DeleteLessonHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		res, err := db.ExecContext(r.Context(), `DELETE FROM lessons WHERE id=$1`, id)
		if err != nil {
			failServer(w, "Error deleting lesson", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Lesson not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Lesson deleted successfully"})
	}
}

func CreatePageHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lessonID := chi.URLParam(r, "lessonID")
		var req struct {
			PageNumber int    `json:"page_number" validate:"min=0"`
			PageType   string `json:"page_type" validate:"required,oneof=text video image quiz"`
			Content    string `json:"content" validate:"required"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		id := "pg-" + uuid.NewString()
		_, err := db.ExecContext(r.Context(), `
			INSERT INTO pages (id, lesson_id, page_number, page_type, content) VALUES ($1, $2, $3, $4, $5)`,
			id, lessonID, req.PageNumber, req.PageType, req.Content)
		if err != nil {
			failServer(w, "Error creating page", err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{"message": "Page created successfully", "page_id": id})
	}
}

func UpdatePageHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "pageID")
		var req struct {
			PageNumber int    `json:"page_number" validate:"min=0"`
			PageType   string `json:"page_type" validate:"required,oneof=text video image quiz"`
			Content    string `json:"content" validate:"required"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := db.ExecContext(r.Context(), `
			UPDATE pages SET page_number=$1, page_type=$2, content=$3 WHERE id=$4`,
			req.PageNumber, req.PageType, req.Content, pageID)
		if err != nil {
			failServer(w, "Error updating page", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Page not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Page updated successfully"})
	}
}

func DeletePageHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "pageID")
		res, err := db.ExecContext(r.Context(), `DELETE FROM pages WHERE id=$1`, pageID)
		if err != nil {
			failServer(w, "Error deleting page", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Page not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Page deleted successfully"})
	}
}

func ReorderLessonsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chapterID := chi.URLParam(r, "chapterID")
		var req struct {
			LessonOrders []struct {
				ID    string `json:"id" validate:"required"`
				Order int    `json:"order" validate:"min=0"`
			} `json:"lessonOrders" validate:"required,min=1,dive"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		tx, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			failServer(w, "Error reordering lessons", err)
			return
		}
		defer tx.Rollback()
		for _, item := range req.LessonOrders {
			if _, err := tx.ExecContext(r.Context(), `
				UPDATE lessons SET lesson_order=$1 WHERE id=$2 AND chapter_id=$3`,
				item.Order, item.ID, chapterID); err != nil {
				failServer(w, "Error reordering lessons", err)
				return
			}
		}
		if err := tx.Commit(); err != nil {
			failServer(w, "Error reordering lessons", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Lessons reordered successfully"})
	}
}
