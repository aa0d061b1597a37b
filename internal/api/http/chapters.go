package http

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func ListChaptersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		rows, err := db.QueryContext(r.Context(), `
			SELECT id, course_id, title, chapter_order FROM chapters WHERE course_id=$1 ORDER BY chapter_order`, courseID)
		if err != nil {
			failServer(w, "Error fetching chapters", err)
			return
		}
		defer rows.Close()
		out := []chapterPayload{}
		for rows.Next() {
			var ch chapterPayload
			if err := rows.Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.ChapterOrder); err != nil {
				failServer(w, "Error fetching chapters", err)
				return
			}
			out = append(out, ch)
		}
		ok(w, http.StatusOK, map[string]any{"chapters": out})
	}
}

func GetChapterHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var ch chapterPayload
		row := db.QueryRowContext(r.Context(), `
			SELECT id, course_id, title, chapter_order FROM chapters WHERE id=$1`, id)
		if err := row.Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.ChapterOrder); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fail(w, http.StatusNotFound, "Chapter not found")
				return
			}
			failServer(w, "Error fetching chapter", err)
			return
		}
		lessons, err := lessonsForChapter(r, db, id)
		if err != nil {
			failServer(w, "Error fetching chapter", err)
			return
		}
		ch.Lessons = lessons
		ok(w, http.StatusOK, map[string]any{"chapter": ch})
	}
}

func CreateChapterHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID     string `json:"course_id" validate:"required"`
			Title        string `json:"title" validate:"required"`
			ChapterOrder int    `json:"chapter_order" validate:"min=0"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		id := "ch-" + uuid.NewString()
		_, err := db.ExecContext(r.Context(), `
			INSERT INTO chapters (id, course_id, title, chapter_order) VALUES ($1, $2, $3, $4)`,
			id, req.CourseID, req.Title, req.ChapterOrder)
		if err != nil {
			failServer(w, "Error creating chapter", err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{"message": "Chapter created successfully", "chapter_id": id})
	}
}

func UpdateChapterHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Title        string `json:"title" validate:"required"`
			ChapterOrder int    `json:"chapter_order" validate:"min=0"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := db.ExecContext(r.Context(), `
			UPDATE chapters SET title=$1, chapter_order=$2 WHERE id=$3`, req.Title, req.ChapterOrder, id)
		if err != nil {
			failServer(w, "Error updating chapter", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Chapter not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Chapter updated successfully"})
	}
}

func DeleteChapterHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		res, err := db.ExecContext(r.Context(), `DELETE FROM chapters WHERE id=$1`, id)
		if err != nil {
			failServer(w, "Error deleting chapter", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Chapter not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Chapter deleted successfully"})
	}
}

// ReorderChaptersHandler applies a set of order updates all-or-nothing.
func ReorderChaptersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		var req struct {
			ChapterOrders []struct {
				ID    string `json:"id" validate:"required"`
				Order int    `json:"order" validate:"min=0"`
			} `json:"chapterOrders" validate:"required,min=1,dive"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		tx, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			failServer(w, "Error reordering chapters", err)
			return
		}
		defer tx.Rollback()
		for _, item := range req.ChapterOrders {
			if _, err := tx.ExecContext(r.Context(), `
				UPDATE chapters SET chapter_order=$1 WHERE id=$2 AND course_id=$3`,
				item.Order, item.ID, courseID); err != nil {
				failServer(w, "Error reordering chapters", err)
				return
			}
		}
		if err := tx.Commit(); err != nil {
			failServer(w, "Error reordering chapters", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Chapters reordered successfully"})
	}
}
