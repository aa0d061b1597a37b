package http

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type coursePayload struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Thumbnail    string `json:"thumbnail"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"created_at"`
	ChapterCount int    `json:"chapter_count,omitempty"`
	StudentCount int    `json:"student_count,omitempty"`
}

type chapterPayload struct {
	ID           string          `json:"id"`
	CourseID     string          `json:"course_id"`
	Title        string          `json:"title"`
	ChapterOrder int             `json:"chapter_order"`
	Lessons      []lessonPayload `json:"lessons,omitempty"`
}

type lessonPayload struct {
	ID          string        `json:"id"`
	ChapterID   string        `json:"chapter_id"`
	Title       string        `json:"title"`
	LessonOrder int           `json:"lesson_order"`
	Pages       []pagePayload `json:"pages,omitempty"`
}

type pagePayload struct {
	ID         string `json:"id"`
	LessonID   string `json:"lesson_id"`
	PageNumber int    `json:"page_number"`
	PageType   string `json:"page_type"`
	Content    string `json:"content"`
}

func ListCoursesHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `
			SELECT c.id, c.title, c.description, c.thumbnail, c.status, c.created_at,
			       (SELECT COUNT(*) FROM chapters WHERE course_id = c.id),
			       (SELECT COUNT(*) FROM enrollment WHERE course_id = c.id)
			FROM courses c
			WHERE c.status = 'active'
			ORDER BY c.created_at DESC`)
		if err != nil {
			failServer(w, "Error fetching courses", err)
			return
		}
		defer rows.Close()
		out := []coursePayload{}
		for rows.Next() {
			var c coursePayload
			if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Thumbnail, &c.Status, &c.CreatedAt,
				&c.ChapterCount, &c.StudentCount); err != nil {
				failServer(w, "Error fetching courses", err)
				return
			}
			out = append(out, c)
		}
		ok(w, http.StatusOK, map[string]any{"courses": out})
	}
}

func GetCourseHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var c coursePayload
		row := db.QueryRowContext(r.Context(), `
			SELECT id, title, description, thumbnail, status, created_at FROM courses WHERE id=$1`, id)
		if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Thumbnail, &c.Status, &c.CreatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fail(w, http.StatusNotFound, "Course not found")
				return
			}
			failServer(w, "Error fetching course details", err)
			return
		}

		chRows, err := db.QueryContext(r.Context(), `
			SELECT id, course_id, title, chapter_order FROM chapters WHERE course_id=$1 ORDER BY chapter_order`, id)
		if err != nil {
			failServer(w, "Error fetching course details", err)
			return
		}
		defer chRows.Close()
		chapters := []chapterPayload{}
		for chRows.Next() {
			var ch chapterPayload
			if err := chRows.Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.ChapterOrder); err != nil {
				failServer(w, "Error fetching course details", err)
				return
			}
			chapters = append(chapters, ch)
		}
		for i := range chapters {
			lessons, err := lessonsForChapter(r, db, chapters[i].ID)
			if err != nil {
				failServer(w, "Error fetching course details", err)
				return
			}
			chapters[i].Lessons = lessons
		}

		if err := db.QueryRowContext(r.Context(),
			`SELECT COUNT(*) FROM enrollment WHERE course_id=$1`, id).Scan(&c.StudentCount); err != nil {
			failServer(w, "Error fetching course details", err)
			return
		}

		ok(w, http.StatusOK, map[string]any{"course": map[string]any{
			"id": c.ID, "title": c.Title, "description": c.Description,
			"thumbnail": c.Thumbnail, "status": c.Status, "created_at": c.CreatedAt,
			"chapters": chapters, "student_count": c.StudentCount,
		}})
	}
}

func CreateCourseHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title       string `json:"title" validate:"required"`
			Description string `json:"description"`
			Thumbnail   string `json:"thumbnail"`
			Status      string `json:"status" validate:"omitempty,oneof=active inactive"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Status == "" {
			req.Status = "active"
		}
		id := "c-" + uuid.NewString()
		_, err := db.ExecContext(r.Context(), `
			INSERT INTO courses (id, title, description, thumbnail, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, req.Title, req.Description, req.Thumbnail, req.Status, time.Now().Unix())
		if err != nil {
			failServer(w, "Error creating course", err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{"message": "Course created successfully", "course_id": id})
	}
}

func UpdateCourseHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Title       string `json:"title" validate:"required"`
			Description string `json:"description"`
			Thumbnail   string `json:"thumbnail"`
			Status      string `json:"status" validate:"required,oneof=active inactive"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := db.ExecContext(r.Context(), `
			UPDATE courses SET title=$1, description=$2, thumbnail=$3, status=$4 WHERE id=$5`,
			req.Title, req.Description, req.Thumbnail, req.Status, id)
		if err != nil {
			failServer(w, "Error updating course", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Course not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Course updated successfully"})
	}
}

func DeleteCourseHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		res, err := db.ExecContext(r.Context(), `DELETE FROM courses WHERE id=$1`, id)
		if err != nil {
			failServer(w, "Error deleting course", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Course not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Course deleted successfully"})
	}
}

func lessonsForChapter(r *http.Request, db *sql.DB, chapterID string) ([]lessonPayload, error) {
	rows, err := db.QueryContext(r.Context(), `
		SELECT id, chapter_id, title, lesson_order FROM lessons WHERE chapter_id=$1 ORDER BY lesson_order`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []lessonPayload{}
	for rows.Next() {
		var l lessonPayload
		if err := rows.Scan(&l.ID, &l.ChapterID, &l.Title, &l.LessonOrder); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
