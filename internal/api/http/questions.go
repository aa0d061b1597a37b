package http

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnhub/learnhub-backend/internal/exam"
)

// Question handlers are admin-only; payloads here always carry the answer key.

func ListQuestionsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chapterID := chi.URLParam(r, "chapterID")
		rows, err := db.QueryContext(r.Context(), `
			SELECT id, chapter_id, question_text, option_a, option_b, option_c, option_d, correct_answer
			FROM questions WHERE chapter_id=$1`, chapterID)
		if err != nil {
			failServer(w, "Error fetching questions", err)
			return
		}
		defer rows.Close()
		out := []exam.Question{}
		for rows.Next() {
			var q exam.Question
			if err := rows.Scan(&q.ID, &q.ChapterID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer); err != nil {
				failServer(w, "Error fetching questions", err)
				return
			}
			out = append(out, q)
		}
		ok(w, http.StatusOK, map[string]any{"questions": out})
	}
}

func GetQuestionHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var q exam.Question
		row := db.QueryRowContext(r.Context(), `
			SELECT id, chapter_id, question_text, option_a, option_b, option_c, option_d, correct_answer
			FROM questions WHERE id=$1`, id)
		if err := row.Scan(&q.ID, &q.ChapterID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fail(w, http.StatusNotFound, "Question not found")
				return
			}
			failServer(w, "Error fetching question", err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"question": q})
	}
}

type questionReq struct {
	ChapterID     string `json:"chapter_id" validate:"required"`
	QuestionText  string `json:"question_text" validate:"required"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required,oneof=a b c d"`
}

func CreateQuestionHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionReq
		if !decodeJSON(w, r, &req) {
			return
		}
		id := "q-" + uuid.NewString()
		_, err := db.ExecContext(r.Context(), `
			INSERT INTO questions (id, chapter_id, question_text, option_a, option_b, option_c, option_d, correct_answer)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, req.ChapterID, req.QuestionText, req.OptionA, req.OptionB, req.OptionC, req.OptionD, req.CorrectAnswer)
		if err != nil {
			failServer(w, "Error creating question", err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{"message": "Question created successfully", "question_id": id})
	}
}

// BulkCreateQuestionsHandler inserts a batch of questions all-or-nothing.
func BulkCreateQuestionsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Questions []questionReq `json:"questions" validate:"required,min=1,dive"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		tx, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			failServer(w, "Error creating questions", err)
			return
		}
		defer tx.Rollback()

		ids := make([]string, 0, len(req.Questions))
		for _, q := range req.Questions {
			id := "q-" + uuid.NewString()
			if _, err := tx.ExecContext(r.Context(), `
				INSERT INTO questions (id, chapter_id, question_text, option_a, option_b, option_c, option_d, correct_answer)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				id, q.ChapterID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer); err != nil {
				failServer(w, "Error creating questions", err)
				return
			}
			ids = append(ids, id)
		}
		if err := tx.Commit(); err != nil {
			failServer(w, "Error creating questions", err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{
			"message":      "Questions created successfully",
			"created":      len(ids),
			"question_ids": ids,
		})
	}
}

func UpdateQuestionHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			QuestionText  string `json:"question_text" validate:"required"`
			OptionA       string `json:"option_a" validate:"required"`
			OptionB       string `json:"option_b" validate:"required"`
			OptionC       string `json:"option_c" validate:"required"`
			OptionD       string `json:"option_d" validate:"required"`
			CorrectAnswer string `json:"correct_answer" validate:"required,oneof=a b c d"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := db.ExecContext(r.Context(), `
			UPDATE questions
			SET question_text=$1, option_a=$2, option_b=$3, option_c=$4, option_d=$5, correct_answer=$6
			WHERE id=$7`,
			req.QuestionText, req.OptionA, req.OptionB, req.OptionC, req.OptionD, req.CorrectAnswer, id)
		if err != nil {
			failServer(w, "Error updating question", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Question not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Question updated successfully"})
	}
}

func DeleteQuestionHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		res, err := db.ExecContext(r.Context(), `DELETE FROM questions WHERE id=$1`, id)
		if err != nil {
			failServer(w, "Error deleting question", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fail(w, http.StatusNotFound, "Question not found")
			return
		}
		ok(w, http.StatusOK, map[string]any{"message": "Question deleted successfully"})
	}
}
