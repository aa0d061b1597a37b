package exam

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub-backend/internal/audit"
)

type SQLStore struct {
	db     *sql.DB
	events *audit.EventRepo // optional
}

func NewSQLStore(db *sql.DB, events *audit.EventRepo) *SQLStore {
	return &SQLStore{db: db, events: events}
}

func (s *SQLStore) Create(ctx context.Context, e Exam) (Exam, error) {
	e.ID = "x-" + uuid.NewString()
	e.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exams (id, course_id, chapter_id, title, time_limit, total_questions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.CourseID, e.ChapterID, e.Title, e.TimeLimit, e.TotalQuestions, e.CreatedAt)
	if err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) Update(ctx context.Context, id, title string, timeLimit, totalQuestions int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE exams SET title=$1, time_limit=$2, total_questions=$3 WHERE id=$4`,
		title, timeLimit, totalQuestions, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListByChapter(ctx context.Context, chapterID string) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, course_id, chapter_id, title, time_limit, total_questions, created_at
		FROM exams WHERE chapter_id=$1 ORDER BY created_at`,
		chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.CourseID, &e.ChapterID, &e.Title, &e.TimeLimit, &e.TotalQuestions, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetForTaking(ctx context.Context, id string, includeAnswers bool) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, course_id, chapter_id, title, time_limit, total_questions, created_at
		FROM exams WHERE id=$1`, id)
	var e Exam
	if err := row.Scan(&e.ID, &e.CourseID, &e.ChapterID, &e.Title, &e.TimeLimit, &e.TotalQuestions, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrNotFound
		}
		return Exam{}, err
	}

	// RANDOM() is valid on both sqlite and postgres; sampling is unseeded,
	// so a retake may see a different subset.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chapter_id, question_text, option_a, option_b, option_c, option_d, correct_answer
		FROM questions WHERE chapter_id=$1 ORDER BY RANDOM() LIMIT $2`,
		e.ChapterID, e.TotalQuestions)
	if err != nil {
		return Exam{}, err
	}
	defer rows.Close()

	e.Questions = []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.ChapterID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer); err != nil {
			return Exam{}, err
		}
		if !includeAnswers {
			q.CorrectAnswer = ""
		}
		e.Questions = append(e.Questions, q)
	}
	return e, rows.Err()
}

// Submit grades the answers against the stored keys inside one transaction.
// The attempt counter is incremented in the UPDATE expression itself, so
// concurrent submissions cannot lose an increment.
func (s *SQLStore) Submit(ctx context.Context, examID, userID string, answers []Answer) (SubmitResult, error) {
	if len(answers) == 0 {
		return SubmitResult{}, ErrEmptySubmission
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SubmitResult{}, err
	}
	defer tx.Rollback()

	var exist int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM exams WHERE id=$1`, examID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SubmitResult{}, ErrNotFound
		}
		return SubmitResult{}, err
	}

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_exam (id, exam_id, user_id, attempt_count, updated_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (exam_id, user_id)
		DO UPDATE SET attempt_count = user_exam.attempt_count + 1, updated_at = $4`,
		"ue-"+uuid.NewString(), examID, userID, now); err != nil {
		return SubmitResult{}, err
	}

	var userExamID string
	var attempt int
	if err := tx.QueryRowContext(ctx, `
		SELECT id, attempt_count FROM user_exam WHERE exam_id=$1 AND user_id=$2`,
		examID, userID).Scan(&userExamID, &attempt); err != nil {
		return SubmitResult{}, err
	}

	correct := 0
	for _, a := range answers {
		var key string
		err := tx.QueryRowContext(ctx, `SELECT correct_answer FROM questions WHERE id=$1`, a.QuestionID).Scan(&key)
		if errors.Is(err, sql.ErrNoRows) {
			// Unknown question: scored as incorrect, no log row.
			continue
		}
		if err != nil {
			return SubmitResult{}, err
		}
		if key == a.Answer {
			correct++
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO question_test (id, question_id, user_exam_id) VALUES ($1, $2, $3)`,
			"qt-"+uuid.NewString(), a.QuestionID, userExamID); err != nil {
			return SubmitResult{}, err
		}
	}

	score := float64(correct) / float64(len(answers)) * 100
	if _, err := tx.ExecContext(ctx, `UPDATE user_exam SET score=$1 WHERE id=$2`, score, userExamID); err != nil {
		return SubmitResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return SubmitResult{}, err
	}

	if s.events != nil {
		_ = s.events.Append(ctx, audit.TypeExamSubmitted, userExamID, map[string]any{
			"exam_id": examID, "user_id": userID, "score": score, "attempt": attempt,
		})
	}

	return SubmitResult{
		Score:          score,
		CorrectCount:   correct,
		TotalQuestions: len(answers),
		Attempt:        attempt,
	}, nil
}

func (s *SQLStore) GetResults(ctx context.Context, examID, userID string) (*AttemptRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, exam_id, user_id, attempt_count, score, updated_at
		FROM user_exam WHERE exam_id=$1 AND user_id=$2`,
		examID, userID)
	var rec AttemptRecord
	var score sql.NullFloat64
	if err := row.Scan(&rec.ID, &rec.ExamID, &rec.UserID, &rec.AttemptCount, &score, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if score.Valid {
		rec.Score = &score.Float64
	}
	return &rec, nil
}
